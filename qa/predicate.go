package qa

import (
	"fmt"
	"strings"
)

// Predicate renders a SQL boolean expression using positional parameters
// starting at argIndex.
type Predicate interface {
	SQL(argIndex int) (string, []any)
}

// Contains matches a field containing a term, case-insensitively.
type Contains struct {
	Field string
	Term  string
}

func (c Contains) SQL(argIndex int) (string, []any) {
	return fmt.Sprintf("%s ILIKE $%d", c.Field, argIndex), []any{"%" + c.Term + "%"}
}

// AnyOf combines predicates with OR.
type AnyOf []Predicate

func (p AnyOf) SQL(argIndex int) (string, []any) {
	if len(p) == 0 {
		return "TRUE", nil
	}

	parts := make([]string, 0, len(p))
	args := make([]any, 0, len(p))
	for _, pred := range p {
		sql, predArgs := pred.SQL(argIndex + len(args))
		parts = append(parts, sql)
		args = append(args, predArgs...)
	}

	return "(" + strings.Join(parts, " OR ") + ")", args
}

// KeywordMatch builds the OR-across-fields-and-keywords predicate used by
// knowledge retrieval: any keyword appearing in any field is a match.
func KeywordMatch(fields, keywords []string) Predicate {
	combined := make(AnyOf, 0, len(fields)*len(keywords))
	for _, keyword := range keywords {
		for _, field := range fields {
			combined = append(combined, Contains{Field: field, Term: keyword})
		}
	}
	return combined
}
