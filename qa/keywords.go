package qa

import (
	"strings"
	"unicode"
)

const maxKeywords = 5

// Function words and punctuation that carry no retrieval signal. Replaced
// by literal substring matching, so multi-character entries also strip
// inside longer runs of text.
var stopWords = []string{
	"吗", "呢", "啊", "的", "了", "是", "在", "有",
	"怎么", "如何", "什么", "哪里", "为什么", "能不能", "可以", "和", "或", "及",
	"这", "那", "与", "而", "但", "等", "等等", "、", "，", "。", "！", "？",
}

// ExtractKeywords reduces a free-text question to at most five matchable
// terms: stop-words stripped, split on whitespace and CJK punctuation,
// tokens shorter than two characters dropped. Blank input yields no
// keywords. There is no relevance ranking; the first five survivors win.
func ExtractKeywords(question string) []string {
	if strings.TrimSpace(question) == "" {
		return nil
	}

	cleaned := question
	for _, word := range stopWords {
		cleaned = strings.ReplaceAll(cleaned, word, " ")
	}

	tokens := strings.FieldsFunc(cleaned, isTokenSeparator)

	keywords := make([]string, 0, maxKeywords)
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		// Character count, not bytes: CJK keywords are multi-byte.
		if len([]rune(token)) < 2 {
			continue
		}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}

	return keywords
}

func isTokenSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(",，。！？、", r)
}
