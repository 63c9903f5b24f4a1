// Package docfile downloads remote knowledge-base files to transient local
// storage and decodes them to plain text. Every download is deleted before
// the call returns, on success and failure alike.
package docfile

import (
	"path/filepath"
	"strings"
)

const (
	TypeDocx = "docx"
	TypePDF  = "pdf"
	TypeText = "txt"
)

// Decoder turns a local file into plain text. Implementations must not
// retain the path; the file is deleted as soon as the caller returns.
type Decoder interface {
	Decode(path string) (string, error)
}

// Unavailable is the decoder variant for a format this deployment cannot
// decode. It reports the note as the document content instead of failing,
// so a missing engine never breaks knowledge retrieval.
type Unavailable struct {
	Note string
}

func (u Unavailable) Decode(string) (string, error) {
	return u.Note, nil
}

// Registry maps normalized file types to decoders. Unknown types fall back
// to the plain-text decoder.
type Registry struct {
	byType   map[string]Decoder
	fallback Decoder
}

// NewRegistry returns the default decoder set: docx decoded in-process,
// pdf answered with a placeholder note, everything else read as plain text.
// Deployments with a pdf engine register one over the placeholder.
func NewRegistry() *Registry {
	return &Registry{
		byType: map[string]Decoder{
			TypeDocx: DocxDecoder{},
			TypePDF:  Unavailable{Note: "（暂不支持PDF文档解析）"},
		},
		fallback: TextDecoder{},
	}
}

func (r *Registry) Register(fileType string, d Decoder) {
	r.byType[NormalizeType(fileType)] = d
}

// Resolve picks a decoder from the declared file type when present,
// otherwise from the file's extension.
func (r *Registry) Resolve(declaredType, path string) Decoder {
	fileType := NormalizeType(declaredType)
	if fileType == "" {
		fileType = NormalizeType(filepath.Ext(path))
	}
	if d, ok := r.byType[fileType]; ok {
		return d
	}
	return r.fallback
}

func NormalizeType(fileType string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(fileType)), ".")
}
