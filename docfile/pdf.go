package docfile

import (
	"bytes"
	"fmt"

	pdf "github.com/ledongthuc/pdf"
)

// PDFDecoder extracts plain page text. It is not part of the default
// registry; the composition root registers it over the pdf placeholder
// when page-text extraction is wanted.
type PDFDecoder struct{}

func (PDFDecoder) Decode(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}

var _ Decoder = PDFDecoder{}
