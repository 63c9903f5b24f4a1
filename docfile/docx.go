package docfile

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// DocxDecoder extracts text from the OOXML word/document.xml part: body
// paragraphs first (empty ones skipped), then table cells row-major with
// cells space-joined and rows newline-joined.
type DocxDecoder struct{}

type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

func (DocxDecoder) Decode(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}
	defer archive.Close()

	var doc docxDocument
	found := false
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, openErr := file.Open()
		if openErr != nil {
			return "", fmt.Errorf("open docx document part: %w", openErr)
		}
		decodeErr := xml.NewDecoder(rc).Decode(&doc)
		rc.Close()
		if decodeErr != nil {
			return "", fmt.Errorf("decode docx document part: %w", decodeErr)
		}
		found = true
		break
	}
	if !found {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	var sb strings.Builder
	for _, p := range doc.Body.Paragraphs {
		if text := p.text(); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			for i, cell := range row.Cells {
				if i > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(cell.text())
			}
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func (p docxParagraph) text() string {
	var sb strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Texts {
			sb.WriteString(t)
		}
	}
	return sb.String()
}

func (c docxCell) text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		if text := p.text(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

var _ Decoder = DocxDecoder{}
