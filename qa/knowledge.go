package qa

import (
	"context"
	"fmt"
	"strings"
)

const maxKnowledgeDocuments = 5

// knowledgeContext retrieves enabled knowledge documents matching the
// question's keywords (all enabled documents when no keyword survives
// extraction), most viewed first. Each document contributes a summary
// block and, when it carries a file reference, the decoded file content.
// A failed fetch or decode drops only that document's file content.
func (s *Service) knowledgeContext(ctx context.Context, question string) (string, error) {
	keywords := ExtractKeywords(question)

	documents, err := s.knowledge.EnabledDocuments(ctx, keywords, maxKnowledgeDocuments)
	if err != nil {
		return "", err
	}
	if len(documents) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("【社区知识库相关信息】\n")
	for _, doc := range documents {
		sb.WriteString("📄 ")
		sb.WriteString(doc.Title)
		sb.WriteString(" [")
		sb.WriteString(doc.Category)
		sb.WriteString("]\n")
		if doc.Description != "" {
			sb.WriteString("   摘要：")
			sb.WriteString(doc.Description)
			sb.WriteString("\n")
		}

		if content := s.documentContent(ctx, doc); content != "" {
			sb.WriteString(content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// documentContent fetches and decodes one document's file, marked with the
// source title and declared type. Missing references and failures yield "".
func (s *Service) documentContent(ctx context.Context, doc Document) string {
	if strings.TrimSpace(doc.FilePath) == "" || s.files == nil {
		return ""
	}

	content := attempt(s.logger, fmt.Sprintf("knowledge-file-%d", doc.ID), func() (string, error) {
		return s.files.Fetch(ctx, doc.ID, doc.FilePath, doc.FileType)
	})
	if content == "" {
		return ""
	}

	return fmt.Sprintf("【来自文档: %s (%s)】\n%s", doc.Title, doc.FileType, content)
}
