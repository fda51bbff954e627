package parser

import (
	"fmt"
	"strings"

	"document-qa/internal/config"
	"document-qa/internal/models"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// NewSplitter builds the splitter used for every source. A nil config falls
// back to the defaults.
func NewSplitter(cfg *config.RAGConfig) textsplitter.TextSplitter {
	if cfg == nil {
		cfg = &config.Default().RAG
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithSeparators(cfg.Separators),
	)
}

// SplitDocuments splits every document and numbers the chunks per document,
// starting at 1. Chunks keep the source and page of their document.
func SplitDocuments(splitter textsplitter.TextSplitter, docs []schema.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, doc := range docs {
		parts, err := splitter.SplitText(doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("failed to split %v: %w", doc.Metadata[models.MetaSource], err)
		}

		source, _ := doc.Metadata[models.MetaSource].(string)
		page, _ := doc.Metadata[models.MetaPage].(int)
		n := 0
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n++
			chunks = append(chunks, models.Chunk{
				Content:    part,
				Source:     source,
				PageNumber: page,
				ChunkID:    n,
			})
		}
	}
	return chunks, nil
}
