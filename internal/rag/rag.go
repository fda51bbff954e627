package rag

import (
	"context"
	"fmt"
	"strings"

	"document-qa/internal/config"
	"document-qa/internal/index"
	"document-qa/internal/llmservice"
	"document-qa/internal/metrics"
	"document-qa/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
)

// Searcher is the read side of the vector index.
type Searcher interface {
	SimilaritySearch(ctx context.Context, question string, k int) ([]index.Result, error)
}

type RAG struct {
	searcher    Searcher
	llm         llms.Model
	topK        int
	temperature float64
}

func NewRAG(searcher Searcher, llm llms.Model, cfg *config.Config) *RAG {
	topK := cfg.RAG.TopK
	if topK <= 0 {
		topK = 2
	}
	return &RAG{
		searcher:    searcher,
		llm:         llm,
		topK:        topK,
		temperature: cfg.InferenceLLM.Temperature,
	}
}

// Query answers question from the top-k chunks. history is sent ahead of the
// instruction and the question; nil means no prior messages.
func (r *RAG) Query(ctx context.Context, question string, history []models.Message) (models.PromptResponse, error) {
	results, err := r.searcher.SimilaritySearch(ctx, question, r.topK)
	if err != nil {
		return models.PromptResponse{}, fmt.Errorf("failed to retrieve context: %w", err)
	}

	contents := make([]string, len(results))
	sources := make([]string, len(results))
	for i, res := range results {
		contents[i] = res.Chunk.Content
		sources[i] = res.Chunk.Source
	}
	log.Debug().Str("question", question).Strs("sources", sources).Msg("Retrieved context")

	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, history...)
	messages = append(messages,
		models.SystemMessage(models.SystemInstruction),
		models.UserMessage(BuildPrompt(question, contents)),
	)

	answer, err := llmservice.GenerateContent(ctx, r.llm, messages, r.temperature)
	metrics.ObserveLLMCall(err)
	if err != nil {
		return models.PromptResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	return models.PromptResponse{
		Query:   question,
		Sources: sources,
		Content: answer,
	}, nil
}

// BuildPrompt joins the retrieved chunks into the user prompt.
func BuildPrompt(question string, contexts []string) string {
	return fmt.Sprintf(models.AnswerPromptTemplate, question, strings.Join(contexts, models.ContextSeparator))
}
