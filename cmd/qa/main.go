package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/helper"
	"document-qa/internal/ingest"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/rag"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the yaml config file")
	dryRun := flag.Bool("dry-run", false, "Print the chunks and exit without calling any model")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(cfg.Log.Level, cfg.Log.Console)

	ctx := context.Background()
	loader := ingest.NewLoader(cfg)

	if *dryRun {
		chunks, err := loader.Load(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading sources")
		}
		helper.PrettyPrint(chunks)
		return
	}

	question := questionFromArgs(flag.Args())
	if err := answer(ctx, cfg, loader, question); err != nil {
		log.Fatal().Err(err).Str("question", question).Msg("Error answering question")
	}
}

func answer(ctx context.Context, cfg *config.Config, loader *ingest.Loader, question string) error {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return fmt.Errorf("error initializing embedder: %w", err)
	}
	llm, err := llmservice.NewChatModel(&cfg.InferenceLLM)
	if err != nil {
		return fmt.Errorf("error initializing chat model: %w", err)
	}

	idx, err := loader.BuildIndex(ctx, embedder)
	if err != nil {
		return err
	}

	resp, err := rag.NewRAG(idx, llm, cfg).Query(ctx, question, models.DefaultHistory())
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, formatAnswer(resp))
	return nil
}

// questionFromArgs takes the first positional argument as the question,
// defaulting to a greeting. Further arguments are ignored.
func questionFromArgs(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return models.DefaultQuestion
	}
	return args[0]
}

func formatAnswer(resp models.PromptResponse) string {
	return fmt.Sprintf("Answer: %s\n\nSources: %s\n", resp.Content, strings.Join(resp.Sources, models.SourceSeparator))
}
