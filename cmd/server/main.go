package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/helper"
	"document-qa/internal/index"
	"document-qa/internal/ingest"
	"document-qa/internal/llmservice"
	"document-qa/internal/server"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the yaml config file")
	listenAddr := flag.String("listen-addr", "", "Server listen address, overrides the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(cfg.Log.Level, cfg.Log.Console)
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	llm, err := llmservice.NewChatModel(&cfg.InferenceLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := ingest.NewLoader(cfg)
	handle := index.NewHandle(ctx, func(ctx context.Context) (*index.Index, error) {
		return loader.BuildIndex(ctx, embedder)
	})
	handle.Start()

	router := server.NewRouter(&cfg.Server, server.NewHandler(handle, llm, cfg))
	if err := server.Run(ctx, &cfg.Server, router); err != nil {
		log.Fatal().Err(err).Msg("Server crashed")
	}
	log.Info().Msg("Server stopped")
}
