package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

const (
	defaultDocumentPath   = "xbox.pdf"
	defaultVideoURL       = "https://www.youtube.com/watch?v=fmIKhp_Mnb8"
	defaultLanguage       = "en"
	defaultChunkSize      = 2500
	defaultChunkOverlap   = 200
	defaultTopK           = 2
	defaultListenAddr     = ":3000"
	defaultEmbeddingModel = "text-embedding-ada-002"
	defaultInferenceModel = "gpt-4"
	defaultOllamaURL      = "http://localhost:11434"
)

// defaultSeparators is the canonical split policy shared by the CLI and the server.
var defaultSeparators = []string{". ", " ", ""}

type Config struct {
	EmbedLLM     LLMConfig    `yaml:"embed_llm"`
	InferenceLLM LLMConfig    `yaml:"inference_llm"`
	Sources      SourceConfig `yaml:"sources"`
	RAG          RAGConfig    `yaml:"rag"`
	Server       ServerConfig `yaml:"server"`
	Log          LogConfig    `yaml:"log"`
}

// LLMConfig describes one model endpoint, either for embeddings or for chat.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type SourceConfig struct {
	DocumentPath       string `yaml:"document_path"`
	VideoURL           string `yaml:"video_url"`
	TranscriptLanguage string `yaml:"transcript_language"`
	AddVideoInfo       bool   `yaml:"add_video_info"`
}

type RAGConfig struct {
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Separators   []string `yaml:"separators"`
	TopK         int      `yaml:"top_k"`
}

type ServerConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	MetricsAddr        string        `yaml:"metrics_addr"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	RateLimitPerSecond float64       `yaml:"rate_limit_per_second"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		EmbedLLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    defaultEmbeddingModel,
		},
		InferenceLLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    defaultInferenceModel,
		},
		Sources: SourceConfig{
			DocumentPath:       defaultDocumentPath,
			VideoURL:           defaultVideoURL,
			TranscriptLanguage: defaultLanguage,
			AddVideoInfo:       true,
		},
		RAG: RAGConfig{
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
			Separators:   append([]string(nil), defaultSeparators...),
			TopK:         defaultTopK,
		},
		Server: ServerConfig{
			ListenAddr:      defaultListenAddr,
			AllowedOrigins:  []string{"*"},
			RateLimitBurst:  5,
			ReadTimeout:     5 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:   "debug",
			Console: true,
		},
	}
}

// LoadConfig reads the yaml file at path on top of the defaults. A missing
// file is not an error. Values from .env and the environment win over the file.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.EmbedLLM.Provider == ProviderOpenAI && cfg.EmbedLLM.Key == "" {
			cfg.EmbedLLM.Key = v
		}
		if cfg.InferenceLLM.Provider == ProviderOpenAI && cfg.InferenceLLM.Key == "" {
			cfg.InferenceLLM.Key = v
		}
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		if cfg.EmbedLLM.Provider == ProviderOpenAI && cfg.EmbedLLM.BaseURL == "" {
			cfg.EmbedLLM.BaseURL = v
		}
		if cfg.InferenceLLM.Provider == ProviderOpenAI && cfg.InferenceLLM.BaseURL == "" {
			cfg.InferenceLLM.BaseURL = v
		}
	}
	if v := os.Getenv("QA_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("QA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// fill zero values a partial yaml file may leave behind
func applyDefaults(cfg *Config) {
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = ProviderOpenAI
	}
	if cfg.InferenceLLM.Provider == "" {
		cfg.InferenceLLM.Provider = ProviderOpenAI
	}
	for _, llm := range []*LLMConfig{&cfg.EmbedLLM, &cfg.InferenceLLM} {
		if llm.Provider == ProviderOllama && llm.BaseURL == "" {
			llm.BaseURL = defaultOllamaURL
		}
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if len(cfg.RAG.Separators) == 0 {
		cfg.RAG.Separators = append([]string(nil), defaultSeparators...)
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.Sources.TranscriptLanguage == "" {
		cfg.Sources.TranscriptLanguage = defaultLanguage
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = defaultListenAddr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
}

func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.Sources.DocumentPath == "" {
		return errors.New("sources.document_path is required")
	}
	for name, llm := range map[string]LLMConfig{"embed_llm": c.EmbedLLM, "inference_llm": c.InferenceLLM} {
		if llm.Provider != ProviderOpenAI && llm.Provider != ProviderOllama {
			return fmt.Errorf("%s.provider must be %q or %q, got %q", name, ProviderOpenAI, ProviderOllama, llm.Provider)
		}
	}
	return nil
}
