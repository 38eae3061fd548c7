// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/phuslu/log"
	"golang.org/x/term"
)

// Backend selects the model server protocol.
type Backend string

const (
	BackendOllama Backend = "ollama"
	BackendOpenAI Backend = "openai"
)

// Index selects the vector store.
type Index string

const (
	IndexMemory Index = "memory"
	IndexSQLite Index = "sqlite"
)

// Config holds every setting read from the environment.
type Config struct {
	OllamaURL  string  `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	Backend    Backend `env:"TABLEQA_BACKEND" envDefault:"ollama"`
	Model      string  `env:"TABLEQA_MODEL" envDefault:"mistral"`
	EmbedModel string  `env:"TABLEQA_EMBED_MODEL" envDefault:"nomic-embed-text"`

	// OpenAI-compatible backend
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	// Retrieval
	TopK             int    `env:"TABLEQA_TOP_K" envDefault:"4"`
	Index            Index  `env:"TABLEQA_INDEX" envDefault:"memory"`
	IndexPath        string `env:"TABLEQA_INDEX_PATH"`
	DocInstruction   string `env:"TABLEQA_DOC_INSTRUCTION" envDefault:"search_document: "`
	QueryInstruction string `env:"TABLEQA_QUERY_INSTRUCTION" envDefault:"search_query: "`
	EmbedBatchSize   int    `env:"TABLEQA_EMBED_BATCH" envDefault:"32"`
	EmbedParallelism int    `env:"TABLEQA_EMBED_PARALLEL" envDefault:"4"`

	// Output
	ExportPath     string `env:"TABLEQA_EXPORT_PATH" envDefault:"ai_results.csv"`
	ExportSchedule string `env:"TABLEQA_EXPORT_SCHEDULE"`
	Progress       string `env:"TABLEQA_PROGRESS" envDefault:"auto"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOllama, BackendOpenAI:
	default:
		return fmt.Errorf("invalid TABLEQA_BACKEND %q (want ollama or openai)", c.Backend)
	}

	switch c.Index {
	case IndexMemory, IndexSQLite:
	default:
		return fmt.Errorf("invalid TABLEQA_INDEX %q (want memory or sqlite)", c.Index)
	}

	switch strings.ToLower(c.Progress) {
	case "auto", "spinner", "log", "off":
	default:
		return fmt.Errorf("invalid TABLEQA_PROGRESS %q", c.Progress)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("TABLEQA_TOP_K must be positive, got %d", c.TopK)
	}
	if c.EmbedBatchSize <= 0 || c.EmbedParallelism <= 0 {
		return fmt.Errorf("embedding batch size and parallelism must be positive")
	}
	if c.ExportPath == "" {
		return fmt.Errorf("TABLEQA_EXPORT_PATH must not be empty")
	}
	return nil
}

// NewLogger builds the console logger on stderr at the configured level.
func (c *Config) NewLogger() *log.Logger {
	return &log.Logger{
		Level: log.ParseLevel(c.LogLevel),
		Writer: &log.ConsoleWriter{
			ColorOutput:    term.IsTerminal(int(os.Stderr.Fd())),
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}
}
