package main

import (
	"fmt"
	"os"

	"github.com/phuslu/log"

	"github.com/0xcro3dile/tableqa-go/internal/adapters/embedding"
	"github.com/0xcro3dile/tableqa-go/internal/adapters/export"
	"github.com/0xcro3dile/tableqa-go/internal/adapters/llm"
	"github.com/0xcro3dile/tableqa-go/internal/adapters/loader"
	"github.com/0xcro3dile/tableqa-go/internal/adapters/progress"
	"github.com/0xcro3dile/tableqa-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/tableqa-go/internal/config"
	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
	"github.com/0xcro3dile/tableqa-go/internal/domain/usecases"
)

// app wires adapters into a session.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	session *usecases.Session
	loader  *loader.MultiLoader
	closers []func() error
}

func newApp(cfg *config.Config, logger *log.Logger, out *os.File) (*app, error) {
	a := &app{cfg: cfg, logger: logger, loader: loader.NewMultiLoader()}

	embedder, generator := newBackend(cfg, logger)

	store, err := a.newVectorStore()
	if err != nil {
		return nil, err
	}

	reporter, err := progress.New(cfg.Progress, out, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	analyzer := usecases.NewAnalyzeUseCase(embedder, store, generator, cfg.TopK)
	a.session = usecases.NewSession(analyzer,
		usecases.WithExporter(export.NewCSVExporter(cfg.ExportPath)),
		usecases.WithProgress(reporter),
		usecases.WithLogger(logger),
		usecases.WithDefaultModel(cfg.Model),
	)

	logger.Debug().
		Str("backend", string(cfg.Backend)).
		Str("index", string(cfg.Index)).
		Str("model", cfg.Model).
		Str("embed_model", cfg.EmbedModel).
		Msg("session ready")

	return a, nil
}

func newBackend(cfg *config.Config, logger *log.Logger) (ports.EmbeddingService, ports.LLMService) {
	if cfg.Backend == config.BackendOpenAI {
		embedder := embedding.NewOpenAIAdapter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbedModel,
			cfg.DocInstruction, cfg.QueryInstruction)
		return embedder, llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model)
	}

	embedder := embedding.NewOllamaAdapter(cfg.OllamaURL, cfg.EmbedModel, embedding.OllamaOptions{
		DocumentInstruction: cfg.DocInstruction,
		QueryInstruction:    cfg.QueryInstruction,
		BatchSize:           cfg.EmbedBatchSize,
		Parallel:            cfg.EmbedParallelism,
		Logger:              logger,
	})
	return embedder, llm.NewOllamaLLMAdapter(cfg.OllamaURL, cfg.Model)
}

func (a *app) newVectorStore() (ports.VectorStore, error) {
	if a.cfg.Index != config.IndexSQLite {
		return vectordb.NewInMemoryStore(), nil
	}
	store, err := vectordb.NewSQLiteStore(a.cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite index: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
}
