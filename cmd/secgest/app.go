package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/secgest/internal/config"
	"github.com/dgallion1/secgest/internal/edgar"
	"github.com/dgallion1/secgest/internal/embed"
	"github.com/dgallion1/secgest/internal/llm"
	"github.com/dgallion1/secgest/internal/metrics"
	"github.com/dgallion1/secgest/internal/parser"
	"github.com/dgallion1/secgest/internal/pipeline"
	"github.com/dgallion1/secgest/internal/rag"
	"github.com/dgallion1/secgest/internal/vectorstore"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	metrics  *metrics.Metrics
	parser   *parser.Parser
	store    vectorstore.Store
	embedder *embed.OpenAIEmbedder
	stats    *llm.LLMStats
	answerer *rag.Answerer
	edgar    *edgar.Client

	closers []func()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		stats:   llm.NewLLMStats(0),
	}
	a.parser = parser.New(log, parser.WithSectionObserver(a.metrics))
	a.edgar = edgar.NewClient(cfg.EdgarUserAgent, edgar.WithDownloadDir(cfg.DownloadDir))
	a.embedder = embed.New(embed.Config{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.EmbeddingModel,
	})

	if cfg.HasDatabase() {
		pool, err := vectorstore.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		pg := vectorstore.NewPGStore(pool, a.embedder.Dimensions())
		if err := pg.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.store = pg
	} else {
		log.Warn("no database configured, vector index is in memory")
		a.store = vectorstore.NewMemoryStore()
	}

	var gen llm.Generator
	switch cfg.LLMProvider {
	case "anthropic":
		c := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		a.closers = append(a.closers, c.Close)
		gen = c
	default:
		gen = llm.NewOpenAIChat(cfg.OpenAIAPIKey, cfg.ChatModel, "")
	}

	a.answerer = rag.New(a.embedder, a.store, llm.NewTimed(gen, a.stats), log,
		rag.WithDefaults(rag.Params{
			TopK:          cfg.TopK,
			ContextWindow: cfg.ContextWindowTokens,
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			MaxTokens:     cfg.MaxTokens,
		}),
		rag.WithObserver(a.metrics),
	)
	return a, nil
}

func (a *app) worker() *pipeline.Worker {
	return pipeline.NewWorker(a.parser, a.embedder, a.store, a.log, a.metrics, a.cfg.MaxConcurrentEmbed)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
