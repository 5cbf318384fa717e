package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"golang.org/x/time/rate"

	"github.com/apichat0/apichat/internal/assistant"
	"github.com/apichat0/apichat/internal/config"
	"github.com/apichat0/apichat/internal/database"
	"github.com/apichat0/apichat/internal/enrich"
	"github.com/apichat0/apichat/internal/ingest"
	"github.com/apichat0/apichat/internal/knowledge"
	"github.com/apichat0/apichat/internal/session"
)

// Setup creates and initializes the application. Call Close on the
// returned App to release its resources.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	store, err := knowledge.Open(cfg.VectorDBPath, cfg.Collection,
		knowledge.NewEmbeddingFunc(embedder), logger)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge store: %w", err)
	}
	a.Knowledge = store

	db, err := database.Open(cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	a.db = db
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	a.Sessions = session.NewStore(db, logger)

	// One limiter across enrichment and answering keeps the overall
	// completion-call rate below the provider quota.
	limiter := rate.NewLimiter(rate.Limit(cfg.LLMRequestsPerSecond), cfg.LLMBurst)

	a.Ingester, err = ingest.New(ingest.Config{
		Store:         store,
		Embed:         knowledge.NewEmbeddingFunc(embedder),
		Logger:        logger,
		ChunkSize:     cfg.ChunkSize,
		DocsBaseURL:   cfg.DocsBaseURL,
		DocsSections:  cfg.DocsSections,
		ScrapeTimeout: time.Duration(cfg.ScrapeTimeoutMs) * time.Millisecond,
		ScrapeDelay:   time.Duration(cfg.ScrapeDelayMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}

	a.Enricher, err = enrich.New(enrich.Config{
		Genkit:      g,
		ModelName:   cfg.ModelName,
		Store:       store,
		CorpusPath:  cfg.CorpusCache,
		Logger:      logger,
		Temperature: cfg.Temperature,
		ChunkSize:   cfg.ChunkSize,
		ProbeTopK:   cfg.ContextTopK,
		Limiter:     limiter,
	})
	if err != nil {
		return nil, err
	}

	a.Assistant, err = assistant.New(assistant.Config{
		Genkit:        g,
		ModelName:     cfg.ModelName,
		Store:         store,
		Logger:        logger,
		Temperature:   cfg.Temperature,
		TopKAPIDocs:   cfg.TopKAPIDocs,
		TopKAPISpecs:  cfg.TopKAPISpecs,
		TopKUserGuide: cfg.TopKUserGuide,
		Limiter:       limiter,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("application ready",
		"provider", cfg.Provider,
		"model", cfg.ModelName,
		"collection", cfg.Collection,
		"indexed_chunks", store.Count())

	return a, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default), openai and ollama.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}

	var g *genkit.Genkit

	switch provider {
	case "ollama":
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama has no auto-discovery; model and embedder need explicit
		// registration.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case "openai":
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized genkit with openai provider", "model", cfg.ModelName)

	default: // "gemini"
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case "ollama":
		return ollama.Embedder(g, cfg.OllamaHost)
	case "openai":
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default: // "gemini"
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}
