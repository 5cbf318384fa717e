// Package ingest loads the three documentation sources into the vector
// collection: the PDF user guide (per page), the scraped documentation
// site (per section, chunked) and the cached enriched-specification
// corpus (per operation, re-chunked).
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/apichat0/apichat/internal/chunk"
	"github.com/apichat0/apichat/internal/knowledge"
)

var (
	// ErrNilStore indicates the ingester was created without a vector store.
	ErrNilStore = errors.New("vector store is nil")

	// ErrNilEmbedder indicates the ingester was created without an
	// embedding function.
	ErrNilEmbedder = errors.New("embedding function is nil")
)

// Store is the slice of the knowledge store the ingesters depend on.
type Store interface {
	Add(ctx context.Context, docs []knowledge.Document) error
}

// Config configures an Ingester.
type Config struct {
	Store  Store
	Logger *slog.Logger

	// Embed computes page embeddings for the PDF path, which embeds
	// whole pages explicitly instead of deferring to the collection.
	Embed chromem.EmbeddingFunc

	// ChunkSize for the web-docs and cached-corpus paths. Zero means 512.
	ChunkSize int

	// DocsBaseURL is the documentation site root; section names are
	// appended to it.
	DocsBaseURL string

	// DocsSections is the fixed catalog of section names to scrape.
	DocsSections []string

	// ScrapeTimeout bounds each page fetch. Zero means 30s.
	ScrapeTimeout time.Duration

	// ScrapeDelay is the pause between page fetches. Zero means 500ms.
	ScrapeDelay time.Duration
}

func (c *Config) validate() error {
	if c.Store == nil {
		return ErrNilStore
	}
	if c.Embed == nil {
		return ErrNilEmbedder
	}
	return nil
}

// Ingester runs the documentation import pipelines.
type Ingester struct {
	store         Store
	embed         chromem.EmbeddingFunc
	logger        *slog.Logger
	chunkSize     int
	docsBaseURL   string
	docsSections  []string
	scrapeTimeout time.Duration
	scrapeDelay   time.Duration
}

// New creates an Ingester.
func New(cfg Config) (*Ingester, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid ingest config: %w", err)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = chunk.DefaultSize
	}
	if cfg.ScrapeTimeout == 0 {
		cfg.ScrapeTimeout = 30 * time.Second
	}
	if cfg.ScrapeDelay == 0 {
		cfg.ScrapeDelay = 500 * time.Millisecond
	}

	return &Ingester{
		store:         cfg.Store,
		embed:         cfg.Embed,
		logger:        cfg.Logger,
		chunkSize:     cfg.ChunkSize,
		docsBaseURL:   cfg.DocsBaseURL,
		docsSections:  cfg.DocsSections,
		scrapeTimeout: cfg.ScrapeTimeout,
		scrapeDelay:   cfg.ScrapeDelay,
	}, nil
}
