// Package enrich walks an API specification and generates, per REST
// operation, an extended natural-language description via the LLM. The
// generated prose plus a fixed restatement of the operation's path,
// method and parameters is chunked, indexed into the vector collection
// and appended to the on-disk corpus for later cache-based re-ingestion.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/apichat0/apichat/internal/apispec"
	"github.com/apichat0/apichat/internal/chunk"
	"github.com/apichat0/apichat/internal/knowledge"
)

// systemInstruction is the fixed system prompt for the enrichment call.
const systemInstruction = "You are provided information of a specific REST API query path of the Cisco Catalyst Center. Describe what this query is for in detail. Describe how this query can be used from a user perspective."

var (
	// ErrNilGenkit indicates the engine was created without a Genkit instance.
	ErrNilGenkit = errors.New("genkit instance is nil")

	// ErrNilStore indicates the engine was created without a vector store.
	ErrNilStore = errors.New("vector store is nil")
)

// Store is the slice of the knowledge store the engine depends on.
type Store interface {
	Add(ctx context.Context, docs []knowledge.Document) error
	Query(ctx context.Context, text string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Config configures an enrichment engine.
type Config struct {
	Genkit     *genkit.Genkit
	ModelName  string
	Store      Store
	CorpusPath string
	Logger     *slog.Logger

	// Temperature for the generation call. Zero means the default 0.8.
	Temperature float64

	// ChunkSize for indexing the enriched content. Zero means 512.
	ChunkSize int

	// ProbeTopK is how many already-indexed chunks are retrieved as
	// context for each generation. Zero means 10.
	ProbeTopK int

	// Limiter throttles LLM calls. Nil means unthrottled.
	Limiter *rate.Limiter
}

func (c *Config) validate() error {
	if c.Genkit == nil {
		return ErrNilGenkit
	}
	if c.Store == nil {
		return ErrNilStore
	}
	if c.ModelName == "" {
		return errors.New("model name is empty")
	}
	if c.CorpusPath == "" {
		return errors.New("corpus path is empty")
	}
	return nil
}

// Engine runs the enrichment pipeline over a specification document.
type Engine struct {
	genkit      *genkit.Genkit
	modelName   string
	store       Store
	corpusPath  string
	logger      *slog.Logger
	temperature float64
	chunkSize   int
	probeTopK   int
	limiter     *rate.Limiter
}

// New creates an enrichment engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid enrich config: %w", err)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.8
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = chunk.DefaultSize
	}
	if cfg.ProbeTopK == 0 {
		cfg.ProbeTopK = 10
	}

	return &Engine{
		genkit:      cfg.Genkit,
		modelName:   cfg.ModelName,
		store:       cfg.Store,
		corpusPath:  cfg.CorpusPath,
		logger:      cfg.Logger,
		temperature: cfg.Temperature,
		chunkSize:   cfg.ChunkSize,
		probeTopK:   cfg.ProbeTopK,
		limiter:     cfg.Limiter,
	}, nil
}

// Report summarizes one enrichment run.
type Report struct {
	Paths      int // paths walked
	Operations int // operations enriched
	Skipped    int // malformed operations skipped
	Chunks     int // chunks added to the vector store
}

// Run enriches every operation in the document, in lexical path and
// operation order so reruns produce the same corpus.
//
// Malformed operations are skipped with a warning. A generation or store
// failure aborts the run; nothing written so far is rolled back, since
// re-adding under the same ids overwrites cleanly on the next run. The
// corpus file is written once, after the walk completes.
func (e *Engine) Run(ctx context.Context, doc *apispec.Document) (*Report, error) {
	corpus := NewCorpus()
	report := &Report{}

	paths := doc.SortedPaths()
	for i, path := range paths {
		e.logger.Info("enriching path", "path", path, "progress", fmt.Sprintf("%d/%d", i+1, len(paths)))
		report.Paths++

		for _, method := range doc.SortedOperations(path) {
			op := doc.Paths[path][method]
			if err := op.Validate(); err != nil {
				e.logger.Warn("skipping malformed operation", "path", path, "method", method, "error", err)
				report.Skipped++
				continue
			}

			content, err := e.enrichOperation(ctx, path, method, op)
			if err != nil {
				return report, fmt.Errorf("enriching %s %s: %w", method, path, err)
			}

			metadata := map[string]string{
				"summary":             op.Summary,
				"tag":                 op.FirstTag(),
				knowledge.MetaDocType: knowledge.DocTypeAPISpecs,
			}

			chunks := chunk.Split(content, e.chunkSize)
			ids := chunk.IDs(op.OperationID, len(chunks))

			docs := make([]knowledge.Document, len(chunks))
			for j := range chunks {
				docs[j] = knowledge.Document{
					ID:       ids[j],
					Content:  chunks[j],
					Metadata: metadata,
				}
			}
			if err := e.store.Add(ctx, docs); err != nil {
				return report, fmt.Errorf("indexing %s: %w", op.OperationID, err)
			}

			corpus.Append(content, op.OperationID, metadata)
			report.Operations++
			report.Chunks += len(chunks)
		}
	}

	if err := corpus.Save(e.corpusPath); err != nil {
		return report, fmt.Errorf("saving corpus: %w", err)
	}

	e.logger.Info("enrichment complete",
		"paths", report.Paths,
		"operations", report.Operations,
		"skipped", report.Skipped,
		"chunks", report.Chunks,
		"corpus", e.corpusPath)

	return report, nil
}

// enrichOperation generates the extended description for one operation
// and assembles the full content that gets chunked and indexed.
func (e *Engine) enrichOperation(ctx context.Context, path, method string, op apispec.Operation) (string, error) {
	parameters := renderParameters(op.Parameters)
	probe := fmt.Sprintf("%s.%s", op.Summary, op.Description)

	// Unfiltered probe so prior ingestion runs (user guide, web docs)
	// can inform the generated description.
	results, err := e.store.Query(ctx, probe, knowledge.WithTopK(e.probeTopK))
	if err != nil {
		return "", fmt.Errorf("retrieving probe context: %w", err)
	}

	contextText := make([]string, 0, len(results))
	for _, r := range results {
		contextText = append(contextText, r.Document.Content)
	}

	message := fmt.Sprintf("Query path: %q\nREST operation: %s\nshort description: %s\n%s\nUse this context delimited with XML tags:\n<context>\n%s\n</context>",
		path, method, probe, parameters, strings.Join(contextText, "\n"))

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	response, err := genkit.Generate(ctx, e.genkit,
		ai.WithModelName(e.modelName),
		ai.WithSystem(systemInstruction),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(message))),
		ai.WithConfig(&ai.GenerationCommonConfig{Temperature: e.temperature}),
	)
	if err != nil {
		return "", fmt.Errorf("generating extended description: %w", err)
	}

	content := fmt.Sprintf("%s\n\nREST API query information delimited with XML tags\n<api-query>\nAPI query path:%s\nREST operation:%s\n%s</api-query>",
		response.Text(), path, method, parameters)

	e.logger.Debug("operation enriched", "operation_id", op.OperationID, "content_len", len(content))
	return content, nil
}
