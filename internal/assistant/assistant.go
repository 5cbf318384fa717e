// Package assistant answers user questions about the REST API by
// assembling retrieval context from the three indexed documentation
// sources and sending it, together with the conversation history, to
// the chat LLM.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/apichat0/apichat/internal/knowledge"
	"github.com/apichat0/apichat/internal/session"
)

// systemPrompt encodes the domain rules every answer must follow: cite
// the REST operation and query path, provide example code, and explain
// the X-Auth-Token scheme with its single bootstrap exception.
const systemPrompt = `You are the Cisco Catalyst Center REST API and Python code assistant. You provide documentation and Python code for developers.
Always list all available query parameters from the provided context. Include the REST operation and query path.
1. you create documentation to the specific API calls.
2. you create an example source code in the programming language Python using the 'requests' library.
Tell the user if you do not know the answer. If loops or advanced code is needed, provide it.
###
Every API query needs to include the header parameter 'X-Auth-Token' for authentication and authorization. This is where the access token is defined.
If the user does not have the access token, the user needs to call the REST API query '/dna/system/api/v1/auth/token' to receive the access token. Only the API query '/dna/system/api/v1/auth/token' is using the Basic authentication scheme, as defined in RFC 7617. All other API queries need to have the header parameter 'X-Auth-Token' defined.
###`

var (
	// ErrNilGenkit indicates the assistant was created without a Genkit instance.
	ErrNilGenkit = errors.New("genkit instance is nil")

	// ErrNilStore indicates the assistant was created without a vector store.
	ErrNilStore = errors.New("vector store is nil")

	// ErrEmptyQuery indicates Answer was called with an empty question.
	ErrEmptyQuery = errors.New("empty query")
)

// Store is the slice of the knowledge store the assistant depends on.
type Store interface {
	Query(ctx context.Context, text string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Config configures an Assistant.
type Config struct {
	Genkit    *genkit.Genkit
	ModelName string
	Store     Store
	Logger    *slog.Logger

	// Temperature for the chat call. Zero means the default 0.8.
	Temperature float64

	// Per-source retrieval counts. Zero means 10.
	TopKAPIDocs   int
	TopKAPISpecs  int
	TopKUserGuide int

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
	return nil
}

// Assistant answers questions with retrieval-augmented generation.
type Assistant struct {
	genkit        *genkit.Genkit
	modelName     string
	store         Store
	logger        *slog.Logger
	temperature   float64
	topKAPIDocs   int
	topKAPISpecs  int
	topKUserGuide int
	limiter       *rate.Limiter
}

// New creates an Assistant.
func New(cfg Config) (*Assistant, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid assistant config: %w", err)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.8
	}
	if cfg.TopKAPIDocs == 0 {
		cfg.TopKAPIDocs = 10
	}
	if cfg.TopKAPISpecs == 0 {
		cfg.TopKAPISpecs = 10
	}
	if cfg.TopKUserGuide == 0 {
		cfg.TopKUserGuide = 10
	}

	return &Assistant{
		genkit:        cfg.Genkit,
		modelName:     cfg.ModelName,
		store:         cfg.Store,
		logger:        cfg.Logger,
		temperature:   cfg.Temperature,
		topKAPIDocs:   cfg.TopKAPIDocs,
		topKAPISpecs:  cfg.TopKAPISpecs,
		topKUserGuide: cfg.TopKUserGuide,
		limiter:       cfg.Limiter,
	}, nil
}

// Answer answers one question. The history holds prior turns only; the
// caller appends this exchange afterwards.
//
// The returned text ends with an elapsed-time suffix covering retrieval
// plus generation. Nothing is cached; every call re-queries the store
// and re-invokes the LLM.
func (a *Assistant) Answer(ctx context.Context, query string, history *session.History) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	start := time.Now()

	contextBlock, err := a.assembleContext(ctx, query)
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("%s\n\nUser question: '%s'", contextBlock, query)
	a.logger.Debug("assembled retrieval context", "query", query, "context_len", len(contextBlock))

	var messages []*ai.Message
	if history != nil {
		messages = history.Messages()
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(message)))

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	response, err := genkit.Generate(ctx, a.genkit,
		ai.WithModelName(a.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{Temperature: a.temperature}),
	)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	elapsed := elapsedSeconds(time.Since(start))
	a.logger.Info("question answered", "query", query, "elapsed_seconds", elapsed)

	return fmt.Sprintf("%s\n\nThe query '%s' took **%s seconds** to execute.",
		response.Text(), query, elapsed), nil
}

// assembleContext runs the three doc-type-scoped retrievals and wraps
// each result set in its delimiter tag. The queries are independent, so
// they run concurrently.
func (a *Assistant) assembleContext(ctx context.Context, query string) (string, error) {
	var apidocs, apispecs, userguide string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		apidocs, err = a.retrieve(gctx, query, knowledge.DocTypeAPIDocs, a.topKAPIDocs)
		return err
	})
	g.Go(func() (err error) {
		apispecs, err = a.retrieve(gctx, query, knowledge.DocTypeAPISpecs, a.topKAPISpecs)
		return err
	})
	g.Go(func() (err error) {
		userguide, err = a.retrieve(gctx, query, knowledge.DocTypeUserGuide, a.topKUserGuide)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	return fmt.Sprintf("Context information delimited with XML tags:\n<context>\n%s\n</context>\n"+
		"API specification context delimited with XML tags:\n<api-context>\n%s\n</api-context>\n"+
		"User guide context delimited with XML tags:\n<userguide-context>\n%s\n</userguide-context>",
		apidocs, apispecs, userguide), nil
}

func (a *Assistant) retrieve(ctx context.Context, query, docType string, topK int) (string, error) {
	results, err := a.store.Query(ctx, query,
		knowledge.WithTopK(topK),
		knowledge.WithDocType(docType))
	if err != nil {
		return "", fmt.Errorf("retrieving %s context: %w", docType, err)
	}

	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Document.Content)
	}
	return strings.Join(contents, "\n"), nil
}

// elapsedSeconds formats a duration as seconds rounded to two decimals,
// without trailing zeros.
func elapsedSeconds(d time.Duration) string {
	rounded := math.Round(d.Seconds()*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
