// Package knowledge wraps the persistent vector collection behind an
// add-with-metadata / filtered top-k query contract. The underlying
// similarity metric and index layout belong entirely to chromem-go;
// this package adds id validation, doc-type filtering and logging.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
)

var (
	// ErrEmptyBatch indicates Add was called without documents.
	ErrEmptyBatch = errors.New("empty document batch")

	// ErrDuplicateID indicates two documents in one Add batch share an id.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrInvalidDocType indicates an unrecognized doc_type filter value.
	ErrInvalidDocType = errors.New("invalid doc type")

	// ErrEmptyQuery indicates Query was called with empty query text.
	ErrEmptyQuery = errors.New("empty query text")
)

// Store manages the vector collection holding all indexed documentation
// chunks. Adding a document whose id already exists overwrites the prior
// entry; ingesters rely on this as their refresh semantics.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	collection *chromem.Collection
	logger     *slog.Logger
}

// Open opens (or creates) the persistent vector collection at path.
// embed computes embeddings for documents added without an explicit vector
// and for query text.
func Open(path, name string, embed chromem.EmbeddingFunc, logger *slog.Logger) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector database at %q: %w", path, err)
	}

	collection, err := db.GetOrCreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening collection %q: %w", name, err)
	}

	return NewWithCollection(collection, logger), nil
}

// NewWithCollection wraps an existing collection. Tests use this with an
// in-memory chromem database.
func NewWithCollection(collection *chromem.Collection, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		collection: collection,
		logger:     logger,
	}
}

// Add inserts one entry per document in a single batch.
//
// Ids must be unique within the batch; duplicates are rejected before the
// collection is touched. Ids already present in the collection are
// overwritten (refresh). Documents without an explicit embedding are
// embedded by the collection's embedding function; the embedding fan-out
// is bounded but the resulting entries are keyed by id, so completion
// order never affects the stored result.
//
// A store failure is logged and returned; it is always fatal to the
// enclosing ingestion step.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return ErrEmptyBatch
	}

	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document with empty id in batch")
		}
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}

	entries := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		entries[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
		}
	}

	if err := s.collection.AddDocuments(ctx, entries, runtime.NumCPU()); err != nil {
		s.logger.Error("adding documents to collection failed",
			"count", len(docs),
			"first_id", docs[0].ID,
			"error", err)
		return fmt.Errorf("adding %d documents: %w", len(docs), err)
	}

	s.logger.Debug("added documents", "count", len(docs), "first_id", docs[0].ID)
	return nil
}

// Query returns the most relevant documents for the query text, ordered by
// similarity. WithDocType restricts the search to one document type; the
// filter value is validated against the recognized types. The requested
// result count is clamped to the collection size since chromem-go rejects
// nResults larger than the number of stored documents; an empty collection
// yields an empty result, not an error.
func (s *Store) Query(ctx context.Context, text string, opts ...SearchOption) ([]Result, error) {
	if text == "" {
		return nil, ErrEmptyQuery
	}

	cfg := buildSearchConfig(opts)
	if cfg.topK < 1 {
		return nil, fmt.Errorf("top-k must be positive, got %d", cfg.topK)
	}

	var where map[string]string
	if cfg.docType != "" {
		if !ValidDocType(cfg.docType) {
			return nil, fmt.Errorf("%w: %q, must be one of: %s, %s, %s",
				ErrInvalidDocType, cfg.docType, DocTypeAPIDocs, DocTypeAPISpecs, DocTypeUserGuide)
		}
		where = map[string]string{MetaDocType: cfg.docType}
	}

	n := cfg.topK
	if count := s.collection.Count(); count == 0 {
		return nil, nil
	} else if n > count {
		s.logger.Debug("clamping top-k to collection size", "requested", cfg.topK, "available", count)
		n = count
	}

	rows, err := s.collection.Query(ctx, text, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, Result{
			Document: Document{
				ID:        row.ID,
				Content:   row.Content,
				Metadata:  row.Metadata,
				Embedding: row.Embedding,
			},
			Similarity: row.Similarity,
		})
	}

	s.logger.Debug("query returned",
		"results", len(results),
		"doc_type", cfg.docType,
		"top_k", cfg.topK)

	return results, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count() int {
	return s.collection.Count()
}
