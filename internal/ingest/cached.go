package ingest

import (
	"context"
	"fmt"
	"maps"

	"github.com/apichat0/apichat/internal/chunk"
	"github.com/apichat0/apichat/internal/enrich"
	"github.com/apichat0/apichat/internal/knowledge"
)

// CachedResult summarizes one cached-corpus import.
type CachedResult struct {
	Entries int // corpus entries re-indexed
	Chunks  int // chunks added
}

// ImportCached re-indexes a previously generated enriched-specification
// corpus without touching the LLM. Each entry's content is re-chunked
// and added as {operationId}_{index} with the entry's stored metadata,
// overwriting whatever an earlier run left under those ids.
func (i *Ingester) ImportCached(ctx context.Context, path string) (*CachedResult, error) {
	corpus, err := enrich.LoadCorpus(path)
	if err != nil {
		return nil, fmt.Errorf("loading cached corpus: %w", err)
	}

	i.logger.Info("importing cached corpus", "path", path, "entries", corpus.Len())

	result := &CachedResult{}
	for n := range corpus.Documents {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		id := corpus.IDs[n]
		chunks := chunk.Split(corpus.Documents[n], i.chunkSize)
		ids := chunk.IDs(id, len(chunks))

		docs := make([]knowledge.Document, len(chunks))
		for j := range chunks {
			docs[j] = knowledge.Document{
				ID:       ids[j],
				Content:  chunks[j],
				Metadata: maps.Clone(corpus.Metadatas[n]),
			}
		}
		if len(docs) == 0 {
			i.logger.Warn("corpus entry has no content", "id", id)
			continue
		}

		if err := i.store.Add(ctx, docs); err != nil {
			return result, fmt.Errorf("indexing corpus entry %q: %w", id, err)
		}

		result.Entries++
		result.Chunks += len(docs)
		i.logger.Debug("corpus entry indexed", "id", id, "chunks", len(docs),
			"progress", fmt.Sprintf("%d/%d", n+1, corpus.Len()))
	}

	i.logger.Info("cached corpus indexed", "entries", result.Entries, "chunks", result.Chunks)
	return result, nil
}
