package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/apichat0/apichat/internal/chunk"
	"github.com/apichat0/apichat/internal/knowledge"
)

// PDFResult summarizes one user-guide import.
type PDFResult struct {
	Pages   int // pages indexed
	Dropped int // blank pages skipped
}

// ImportPDF indexes the user guide PDF at path, one entry per page.
// Blank pages are dropped; the remaining pages keep their order, so
// userguide_{i} is the i-th non-blank page. Embeddings are computed
// here, page by page, and handed to the store alongside the text.
//
// Any open or extraction failure aborts the import; nothing indexed so
// far is rolled back, since a rerun overwrites under the same ids.
func (i *Ingester) ImportPDF(ctx context.Context, path string) (*PDFResult, error) {
	i.logger.Info("importing user guide", "path", path)

	file, reader, err := pdf.Open(path)
	if err != nil {
		i.logger.Error("opening user guide failed", "path", path, "error", err)
		return nil, fmt.Errorf("opening pdf %q: %w", path, err)
	}
	defer file.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for n := 1; n <= total; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			i.logger.Error("extracting page failed", "path", path, "page", n, "error", err)
			return nil, fmt.Errorf("extracting page %d of %q: %w", n, path, err)
		}
		pages = append(pages, text)
	}

	kept, dropped := dropBlankPages(pages)
	i.logger.Info("extracted pages", "total", total, "kept", len(kept), "dropped", dropped)

	docs := make([]knowledge.Document, len(kept))
	ids := chunk.IDs("userguide", len(kept))
	for j, text := range kept {
		embedding, err := i.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding page %s: %w", ids[j], err)
		}
		docs[j] = knowledge.Document{
			ID:        ids[j],
			Content:   text,
			Metadata:  map[string]string{knowledge.MetaDocType: knowledge.DocTypeUserGuide},
			Embedding: embedding,
		}
	}

	if len(docs) > 0 {
		if err := i.store.Add(ctx, docs); err != nil {
			return nil, fmt.Errorf("indexing user guide: %w", err)
		}
	}

	i.logger.Info("user guide indexed", "pages", len(docs))
	return &PDFResult{Pages: len(docs), Dropped: dropped}, nil
}

// dropBlankPages removes empty and whitespace-only pages, preserving the
// order of the rest.
func dropBlankPages(pages []string) (kept []string, dropped int) {
	for _, p := range pages {
		if strings.TrimSpace(p) == "" {
			dropped++
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}
