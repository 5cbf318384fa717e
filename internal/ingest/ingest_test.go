package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/apichat0/apichat/internal/enrich"
	"github.com/apichat0/apichat/internal/knowledge"
	"github.com/apichat0/apichat/internal/log"
	"github.com/apichat0/apichat/internal/testutil"
)

func newTestIngester(t *testing.T, mutate func(*Config)) (*Ingester, *knowledge.Store) {
	t.Helper()

	embedder := testutil.NewMockEmbedder(8)
	collection, err := chromem.NewDB().GetOrCreateCollection("ingest-test", nil, embedder.EmbeddingFunc())
	if err != nil {
		t.Fatalf("creating collection: %v", err)
	}
	store := knowledge.NewWithCollection(collection, log.NewNop())

	cfg := Config{
		Store:       store,
		Embed:       embedder.EmbeddingFunc(),
		Logger:      log.NewNop(),
		ScrapeDelay: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	ing, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ing, store
}

func TestNew_Validation(t *testing.T) {
	embedder := testutil.NewMockEmbedder(4)
	collection, err := chromem.NewDB().GetOrCreateCollection("v", nil, embedder.EmbeddingFunc())
	if err != nil {
		t.Fatal(err)
	}
	store := knowledge.NewWithCollection(collection, log.NewNop())

	if _, err := New(Config{Embed: embedder.EmbeddingFunc()}); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := New(Config{Store: store}); err == nil {
		t.Error("expected error for nil embedding function")
	}
}

func TestDropBlankPages(t *testing.T) {
	kept, dropped := dropBlankPages([]string{"intro", "", "   \n\t", "chapter one", ""})
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
	if len(kept) != 2 || kept[0] != "intro" || kept[1] != "chapter one" {
		t.Errorf("kept = %v", kept)
	}
}

func TestImportPDF_MissingFile(t *testing.T) {
	ing, store := newTestIngester(t, nil)
	_, err := ing.ImportPDF(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("expected error for missing pdf")
	}
	if store.Count() != 0 {
		t.Errorf("store.Count() = %d after failed import, want 0", store.Count())
	}
}

func TestImportWebDocs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/overview", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><article><h1>Overview</h1><p>` +
			strings.Repeat("The platform exposes intent APIs. ", 30) +
			`</p></article></body></html>`))
	})
	mux.HandleFunc("/docs/sites", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><article><p>Sites group network devices.</p></article></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ing, store := newTestIngester(t, func(c *Config) {
		c.DocsBaseURL = server.URL + "/docs/"
		c.DocsSections = []string{"overview", "sites", "does-not-exist"}
	})

	result, err := ing.ImportWebDocs(context.Background())
	if err != nil {
		t.Fatalf("ImportWebDocs() error = %v", err)
	}

	if result.Sections != 2 {
		t.Errorf("Sections = %d, want 2", result.Sections)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1 (missing section must not abort the run)", result.Failed)
	}
	if store.Count() != result.Chunks {
		t.Errorf("store.Count() = %d, want %d", store.Count(), result.Chunks)
	}

	results, err := store.Query(context.Background(), "intent APIs",
		knowledge.WithTopK(50), knowledge.WithDocType(knowledge.DocTypeAPIDocs))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != result.Chunks {
		t.Fatalf("indexed %d apidocs chunks, query returned %d", result.Chunks, len(results))
	}
	sawOverview := false
	for _, r := range results {
		section := r.Document.ID[:strings.LastIndex(r.Document.ID, "_")]
		if section != "overview" && section != "sites" {
			t.Errorf("unexpected chunk id %q", r.Document.ID)
		}
		if section == "overview" {
			sawOverview = true
		}
	}
	if !sawOverview {
		t.Error("no overview chunks indexed")
	}
}

func TestImportWebDocs_ChunkSize(t *testing.T) {
	longText := strings.Repeat("x", 1200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><article><p>" + longText + "</p></article></body></html>"))
	}))
	defer server.Close()

	ing, _ := newTestIngester(t, func(c *Config) {
		c.DocsBaseURL = server.URL + "/"
		c.DocsSections = []string{"page"}
		c.ChunkSize = 512
	})

	result, err := ing.ImportWebDocs(context.Background())
	if err != nil {
		t.Fatalf("ImportWebDocs() error = %v", err)
	}
	if result.Chunks < 3 {
		t.Errorf("Chunks = %d, want at least 3 for 1200 chars at size 512", result.Chunks)
	}
}

func TestImportCached(t *testing.T) {
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	corpus := enrich.NewCorpus()
	corpus.Append(strings.Repeat("enriched site documentation. ", 30), "getSite", map[string]string{
		"summary": "Get Site", "tag": "Sites", knowledge.MetaDocType: knowledge.DocTypeAPISpecs,
	})
	corpus.Append("short entry", "getDevices", map[string]string{
		"summary": "Get Devices", "tag": "Devices", knowledge.MetaDocType: knowledge.DocTypeAPISpecs,
	})
	if err := corpus.Save(corpusPath); err != nil {
		t.Fatalf("saving corpus: %v", err)
	}

	ing, store := newTestIngester(t, nil)
	result, err := ing.ImportCached(context.Background(), corpusPath)
	if err != nil {
		t.Fatalf("ImportCached() error = %v", err)
	}

	if result.Entries != 2 {
		t.Errorf("Entries = %d, want 2", result.Entries)
	}
	if store.Count() != result.Chunks {
		t.Errorf("store.Count() = %d, want %d", store.Count(), result.Chunks)
	}

	results, err := store.Query(context.Background(), "site documentation",
		knowledge.WithTopK(50), knowledge.WithDocType(knowledge.DocTypeAPISpecs))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	for _, r := range results {
		if !strings.HasPrefix(r.Document.ID, "getSite_") && !strings.HasPrefix(r.Document.ID, "getDevices_") {
			t.Errorf("unexpected chunk id %q", r.Document.ID)
		}
		if r.Document.Metadata["summary"] == "" {
			t.Errorf("chunk %q lost its metadata", r.Document.ID)
		}
	}
}

func TestImportCached_ReplayIdempotent(t *testing.T) {
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	corpus := enrich.NewCorpus()
	corpus.Append(strings.Repeat("enriched site documentation. ", 30), "getSite", map[string]string{
		"summary": "Get Site", "tag": "Sites", knowledge.MetaDocType: knowledge.DocTypeAPISpecs,
	})
	if err := corpus.Save(corpusPath); err != nil {
		t.Fatalf("saving corpus: %v", err)
	}

	ing, store := newTestIngester(t, nil)

	snapshot := func() map[string]map[string]string {
		t.Helper()
		results, err := store.Query(context.Background(), "site documentation",
			knowledge.WithTopK(50), knowledge.WithDocType(knowledge.DocTypeAPISpecs))
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		snap := make(map[string]map[string]string, len(results))
		for _, r := range results {
			snap[r.Document.ID] = r.Document.Metadata
		}
		return snap
	}

	first, err := ing.ImportCached(context.Background(), corpusPath)
	if err != nil {
		t.Fatalf("first ImportCached() error = %v", err)
	}
	before := snapshot()

	second, err := ing.ImportCached(context.Background(), corpusPath)
	if err != nil {
		t.Fatalf("second ImportCached() error = %v", err)
	}
	after := snapshot()

	if second.Entries != first.Entries || second.Chunks != first.Chunks {
		t.Errorf("second run reported %+v, first %+v", second, first)
	}
	if store.Count() != first.Chunks {
		t.Errorf("store.Count() = %d after replay, want %d", store.Count(), first.Chunks)
	}
	if len(after) != len(before) {
		t.Fatalf("replay changed chunk set: %d ids before, %d after", len(before), len(after))
	}
	for id, meta := range before {
		got, ok := after[id]
		if !ok {
			t.Errorf("chunk %q missing after replay", id)
			continue
		}
		for k, v := range meta {
			if got[k] != v {
				t.Errorf("chunk %q metadata[%q] = %q after replay, want %q", id, k, got[k], v)
			}
		}
	}
}

func TestImportCached_MissingFile(t *testing.T) {
	ing, _ := newTestIngester(t, nil)
	if _, err := ing.ImportCached(context.Background(), filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing corpus")
	}
}
