package enrich

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCorpus_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "corpus.json")

	c := NewCorpus()
	c.Append("enriched content one", "getSite", map[string]string{
		"summary": "Get Site", "tag": "Sites", "doc_type": "apispecs",
	})
	c.Append("enriched content two", "getDevices", map[string]string{
		"summary": "Get Devices", "tag": "Devices", "doc_type": "apispecs",
	})

	if err := c.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", loaded.Len())
	}
	if loaded.IDs[0] != "getSite" || loaded.IDs[1] != "getDevices" {
		t.Errorf("ids = %v", loaded.IDs)
	}
	if loaded.Documents[1] != "enriched content two" {
		t.Errorf("documents[1] = %q", loaded.Documents[1])
	}
	if loaded.Metadatas[0]["tag"] != "Sites" {
		t.Errorf("metadatas[0] = %v", loaded.Metadatas[0])
	}
}

func TestCorpus_EmptyMarshalsAsArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := NewCorpus().Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved corpus: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parsing saved corpus: %v", err)
	}
	for _, key := range []string{"documents", "ids", "metadatas"} {
		if string(raw[key]) != "[]" {
			t.Errorf("%s = %s, want []", key, raw[key])
		}
	}
}

func TestCorpus_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")

	c := NewCorpus()
	c.Append("content", "id", map[string]string{"doc_type": "apispecs"})
	if err := c.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "corpus.json" && e.Name() != "corpus.json.lock" {
			t.Errorf("unexpected file left behind: %s", e.Name())
		}
	}
}

func TestLoadCorpus_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadCorpus(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"documents":["a"],"ids":[],"metadatas":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCorpus(bad); err == nil {
		t.Error("expected error for mismatched slice lengths")
	}
}
