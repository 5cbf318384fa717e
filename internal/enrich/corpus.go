package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Corpus is the un-chunked enriched documentation kept alongside the
// vector collection. It lets later runs re-index without repeating the
// LLM generation. The three slices are parallel: entry i is
// Documents[i] with id IDs[i] and metadata Metadatas[i].
type Corpus struct {
	Documents []string            `json:"documents"`
	IDs       []string            `json:"ids"`
	Metadatas []map[string]string `json:"metadatas"`
}

// NewCorpus returns an empty corpus whose slices marshal as [] rather
// than null.
func NewCorpus() *Corpus {
	return &Corpus{
		Documents: []string{},
		IDs:       []string{},
		Metadatas: []map[string]string{},
	}
}

// Append adds one enriched entry.
func (c *Corpus) Append(content, id string, metadata map[string]string) {
	c.Documents = append(c.Documents, content)
	c.IDs = append(c.IDs, id)
	c.Metadatas = append(c.Metadatas, metadata)
}

// Len returns the number of entries.
func (c *Corpus) Len() int {
	return len(c.Documents)
}

// LoadCorpus reads a previously saved corpus from path.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing corpus %q: %w", path, err)
	}

	if len(c.Documents) != len(c.IDs) || len(c.Documents) != len(c.Metadatas) {
		return nil, fmt.Errorf("corpus %q has mismatched slice lengths: %d documents, %d ids, %d metadatas",
			path, len(c.Documents), len(c.IDs), len(c.Metadatas))
	}

	return &c, nil
}

// Save writes the corpus to path atomically: the JSON goes to a temp file
// in the same directory and is renamed into place, under an advisory file
// lock so concurrent runs never interleave writes.
func (c *Corpus) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking corpus file: %w", err)
	}
	defer lock.Unlock()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp corpus file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp corpus file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing corpus file: %w", err)
	}

	return nil
}
