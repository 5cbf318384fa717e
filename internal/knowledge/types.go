package knowledge

// Document type constants. These are the coarse categories used to scope
// retrieval; every indexed chunk carries exactly one of them in its
// metadata under MetaDocType.
const (
	// DocTypeUserGuide marks pages ingested from the PDF user guide.
	DocTypeUserGuide = "userguide"

	// DocTypeAPIDocs marks chunks scraped from the documentation site.
	DocTypeAPIDocs = "apidocs"

	// DocTypeAPISpecs marks chunks produced from the enriched API specification.
	DocTypeAPISpecs = "apispecs"
)

// MetaDocType is the metadata key carrying the document type.
const MetaDocType = "doc_type"

// ValidDocType reports whether dt is one of the recognized document types.
func ValidDocType(dt string) bool {
	switch dt {
	case DocTypeUserGuide, DocTypeAPIDocs, DocTypeAPISpecs:
		return true
	}
	return false
}

// Document is one indexable unit: a chunk of source text with its id and
// metadata. Embedding is optional; when nil the collection's embedding
// function computes it from Content. When set, it must have been computed
// from exactly this chunk's text, never from the pre-chunked document.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Result is a single search result with its similarity score.
type Result struct {
	Document   Document
	Similarity float32
}

// SearchOption configures a query using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK    int
	docType string
}

// WithTopK sets the maximum number of results to return. Default is 10.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithDocType restricts the search to chunks of one document type.
// Without this option the whole collection is searched.
func WithDocType(dt string) SearchOption {
	return func(c *searchConfig) {
		c.docType = dt
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{topK: 10}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
