// Package apispec loads the OpenAPI-style specification document that
// drives the enrichment pipeline. Only the fields the pipeline consumes
// are modeled; everything else in the file is ignored.
package apispec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

var (
	// ErrNoPaths indicates the specification has no paths mapping.
	ErrNoPaths = errors.New("specification has no paths")

	// ErrMalformedOperation indicates an operation is missing a field
	// the enrichment pipeline depends on.
	ErrMalformedOperation = errors.New("malformed operation")
)

// Parameter is one query parameter of an API operation.
//
// Required tracks key presence, not value: an operation author writing
// "required": false still marks the parameter as required in the rendered
// description, matching how the upstream specification files use the key.
type Parameter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	In          string `json:"in"`
	Default     any    `json:"default,omitempty"`
	Required    *bool  `json:"required,omitempty"`
}

// Operation is one REST operation under a path.
type Operation struct {
	Summary     string      `json:"summary"`
	OperationID string      `json:"operationId"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	Parameters  []Parameter `json:"parameters"`
}

// FirstTag returns the operation's first declared tag, or "" if none.
func (op Operation) FirstTag() string {
	if len(op.Tags) == 0 {
		return ""
	}
	return op.Tags[0]
}

// Validate reports whether the operation carries every field the
// enrichment pipeline reads. A nil Parameters slice is fine; it renders
// as an empty parameter block.
func (op Operation) Validate() error {
	switch {
	case op.OperationID == "":
		return fmt.Errorf("%w: missing operationId", ErrMalformedOperation)
	case op.Summary == "":
		return fmt.Errorf("%w: missing summary (operationId %q)", ErrMalformedOperation, op.OperationID)
	case op.Description == "":
		return fmt.Errorf("%w: missing description (operationId %q)", ErrMalformedOperation, op.OperationID)
	case len(op.Tags) == 0:
		return fmt.Errorf("%w: missing tags (operationId %q)", ErrMalformedOperation, op.OperationID)
	}
	return nil
}

// Document is the parsed specification: a paths mapping where each path
// maps REST operation names (get, post, ...) to their operation objects.
type Document struct {
	Paths map[string]map[string]Operation `json:"paths"`
}

// Load reads and parses the specification file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading specification: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing specification %q: %w", path, err)
	}

	if len(doc.Paths) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoPaths, path)
	}

	return &doc, nil
}

// SortedPaths returns the document's paths in lexical order so that
// walking the specification is deterministic run to run.
func (d *Document) SortedPaths() []string {
	paths := make([]string, 0, len(d.Paths))
	for p := range d.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// SortedOperations returns the operation names under one path in lexical
// order.
func (d *Document) SortedOperations(path string) []string {
	ops := make([]string, 0, len(d.Paths[path]))
	for op := range d.Paths[path] {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// OperationCount returns the total number of operations across all paths.
func (d *Document) OperationCount() int {
	n := 0
	for _, ops := range d.Paths {
		n += len(ops)
	}
	return n
}
