package apispec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleSpec = `{
  "paths": {
    "/dna/intent/api/v1/site": {
      "get": {
        "summary": "Get Site",
        "operationId": "getSite",
        "description": "Get sites by filter criteria.",
        "tags": ["Sites"],
        "parameters": [
          {"name": "name", "description": "Site name", "in": "query"},
          {"name": "limit", "description": "Max results", "in": "query", "default": "10", "required": true}
        ]
      },
      "post": {
        "summary": "Create Site",
        "operationId": "createSite",
        "description": "Creates a site.",
        "tags": ["Sites"],
        "parameters": []
      }
    },
    "/dna/intent/api/v1/device": {
      "get": {
        "summary": "Get Devices",
        "operationId": "getDevices",
        "description": "List network devices.",
        "tags": ["Devices"]
      }
    }
  }
}`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing spec file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	doc, err := Load(writeSpec(t, sampleSpec))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := doc.OperationCount(); got != 3 {
		t.Errorf("OperationCount() = %d, want 3", got)
	}

	op := doc.Paths["/dna/intent/api/v1/site"]["get"]
	if op.OperationID != "getSite" {
		t.Errorf("operationId = %q, want getSite", op.OperationID)
	}
	if op.FirstTag() != "Sites" {
		t.Errorf("FirstTag() = %q, want Sites", op.FirstTag())
	}
	if len(op.Parameters) != 2 {
		t.Fatalf("parameters = %d, want 2", len(op.Parameters))
	}
	if op.Parameters[0].Required != nil {
		t.Error("parameter without required key should have nil Required")
	}
	if op.Parameters[1].Required == nil {
		t.Error("parameter with required key should have non-nil Required")
	}
	if op.Parameters[1].Default != "10" {
		t.Errorf("default = %v, want \"10\"", op.Parameters[1].Default)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"no paths", `{"paths": {}}`, ErrNoPaths},
		{"missing paths key", `{"info": {}}`, ErrNoPaths},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSpec(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(writeSpec(t, `{not json`)); err == nil {
		t.Error("expected parse error for invalid JSON")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOperation_Validate(t *testing.T) {
	valid := Operation{
		Summary:     "Get Site",
		OperationID: "getSite",
		Description: "Get sites.",
		Tags:        []string{"Sites"},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid operation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Operation)
	}{
		{"missing operationId", func(op *Operation) { op.OperationID = "" }},
		{"missing summary", func(op *Operation) { op.Summary = "" }},
		{"missing description", func(op *Operation) { op.Description = "" }},
		{"missing tags", func(op *Operation) { op.Tags = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := valid
			tt.mutate(&op)
			if err := op.Validate(); !errors.Is(err, ErrMalformedOperation) {
				t.Errorf("Validate() = %v, want ErrMalformedOperation", err)
			}
		})
	}
}

func TestDocument_SortedIteration(t *testing.T) {
	doc, err := Load(writeSpec(t, sampleSpec))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	paths := doc.SortedPaths()
	want := []string{"/dna/intent/api/v1/device", "/dna/intent/api/v1/site"}
	if len(paths) != len(want) {
		t.Fatalf("SortedPaths() len = %d, want %d", len(paths), len(want))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}

	ops := doc.SortedOperations("/dna/intent/api/v1/site")
	if len(ops) != 2 || ops[0] != "get" || ops[1] != "post" {
		t.Errorf("SortedOperations() = %v, want [get post]", ops)
	}
}
