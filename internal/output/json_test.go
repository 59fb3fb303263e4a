package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shivank21/rlconf/internal/lint"
)

func TestJSONFormatter_FieldNamesAndValues(t *testing.T) {
	f := &JSONFormatter{}
	var buf bytes.Buffer

	if err := f.Format(&buf, []lint.Diagnostic{sampleDiag()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rawResult []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rawResult); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	if len(rawResult) != 1 {
		t.Fatalf("expected 1 element, got %d", len(rawResult))
	}

	item := rawResult[0]
	expectedFields := []string{"file", "line", "column", "rule", "name", "severity", "message"}
	for _, field := range expectedFields {
		if _, ok := item[field]; !ok {
			t.Errorf("missing field %q in JSON output", field)
		}
	}

	if item["file"] != "configs/iql_offline.yaml" {
		t.Errorf("file: got %v", item["file"])
	}
	// JSON numbers are float64 when unmarshaled into any
	if item["line"] != float64(12) {
		t.Errorf("line: got %v, want 12", item["line"])
	}
	if item["rule"] != "RLC001" {
		t.Errorf("rule: got %v, want RLC001", item["rule"])
	}
	if item["name"] != "unresolved-interpolation" {
		t.Errorf("name: got %v", item["name"])
	}
	if item["severity"] != "error" {
		t.Errorf("severity: got %v, want error", item["severity"])
	}
}

func TestJSONFormatter_EmptyDiagnostics(t *testing.T) {
	f := &JSONFormatter{}
	var buf bytes.Buffer

	if err := f.Format(&buf, []lint.Diagnostic{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Must be [] rather than null.
	trimmed := bytes.TrimSpace(buf.Bytes())
	if string(trimmed) != "[]" {
		t.Errorf("expected raw output to be %q, got %q", "[]", string(trimmed))
	}
}

func TestJSONFormatter_MultipleDiagnostics(t *testing.T) {
	f := &JSONFormatter{}
	var buf bytes.Buffer

	diagnostics := []lint.Diagnostic{
		sampleDiag(),
		{
			File:     ".github/workflows/nightly.yml",
			Line:     4,
			Column:   1,
			RuleID:   "RLC007",
			RuleName: "concurrency-cancellation",
			Severity: lint.Warning,
			Message:  "workflow has no concurrency policy",
		},
	}

	if err := f.Format(&buf, diagnostics); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result []jsonDiagnostic
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(result))
	}
	if result[1].Rule != "RLC007" || result[1].Severity != "warning" {
		t.Errorf("second diagnostic: got %+v", result[1])
	}
}

func TestJSONFormatter_ImplementsFormatter(t *testing.T) {
	var _ Formatter = &JSONFormatter{}
}
