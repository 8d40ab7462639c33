package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQuery(t *testing.T) {
	doc := map[string]any{
		"name":  "gizmo",
		"count": json.Number("3"),
		"tags":  []any{"a", "b"},
	}

	tests := []struct {
		expr string
		want []any
	}{
		{".name", []any{"gizmo"}},
		{".count + 1", []any{4}},
		{".tags[]", []any{"a", "b"}},
		{".missing", []any{nil}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Query(context.Background(), doc, tt.expr)
			if err != nil {
				t.Fatalf("Query error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Query(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestQuery_Errors(t *testing.T) {
	if _, err := Query(context.Background(), nil, ".["); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Query(context.Background(), "text", ".foo"); err == nil {
		t.Error("expected runtime error indexing a string")
	}
}
