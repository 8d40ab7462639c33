package cli

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"
)

// Query runs a jq expression over v and returns every value it yields.
// v is converted with Plain first, so decoded JSON and structs with json
// tags are both accepted.
func Query(ctx context.Context, v any, expr string) ([]any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}
	input, err := Plain(v)
	if err != nil {
		return nil, fmt.Errorf("query input: %w", err)
	}

	var out []any
	iter := code.RunWithContext(ctx, input)
	for {
		item, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := item.(error); ok {
			if err, ok := err.(*gojq.HaltError); ok && err.Value() == nil {
				break
			}
			return nil, fmt.Errorf("query %q: %w", expr, err)
		}
		out = append(out, item)
	}
	return out, nil
}
