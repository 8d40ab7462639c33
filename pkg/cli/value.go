package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/jsonstore/pkg/encoding"
)

// LoadValue loads a JSON value from a JSON or YAML file. "-" reads stdin.
func LoadValue(path string) (any, error) {
	if path == "-" {
		return LoadValueFrom(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseValue(data, path)
}

// LoadValueFrom reads a JSON or YAML value from r.
func LoadValueFrom(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseValue(data, "")
}

// ParseValue parses data by file extension: .yaml and .yml are YAML, .json
// is JSON, anything else is tried as JSON first and then as YAML.
func ParseValue(data []byte, filename string) (any, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".json":
		v, err := encoding.DecodeJSON(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return v, nil
	default:
		if v, err := encoding.DecodeJSON(string(data)); err == nil {
			return v, nil
		}
		v, err := parseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse input (tried JSON and YAML)")
		}
		return v, nil
	}
}

func parseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	// Round trip through JSON so that the value has JSON types only.
	return Plain(v)
}

// Plain converts v to a tree of map[string]any, []any, string, bool, nil,
// int and float64, going through its JSON encoding. Struct fields follow
// their json tags. Integral numbers become int when they fit.
func Plain(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return plainNumbers(out), nil
}

func plainNumbers(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = plainNumbers(e)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = plainNumbers(e)
		}
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	default:
		return v
	}
}
