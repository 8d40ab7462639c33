package encoding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDecode is returned when stored text is not valid serialized JSON.
var ErrDecode = errors.New("encoding: invalid json")

// EncodeJSON serializes v to its compact JSON text.
func EncodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding: marshal: %w", err)
	}
	return string(b), nil
}

// EncodeJSONIndent serializes v to indented JSON text.
func EncodeJSONIndent(v any, indent string) (string, error) {
	b, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return "", fmt.Errorf("encoding: marshal: %w", err)
	}
	return string(b), nil
}

// DecodeJSON parses JSON text into a generic value. Numbers are kept as
// json.Number so that encode(decode(s)) does not lose precision.
//
// Exactly one JSON value is accepted; trailing data is an error.
func DecodeJSON(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrDecode)
	}
	return v, nil
}

// DecodeJSONInto parses JSON text into out.
func DecodeJSONInto(s string, out any) error {
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
