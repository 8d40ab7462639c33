// Package encoding provides the value codec and key encoders shared by the
// jsonstore backends.
//
// Values are stored as JSON text. Keys for flat stores whose key alphabet is
// restricted are derived from logical paths with one of the base64
// [KeyEncoder] implementations.
package encoding

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// KeyEncoder maps a logical path to a backend-safe key.
//
// Implementations must be injective: two distinct paths never encode to the
// same key. There is no decoder; the index, not the raw keyspace, is the
// source of truth for which paths exist.
type KeyEncoder interface {
	EncodeKey(path string) string
}

// KeyEncoderFunc adapts a plain function to a KeyEncoder.
type KeyEncoderFunc func(path string) string

// EncodeKey implements KeyEncoder.
func (f KeyEncoderFunc) EncodeKey(path string) string { return f(path) }

// Base64Key encodes paths with the standard base64 alphabet. Its output never
// contains '_', so it cannot collide with underscore-prefixed reserved keys.
var Base64Key KeyEncoder = KeyEncoderFunc(func(path string) string {
	return StdBase64Data(path).String()
})

// Base64URLKey encodes paths with the padded URL-safe base64 alphabet. Its
// output length is always a multiple of four.
var Base64URLKey KeyEncoder = KeyEncoderFunc(func(path string) string {
	return URLBase64Data(path).String()
})

// StdBase64Data is a byte slice rendered as standard base64.
type StdBase64Data []byte

// String returns the base64-encoded string representation.
func (b StdBase64Data) String() string {
	return base64.StdEncoding.EncodeToString(b)
}

// URLBase64Data is a byte slice rendered as padded URL-safe base64.
type URLBase64Data []byte

// String returns the URL-safe base64-encoded string representation.
func (b URLBase64Data) String() string {
	return base64.URLEncoding.EncodeToString(b)
}

// HexData is a byte slice decoded from hexadecimal text.
type HexData []byte

// ParseHexData decodes a hexadecimal string such as an encryption key taken
// from a config file.
func ParseHexData(s string) (HexData, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return HexData(b), nil
}
