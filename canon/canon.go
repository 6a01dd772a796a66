// Package canon provides deterministic, key-sorted JSON encoding and SHA-256
// digests used to seal and verify receipts.
//
// Canonicalization follows RFC 8785 (the JSON Canonicalization Scheme): object
// keys are sorted lexicographically by UTF-8 codepoint at every depth, there is
// no insignificant whitespace, and numbers/strings use the canonical forms JCS
// defines. Two values that differ only in map key insertion order always
// produce identical canonical bytes.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JSON returns the canonical JSON encoding of v.
//
// v is first marshaled with the standard library (so struct tags and custom
// MarshalJSON methods are honored), then passed through the JCS transform to
// sort keys and strip formatting nondeterminism. The only error this can
// return is a marshal failure from non-serializable content; the transform
// step is total over valid JSON.
func JSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canon: transform: %w", err)
	}
	return canonical, nil
}

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Hash returns the SHA-256 hex digest of the canonical JSON encoding of v.
func Hash(v any) (string, error) {
	b, err := JSON(v)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}
