package core

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Digest computes a content identity for v: xxhash64 over its JSON encoding.
// encoding/json sorts map keys, so equal values give equal digests.
func Digest(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding value for digest: %w", err)
	}
	return DigestBytes(b), nil
}

// DigestBytes computes the content identity of raw bytes.
func DigestBytes(b []byte) string {
	return fmt.Sprintf("xxh64:%016x", xxhash.Sum64(b))
}
