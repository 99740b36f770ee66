package store

import (
	"crypto/sha256"
	"fmt"
)

// ComputeContentHash hashes a script's content together with the
// fingerprint of the schema it was evaluated against. A stored document
// whose hash matches needs no re-evaluation.
func ComputeContentHash(content []byte, schemaFingerprint string) string {
	h := sha256.New()
	fmt.Fprintf(h, "schema:%s\n", schemaFingerprint)
	h.Write(content)
	return fmt.Sprintf("%x", h.Sum(nil))
}
