package app

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashRequest fingerprints a write request as sha256(method|path|body).
// A retried request replays only when all three match byte for byte.
func HashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'|'})
	h.Write([]byte(path))
	h.Write([]byte{'|'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
