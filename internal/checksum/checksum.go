package checksum

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/starford/folio/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Note returns the digest of the user-editable fields of n.
// Fields are NUL-separated so that ("ab","c") and ("a","bc") differ.
func Note(n models.Note) string {
	h := sha256.New()
	h.Write([]byte(n.Title))
	h.Write([]byte{0})
	h.Write([]byte(n.Content))
	for _, t := range n.Tags {
		h.Write([]byte{0})
		h.Write([]byte(t))
	}
	h.Write([]byte{0})
	h.Write([]byte(n.SourceDocumentID))
	return hex.EncodeToString(h.Sum(nil))
}
