package apicall

import (
	"crypto/rand"
	"encoding/base64"
)

// boundaryPrefix makes webhook response boundaries recognizable in captures.
const boundaryPrefix = "webhookBoundary"

// boundaryEntropy is the number of random bytes in a boundary. 16 bytes of
// URL-safe randomness make a collision with payload content practically
// impossible, so emitted content is not scanned for the boundary.
const boundaryEntropy = 16

// NewBoundary generates a single-use multipart boundary. Every encoding pass
// gets a fresh boundary; boundaries are never reused across responses.
func NewBoundary() string {
	buf := make([]byte, boundaryEntropy)
	// crypto/rand.Read never returns an error as of Go 1.24.
	_, _ = rand.Read(buf)
	return boundaryPrefix + base64.RawURLEncoding.EncodeToString(buf)
}
