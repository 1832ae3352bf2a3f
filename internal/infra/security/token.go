package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// minTokenSize keeps session tokens unguessable even when misconfigured.
const minTokenSize = 16

type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = 32
	}
	if size < minTokenSize {
		size = minTokenSize
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
