package crypto

import (
	"crypto/rand"
	"fmt"
)

// RandomSource produces the random material used for Request Authenticators
// and password salts. The default source reads from crypto/rand; tests may
// substitute a deterministic source.
type RandomSource interface {
	Read(p []byte) (int, error)
}

type systemRandom struct{}

func (systemRandom) Read(p []byte) (int, error) {
	return rand.Read(p)
}

// SystemRandom returns a RandomSource backed by the operating system CSPRNG.
func SystemRandom() RandomSource {
	return systemRandom{}
}

// RandomBytes fills a fresh buffer of the given size from the source.
func RandomBytes(src RandomSource, size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := src.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}
