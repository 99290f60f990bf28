// Package dice provides the randomness abstraction and the difficulty-check
// formula used by every random-outcome action in the realm core.
package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Source is the randomness provider for checks and rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// CryptoSource is a Source backed by crypto/rand. It is safe for concurrent use.
type CryptoSource struct{}

// NewCryptoSource creates a CryptoSource.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

// Intn returns a uniformly distributed int in [0, n).
//
// Precondition: n > 0; panics otherwise.
func (s *CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("dice: Intn precondition violated: n must be > 0, got %d", n))
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("dice: crypto/rand failure: %v", err))
	}
	return int(v.Int64())
}
