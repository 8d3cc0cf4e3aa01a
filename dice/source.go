package dice

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// Source is the randomness provider for rolls and rerolls.
//
// A Source is owned by a single call and is not shared between requests,
// so implementations need not be safe for concurrent use.
type Source interface {
	// IntN returns a random int in [0, n). n must be positive.
	IntN(n int) int
}

// NewSource returns a Source seeded from crypto/rand.
func NewSource() Source {
	var seed [32]byte
	// crypto/rand.Read does not return an error on supported platforms.
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// NewSeededSource returns a deterministic Source. The same seed always
// produces the same sequence of faces.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// face draws one uniformly distributed face value in [MinFace, MaxFace].
func face(src Source) int {
	return src.IntN(MaxFace-MinFace+1) + MinFace
}
