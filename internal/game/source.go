package game

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"sync"
)

// Source yields uniformly distributed integers in [0, n).
type Source interface {
	Intn(ctx context.Context, n int) (int, error)
}

// CryptoSource draws from crypto/rand.
type CryptoSource struct{}

func (CryptoSource) Intn(_ context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range size %d", n)
	}
	r, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("csprng: %w", err)
	}
	return int(r.Int64()), nil
}

// SeededSource is a reproducible PCG stream, for tests and replays.
type SeededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource creates a deterministic source.
func NewSeededSource(seed1, seed2 uint64) *SeededSource {
	return &SeededSource{rng: mrand.New(mrand.NewPCG(seed1, seed2))}
}

func (s *SeededSource) Intn(_ context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range size %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n), nil
}
