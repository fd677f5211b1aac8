package dice

import (
	"math/rand"
	"sync"
)

// Source produces one pair of dice per call. Injected into the session so
// tests can fix the sequence with a seed.
type Source interface {
	Roll() (int, int)
}

type randSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a Source backed by the given seed.
func NewSource(seed int64) Source {
	return &randSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *randSource) Roll() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(6) + 1, s.rng.Intn(6) + 1
}

// Fixed is a Source that replays a scripted sequence of rolls, for tests.
// Once the script is exhausted it repeats the last pair.
type Fixed struct {
	mu    sync.Mutex
	Rolls [][2]int
	next  int
}

func (f *Fixed) Roll() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Rolls) == 0 {
		return 1, 1
	}
	i := f.next
	if i >= len(f.Rolls) {
		i = len(f.Rolls) - 1
	} else {
		f.next++
	}
	return f.Rolls[i][0], f.Rolls[i][1]
}
