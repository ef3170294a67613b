package seed

import (
	"math/rand/v2"
	"sync"
)

// Stream identifiers mixed into the seed so each source draws an independent sequence
const (
	streamLang uint64 = iota + 1
	streamArray
	streamTensor
)

// Sources holds every random source used during a run
type Sources struct {
	Seed int64

	// Lang drives general-purpose choices such as candidate token picks
	Lang *rand.Rand

	// Array drives bulk sampling such as vocabulary pools and insert positions
	Array *rand.Rand

	// Tensor produces the generator seeds sent to the inference backend
	Tensor *rand.Rand

	// Deterministic asks the backend to disable non-deterministic kernels
	Deterministic bool
}

var (
	mu      sync.Mutex
	current = New(0)
)

// New builds sources for seed without touching the process-wide sources
func New(seed int64) *Sources {
	s := uint64(seed)
	return &Sources{
		Seed:          seed,
		Lang:          rand.New(rand.NewPCG(s, streamLang)),
		Array:         rand.New(rand.NewPCG(s, streamArray)),
		Tensor:        rand.New(rand.NewPCG(s, streamTensor)),
		Deterministic: true,
	}
}

// Setup reseeds the process-wide sources. Calling it twice with the same
// seed yields identical subsequent sequences.
func Setup(seed int64) *Sources {
	mu.Lock()
	defer mu.Unlock()
	current = New(seed)
	return current
}

// Current returns the process-wide sources
func Current() *Sources {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// GeneratorSeed draws a non-negative seed for a backend generator
func (s *Sources) GeneratorSeed() int64 {
	return s.Tensor.Int64N(1 << 31)
}
