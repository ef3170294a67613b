package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func draw(s *Sources) []int64 {
	out := make([]int64, 0, 12)
	for i := 0; i < 4; i++ {
		out = append(out, s.Lang.Int64(), s.Array.Int64(), s.GeneratorSeed())
	}
	return out
}

func TestSetupIsReproducible(t *testing.T) {
	first := draw(Setup(1234))
	second := draw(Setup(1234))
	assert.Equal(t, first, second)
	assert.Same(t, Current(), Current())
}

func TestDifferentSeedsDiverge(t *testing.T) {
	assert.NotEqual(t, draw(New(1)), draw(New(2)))
}

func TestStreamsAreIndependent(t *testing.T) {
	s := New(99)
	assert.NotEqual(t, s.Lang.Int64(), s.Array.Int64())
}

func TestDeterministicFlag(t *testing.T) {
	s := Setup(0)
	assert.True(t, s.Deterministic)
	assert.Equal(t, int64(0), s.Seed)
	g := s.GeneratorSeed()
	assert.GreaterOrEqual(t, g, int64(0))
	assert.Less(t, g, int64(1<<31))
}
