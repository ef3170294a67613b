package attackers

import (
	"math/rand/v2"
	"sort"
	"strings"
)

// Insertion locations for adversarial tokens
const (
	PrefixK   = "prefix_k"
	SuffixK   = "suffix_k"
	MidK      = "mid_k"
	InsertK   = "insert_k"
	PerKWords = "per_k_words"
)

// TokenCount returns how many adversarial tokens a prompt of the given word
// count takes at location loc
func TokenCount(loc string, k, words int) int {
	if loc != PerKWords {
		return k
	}
	n := words / k
	if n < 1 {
		n = 1
	}
	return n
}

// placement fixes where adversarial tokens go in one prompt. insert_k
// positions are drawn once so every candidate is compared on equal terms.
type placement struct {
	loc       string
	k         int
	words     []string
	positions []int
}

func newPlacement(loc string, k int, text string, rng *rand.Rand) *placement {
	p := &placement{
		loc:   loc,
		k:     k,
		words: strings.Fields(text),
	}
	if loc == InsertK {
		p.positions = make([]int, k)
		for i := range p.positions {
			p.positions[i] = rng.IntN(len(p.words) + 1)
		}
		sort.Ints(p.positions)
	}
	return p
}

// tokens returns the number of adversarial tokens this prompt consumes
func (p *placement) tokens() int {
	return TokenCount(p.loc, p.k, len(p.words))
}

// apply builds the perturbed prompt
func (p *placement) apply(tokens []string) string {
	if len(tokens) == 0 {
		return strings.Join(p.words, " ")
	}

	out := make([]string, 0, len(p.words)+len(tokens))
	switch p.loc {
	case PrefixK:
		out = append(out, tokens...)
		out = append(out, p.words...)
	case SuffixK:
		out = append(out, p.words...)
		out = append(out, tokens...)
	case MidK:
		mid := len(p.words) / 2
		out = append(out, p.words[:mid]...)
		out = append(out, tokens...)
		out = append(out, p.words[mid:]...)
	case InsertK:
		ti := 0
		for i := 0; i <= len(p.words); i++ {
			for ti < len(p.positions) && p.positions[ti] == i {
				out = append(out, tokens[ti%len(tokens)])
				ti++
			}
			if i < len(p.words) {
				out = append(out, p.words[i])
			}
		}
	case PerKWords:
		ti := 0
		limit := p.tokens()
		for i, w := range p.words {
			out = append(out, w)
			if (i+1)%p.k == 0 && ti < limit && ti < len(tokens) {
				out = append(out, tokens[ti])
				ti++
			}
		}
		if ti == 0 {
			out = append(out, tokens[0])
		}
	default:
		out = append(out, tokens...)
		out = append(out, p.words...)
	}
	return strings.Join(out, " ")
}
