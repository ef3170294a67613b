package attackers

import (
	"context"

	"github.com/picogrid/mu-attack/pkg/attack"
	"github.com/picogrid/mu-attack/pkg/logger"
	"github.com/picogrid/mu-attack/pkg/tasks"
)

// Names of the registered attackers. text_grad, hard_prompt and
// hard_prompt_multi need gradients through the text encoder and are served
// by no implementation here.
const (
	NoAttack   = "no_attack"
	Random     = "random"
	GCG        = "gcg"
	SeedSearch = "seed_search"
)

// GCGConfig adds the attacker.gcg section
type GCGConfig struct {
	BaseConfig    `mapstructure:",squash"`
	CandidateSize int `mapstructure:"candidate_size" validate:"gte=1"`
	SearchSize    int `mapstructure:"search_size" validate:"gte=1"`
}

// NoAttackConfig adds the attacker.no_attack section
type NoAttackConfig struct {
	BaseConfig  `mapstructure:",squash"`
	DatasetPath string `mapstructure:"dataset_path" validate:"required"`
}

// newNoAttack evaluates the prompts of its own dataset unchanged, which
// measures how often the unlearned model still produces the concept
func newNoAttack(kw attack.Kwargs) (attack.Attacker, error) {
	var cfg NoAttackConfig
	if err := kw.Decode(&cfg); err != nil {
		return nil, err
	}
	return &base{
		name: NoAttack,
		cfg:  cfg.BaseConfig,
		prompts: func() ([]attack.Prompt, error) {
			return tasks.LoadPrompts(cfg.DatasetPath)
		},
		search:   evaluateOnce,
		progress: true,
	}, nil
}

func evaluateOnce(ctx context.Context, s *session) (*Outcome, error) {
	sc, err := s.evaluate(ctx, nil, attack.NoSeed)
	if err != nil {
		return nil, err
	}
	if err := s.record(0, nil, sc); err != nil {
		return nil, err
	}
	return s.outcome(nil, sc, 1), nil
}

func newRandom(kw attack.Kwargs) (attack.Attacker, error) {
	var cfg BaseConfig
	if err := kw.Decode(&cfg); err != nil {
		return nil, err
	}
	return &base{
		name:       Random,
		cfg:        cfg,
		needsVocab: true,
		search:     randomSearch,
	}, nil
}

// randomSearch keeps the best of iteration independently drawn token sets
func randomSearch(ctx context.Context, s *session) (*Outcome, error) {
	var (
		best       *score
		bestTokens []string
		iterations int
	)
	for it := 1; it <= s.cfg.Iteration; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations = it

		tokens := s.sampleTokens(s.width)
		sc, err := s.evaluate(ctx, tokens, attack.NoSeed)
		if err != nil {
			return nil, err
		}
		if best == nil || sc.success || sc.loss < best.loss {
			best, bestTokens = sc, tokens
		}
		if err := s.record(it, bestTokens, best); err != nil {
			return nil, err
		}
		if best.success {
			break
		}
	}
	return s.outcome(bestTokens, best, iterations), nil
}

func newGCG(kw attack.Kwargs) (attack.Attacker, error) {
	var cfg GCGConfig
	if err := kw.Decode(&cfg); err != nil {
		return nil, err
	}
	return &base{
		name:       GCG,
		cfg:        cfg.BaseConfig,
		needsVocab: true,
		search: func(ctx context.Context, s *session) (*Outcome, error) {
			return gcgSearch(ctx, s, cfg.CandidateSize, cfg.SearchSize)
		},
	}, nil
}

// gcgSearch is zeroth-order greedy coordinate search: each iteration tries
// candidateSize single-token substitutions drawn from a fresh pool of
// searchSize vocabulary tokens and keeps the best one if it improves
func gcgSearch(ctx context.Context, s *session, candidateSize, searchSize int) (*Outcome, error) {
	current := s.sampleTokens(s.width)
	cur, err := s.evaluate(ctx, current, attack.NoSeed)
	if err != nil {
		return nil, err
	}
	if err := s.record(0, current, cur); err != nil {
		return nil, err
	}

	iterations := 0
	for it := 1; it <= s.cfg.Iteration && !cur.success; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations = it

		pool := s.sampleTokens(searchSize)
		var (
			best       *score
			bestTokens []string
		)
		for c := 0; c < candidateSize; c++ {
			pos := s.src.Lang.IntN(len(current))
			if s.cfg.Sequential {
				pos = (it - 1) % len(current)
			}
			candidate := append([]string(nil), current...)
			candidate[pos] = pool[s.src.Lang.IntN(len(pool))]

			sc, err := s.evaluate(ctx, candidate, attack.NoSeed)
			if err != nil {
				return nil, err
			}
			if best == nil || sc.success || sc.loss < best.loss {
				best, bestTokens = sc, candidate
			}
			if sc.success {
				break
			}
		}

		if best.success || best.loss < cur.loss {
			current, cur = bestTokens, best
		}
		if err := s.record(it, current, cur); err != nil {
			return nil, err
		}
	}
	return s.outcome(current, cur, iterations), nil
}

func newSeedSearch(kw attack.Kwargs) (attack.Attacker, error) {
	var cfg BaseConfig
	if err := kw.Decode(&cfg); err != nil {
		return nil, err
	}
	return &base{
		name:   SeedSearch,
		cfg:    cfg,
		search: seedSearch,
	}, nil
}

// seedSearch keeps the prompt unchanged and looks for a generator seed that
// brings the concept back. The first try uses the prompts' own seeds, the
// rest are drawn from the tensor stream.
func seedSearch(ctx context.Context, s *session) (*Outcome, error) {
	var (
		best       *score
		iterations int
	)
	for i := 0; i < s.cfg.SeedIteration; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations = i + 1

		generator := attack.NoSeed
		if i > 0 {
			generator = s.src.GeneratorSeed()
		}
		sc, err := s.evaluate(ctx, nil, generator)
		if err != nil {
			return nil, err
		}
		if best == nil || sc.success || sc.loss < best.loss {
			best = sc
		}
		if err := s.record(iterations, nil, best); err != nil {
			return nil, err
		}
		if best.success {
			logger.Debugf("[%s] seed %d regenerates the concept", s.name, best.seed)
			break
		}
	}
	return s.outcome(nil, best, iterations), nil
}

func init() {
	attack.Attackers.MustRegister(NoAttack, newNoAttack)
	attack.Attackers.MustRegister(Random, newRandom)
	attack.Attackers.MustRegister(GCG, newGCG)
	attack.Attackers.MustRegister(SeedSearch, newSeedSearch)
}
