package attackers

import (
	"context"
	"fmt"
	"time"

	"github.com/picogrid/mu-attack/pkg/attack"
	"github.com/picogrid/mu-attack/pkg/logger"
	"github.com/picogrid/mu-attack/pkg/seed"
)

// BaseConfig holds the general attacker section shared by every attacker
type BaseConfig struct {
	InsertionLocation string `mapstructure:"insertion_location" validate:"oneof=prefix_k suffix_k mid_k insert_k per_k_words"`
	K                 int    `mapstructure:"k" validate:"gte=1"`
	Iteration         int    `mapstructure:"iteration" validate:"gte=1"`
	SeedIteration     int    `mapstructure:"seed_iteration" validate:"gte=1"`
	EvalSeed          int    `mapstructure:"eval_seed"`
	Universal         bool   `mapstructure:"universal"`
	AttackIdx         *int   `mapstructure:"attack_idx"`
	Sequential        bool   `mapstructure:"sequential"`
}

// Outcome is the best result found for one group of prompts
type Outcome struct {
	PromptIDs   []int    `json:"prompt_ids"`
	Prompts     []string `json:"prompts"`
	Adversarial []string `json:"adversarial"`
	Tokens      []string `json:"tokens,omitempty"`
	Loss        float64  `json:"loss"`
	Success     bool     `json:"success"`
	Labels      []string `json:"labels,omitempty"`
	Images      []string `json:"images,omitempty"`
	Iterations  int      `json:"iterations"`
	Evaluations int      `json:"evaluations"`
}

// Results is the artifact saved at the end of a run
type Results struct {
	Attacker    string    `json:"attacker"`
	Task        string    `json:"task"`
	Concept     string    `json:"concept"`
	Seed        int64     `json:"seed"`
	Outcomes    []Outcome `json:"outcomes"`
	Successes   int       `json:"successes"`
	SuccessRate float64   `json:"success_rate"`
	Duration    string    `json:"duration"`
}

// searchFunc runs one attacker's search over a session
type searchFunc func(ctx context.Context, s *session) (*Outcome, error)

// base implements attack.Attacker around a search function
type base struct {
	name       string
	cfg        BaseConfig
	needsVocab bool
	search     searchFunc

	// progress draws a bar instead of logging each group
	progress bool

	// prompts overrides the task's dataset when set
	prompts func() ([]attack.Prompt, error)
}

func (b *base) Name() string {
	return b.name
}

// Run attacks every targeted prompt, or all of them at once when universal
func (b *base) Run(ctx context.Context, task attack.Task, rec attack.Logger) error {
	start := time.Now()
	log := logger.WithPrefix(b.name)

	prompts := task.Prompts()
	if b.prompts != nil {
		var err error
		if prompts, err = b.prompts(); err != nil {
			return err
		}
	}
	targets, err := selectTargets(prompts, b.cfg.AttackIdx)
	if err != nil {
		return err
	}

	var vocab []string
	if b.needsVocab {
		if vocab, err = task.Vocabulary(ctx); err != nil {
			return fmt.Errorf("failed to get vocabulary: %w", err)
		}
		if len(vocab) == 0 {
			return fmt.Errorf("task %s has an empty vocabulary", task.Name())
		}
	}

	groups := make([][]attack.Prompt, 0, len(targets))
	if b.cfg.Universal {
		groups = append(groups, targets)
	} else {
		for _, p := range targets {
			groups = append(groups, []attack.Prompt{p})
		}
	}

	src := seed.Current()
	logger.Progressf("Attacking %d prompt(s) in %d group(s) for concept %s", len(targets), len(groups), task.Concept())

	results := Results{
		Attacker: b.name,
		Task:     task.Name(),
		Concept:  task.Concept(),
		Seed:     src.Seed,
	}
	var bar *logger.ProgressBar
	if b.progress {
		bar = logger.NewProgressBar(len(groups), "Evaluating")
	}
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		s := newSession(b.name, b.cfg, task, rec, src, group, vocab)
		outcome, err := b.search(ctx, s)
		if err != nil {
			return fmt.Errorf("attack on prompt(s) %v failed: %w", s.ids(), err)
		}
		results.Outcomes = append(results.Outcomes, *outcome)

		switch {
		case bar != nil:
			bar.Increment()
			log.Debugf("prompt(s) %v success %t, loss %.4f", outcome.PromptIDs, outcome.Success, outcome.Loss)
		case outcome.Success:
			log.Infof("%s prompt(s) %v broken after %d iteration(s), loss %.4f", logger.IconTarget, outcome.PromptIDs, outcome.Iterations, outcome.Loss)
		default:
			log.Infof("prompt(s) %v held after %d iteration(s), best loss %.4f", outcome.PromptIDs, outcome.Iterations, outcome.Loss)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	for _, o := range results.Outcomes {
		if o.Success {
			results.Successes++
		}
	}
	if len(results.Outcomes) > 0 {
		results.SuccessRate = float64(results.Successes) / float64(len(results.Outcomes))
	}
	results.Duration = time.Since(start).Round(time.Millisecond).String()

	if err := rec.Save("results", results); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	logger.LogKeyValue("Attack success rate", fmt.Sprintf("%.2f%% (%d/%d)", results.SuccessRate*100, results.Successes, len(results.Outcomes)))
	return nil
}

// selectTargets narrows the dataset to the prompt with case number idx
func selectTargets(prompts []attack.Prompt, idx *int) ([]attack.Prompt, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no prompts to attack")
	}
	if idx == nil {
		return prompts, nil
	}
	for _, p := range prompts {
		if p.ID == *idx {
			return []attack.Prompt{p}, nil
		}
	}
	return nil, fmt.Errorf("attack index %d not found in dataset", *idx)
}

// session is the state of an attack on one group of prompts
type session struct {
	name       string
	cfg        BaseConfig
	task       attack.Task
	rec        attack.Logger
	src        *seed.Sources
	targets    []attack.Prompt
	placements []*placement
	vocab      []string
	width      int
	evals      int
}

func newSession(name string, cfg BaseConfig, task attack.Task, rec attack.Logger, src *seed.Sources, targets []attack.Prompt, vocab []string) *session {
	s := &session{
		name:    name,
		cfg:     cfg,
		task:    task,
		rec:     rec,
		src:     src,
		targets: targets,
		vocab:   vocab,
	}
	for _, p := range targets {
		pl := newPlacement(cfg.InsertionLocation, cfg.K, p.Text, src.Array)
		s.placements = append(s.placements, pl)
		if n := pl.tokens(); n > s.width {
			s.width = n
		}
	}
	return s
}

func (s *session) ids() []int {
	ids := make([]int, len(s.targets))
	for i, p := range s.targets {
		ids[i] = p.ID
	}
	return ids
}

// seedFor returns the evaluation seed of a prompt
func (s *session) seedFor(p attack.Prompt) int64 {
	if p.Seed == attack.NoSeed {
		return int64(s.cfg.EvalSeed)
	}
	return p.Seed
}

// score is the aggregated evaluation of one token set over the group
type score struct {
	loss    float64
	success bool
	texts   []string
	labels  []string
	images  []string
	seed    int64
}

// evaluate scores tokens over every prompt of the group. The loss is the
// mean loss; success requires every prompt to succeed. A generator seed
// other than attack.NoSeed replaces the prompts' own seeds.
func (s *session) evaluate(ctx context.Context, tokens []string, generator int64) (*score, error) {
	sc := &score{success: true}
	for i, p := range s.targets {
		text := s.placements[i].apply(tokens)
		q := attack.Query{Prompt: p, Text: text, Seed: s.seedFor(p)}
		if generator != attack.NoSeed {
			q.Seed = generator
		}
		ev, err := s.task.Evaluate(ctx, q)
		if err != nil {
			return nil, err
		}
		s.evals++
		sc.loss += ev.Loss
		sc.success = sc.success && ev.Success
		sc.texts = append(sc.texts, text)
		sc.labels = append(sc.labels, ev.Label)
		sc.images = append(sc.images, ev.Image)
		if i == 0 {
			sc.seed = q.Seed
		}
	}
	sc.loss /= float64(len(s.targets))
	return sc, nil
}

// record logs the state after an iteration
func (s *session) record(iteration int, tokens []string, sc *score) error {
	logger.WithFields(map[string]interface{}{
		"attacker":  s.name,
		"iteration": iteration,
	}).Debugf("loss %.4f success %t: %s", sc.loss, sc.success, sc.texts[0])
	return s.rec.Log(attack.Record{
		Time:      time.Now(),
		Attacker:  s.name,
		PromptIDs: s.ids(),
		Iteration: iteration,
		Tokens:    tokens,
		Text:      sc.texts[0],
		Seed:      sc.seed,
		Loss:      sc.loss,
		Success:   sc.success,
		Label:     sc.labels[0],
		Image:     sc.images[0],
	})
}

func (s *session) outcome(tokens []string, sc *score, iterations int) *Outcome {
	prompts := make([]string, len(s.targets))
	for i, p := range s.targets {
		prompts[i] = p.Text
	}
	return &Outcome{
		PromptIDs:   s.ids(),
		Prompts:     prompts,
		Adversarial: sc.texts,
		Tokens:      tokens,
		Loss:        sc.loss,
		Success:     sc.success,
		Labels:      sc.labels,
		Images:      sc.images,
		Iterations:  iterations,
		Evaluations: s.evals,
	}
}

// sampleTokens draws n tokens from the vocabulary
func (s *session) sampleTokens(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s.vocab[s.src.Array.IntN(len(s.vocab))]
	}
	return out
}
