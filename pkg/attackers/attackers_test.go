package attackers

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/mu-attack/pkg/attack"
	"github.com/picogrid/mu-attack/pkg/seed"
	"github.com/picogrid/mu-attack/pkg/tasks"
)

// fakeTask succeeds when the generated text passes hit
type fakeTask struct {
	prompts []attack.Prompt
	vocab   []string
	hit     func(q attack.Query) bool
	loss    func(q attack.Query) float64

	mu      sync.Mutex
	queries []attack.Query
}

func (f *fakeTask) Name() string { return "fake" }
func (f *fakeTask) Concept() string { return "Van_Gogh" }
func (f *fakeTask) Prompts() []attack.Prompt { return f.prompts }
func (f *fakeTask) Close() error { return nil }

func (f *fakeTask) Vocabulary(ctx context.Context) ([]string, error) {
	return f.vocab, nil
}

func (f *fakeTask) Evaluate(ctx context.Context, q attack.Query) (*attack.Evaluation, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	ev := &attack.Evaluation{Loss: 1}
	if f.loss != nil {
		ev.Loss = f.loss(q)
	}
	if f.hit != nil && f.hit(q) {
		ev.Loss, ev.Success, ev.Label, ev.Image = 0, true, "Van_Gogh", "images/"+q.Text+".png"
	}
	return ev, nil
}

type fakeLogger struct {
	records []attack.Record
	saved   map[string]interface{}
}

func (l *fakeLogger) Log(rec attack.Record) error {
	l.records = append(l.records, rec)
	return nil
}

func (l *fakeLogger) Save(name string, v interface{}) error {
	if l.saved == nil {
		l.saved = map[string]interface{}{}
	}
	l.saved[name] = v
	return nil
}

func (l *fakeLogger) Close() error { return nil }

func (l *fakeLogger) results(t *testing.T) Results {
	t.Helper()
	r, ok := l.saved["results"].(Results)
	require.True(t, ok, "results were not saved")
	return r
}

func contains(word string) func(q attack.Query) bool {
	return func(q attack.Query) bool {
		return strings.Contains(q.Text, word)
	}
}

func baseKwargs() attack.Kwargs {
	return attack.Kwargs{
		"insertion_location": SuffixK,
		"k":                  2,
		"iteration":          3,
		"seed_iteration":     4,
		"eval_seed":          100,
		"universal":          false,
		"attack_idx":         nil,
		"sequential":         false,
		"candidate_size":     3,
		"search_size":        2,
	}
}

func twoPrompts() []attack.Prompt {
	return []attack.Prompt{
		{ID: 0, Text: "a quiet harbor", Seed: 7},
		{ID: 1, Text: "a field of wheat", Seed: attack.NoSeed},
	}
}

func run(t *testing.T, name string, kw attack.Kwargs, task *fakeTask) *fakeLogger {
	t.Helper()
	seed.Setup(0)
	a, err := attack.Attackers.Get(name, kw)
	require.NoError(t, err)
	assert.Equal(t, name, a.Name())

	rec := &fakeLogger{}
	require.NoError(t, a.Run(context.Background(), task, rec))
	return rec
}

func TestRegisteredAttackers(t *testing.T) {
	assert.Equal(t, []string{GCG, NoAttack, Random, SeedSearch}, attack.Attackers.List())
	for _, name := range []string{"text_grad", "hard_prompt", "hard_prompt_multi"} {
		_, err := attack.Attackers.Get(name, baseKwargs())
		assert.ErrorIs(t, err, attack.ErrNotFound)
	}
}

func TestRandomFindsToken(t *testing.T) {
	task := &fakeTask{prompts: twoPrompts(), vocab: []string{"starry"}, hit: contains("starry")}
	rec := run(t, Random, baseKwargs(), task)

	r := rec.results(t)
	require.Len(t, r.Outcomes, 2)
	assert.Equal(t, 2, r.Successes)
	assert.Equal(t, 1.0, r.SuccessRate)
	assert.Equal(t, "a quiet harbor starry starry", r.Outcomes[0].Adversarial[0])
	assert.Equal(t, 1, r.Outcomes[0].Iterations)
	assert.Equal(t, []string{"images/a quiet harbor starry starry.png"}, r.Outcomes[0].Images)
	assert.Len(t, rec.records, 2)
	assert.Equal(t, "images/a quiet harbor starry starry.png", rec.records[0].Image)
}

func TestRandomExhaustsIterations(t *testing.T) {
	task := &fakeTask{prompts: twoPrompts(), vocab: []string{"plain"}}
	rec := run(t, Random, baseKwargs(), task)

	r := rec.results(t)
	assert.Equal(t, 0, r.Successes)
	assert.Equal(t, 3, r.Outcomes[0].Iterations)
	assert.Len(t, rec.records, 6)
}

func TestEvaluationSeeds(t *testing.T) {
	task := &fakeTask{prompts: twoPrompts(), vocab: []string{"plain"}}
	kw := baseKwargs()
	kw["iteration"] = 1
	run(t, Random, kw, task)

	require.Len(t, task.queries, 2)
	assert.Equal(t, int64(7), task.queries[0].Seed)
	assert.Equal(t, int64(100), task.queries[1].Seed)
}

func TestAttackIdx(t *testing.T) {
	task := &fakeTask{prompts: twoPrompts(), vocab: []string{"plain"}}
	kw := baseKwargs()
	kw["attack_idx"] = 1
	rec := run(t, Random, kw, task)

	r := rec.results(t)
	require.Len(t, r.Outcomes, 1)
	assert.Equal(t, []int{1}, r.Outcomes[0].PromptIDs)

	kw["attack_idx"] = 9
	a, err := attack.Attackers.Get(Random, kw)
	require.NoError(t, err)
	assert.Error(t, a.Run(context.Background(), task, &fakeLogger{}))
}

func TestUniversalGroupsPrompts(t *testing.T) {
	task := &fakeTask{
		prompts: twoPrompts(),
		vocab:   []string{"plain"},
		hit:     contains("harbor"),
	}
	kw := baseKwargs()
	kw["universal"] = true
	kw["iteration"] = 1
	rec := run(t, Random, kw, task)

	r := rec.results(t)
	require.Len(t, r.Outcomes, 1)
	assert.Equal(t, []int{0, 1}, r.Outcomes[0].PromptIDs)
	assert.False(t, r.Outcomes[0].Success)
	assert.Equal(t, 0.5, r.Outcomes[0].Loss)
}

func TestGCGEvaluationBudget(t *testing.T) {
	task := &fakeTask{prompts: twoPrompts()[:1], vocab: []string{"x", "y"}}
	kw := baseKwargs()
	kw["iteration"] = 2
	rec := run(t, GCG, kw, task)

	r := rec.results(t)
	require.Len(t, r.Outcomes, 1)
	assert.Equal(t, 1+2*3, r.Outcomes[0].Evaluations)
	assert.Len(t, r.Outcomes[0].Tokens, 2)
	assert.Len(t, rec.records, 3)
}

func TestGCGImprovesLoss(t *testing.T) {
	// loss is the share of tokens that are not "good"
	task := &fakeTask{
		prompts: twoPrompts()[:1],
		vocab:   []string{"bad", "good"},
		loss: func(q attack.Query) float64 {
			words := strings.Fields(q.Text)
			tail := words[len(words)-2:]
			n := 0.0
			for _, w := range tail {
				if w != "good" {
					n++
				}
			}
			return n / 2
		},
		hit: func(q attack.Query) bool {
			return strings.HasSuffix(q.Text, "good good")
		},
	}
	kw := baseKwargs()
	kw["iteration"] = 50
	kw["sequential"] = true
	kw["search_size"] = 4
	rec := run(t, GCG, kw, task)

	r := rec.results(t)
	assert.True(t, r.Outcomes[0].Success)
	assert.Equal(t, []string{"good", "good"}, r.Outcomes[0].Tokens)

	for i := 1; i < len(rec.records); i++ {
		assert.LessOrEqual(t, rec.records[i].Loss, rec.records[i-1].Loss)
	}
}

func TestGCGReproducible(t *testing.T) {
	vocab := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	hashLoss := func(q attack.Query) float64 {
		h := fnv.New32a()
		_, _ = h.Write([]byte(q.Text))
		return float64(h.Sum32()%1000) / 1000
	}
	texts := func() []string {
		task := &fakeTask{prompts: twoPrompts(), vocab: vocab, loss: hashLoss}
		kw := baseKwargs()
		kw["insertion_location"] = InsertK
		rec := run(t, GCG, kw, task)
		out := make([]string, len(rec.records))
		for i, r := range rec.records {
			out[i] = r.Text
		}
		return out
	}
	assert.Equal(t, texts(), texts())
}

func TestSeedSearch(t *testing.T) {
	src := seed.New(0)
	want := []int64{7, src.GeneratorSeed(), src.GeneratorSeed()}

	task := &fakeTask{
		prompts: twoPrompts()[:1],
		hit:     func(q attack.Query) bool { return q.Seed == want[2] },
	}
	rec := run(t, SeedSearch, baseKwargs(), task)

	r := rec.results(t)
	assert.True(t, r.Outcomes[0].Success)
	assert.Equal(t, 3, r.Outcomes[0].Iterations)
	require.Len(t, task.queries, 3)
	for i, q := range task.queries {
		assert.Equal(t, "a quiet harbor", q.Text)
		assert.Equal(t, want[i], q.Seed)
	}
	assert.Equal(t, want[2], rec.records[2].Seed)
}

func TestSeedSearchSeedsFollowSetup(t *testing.T) {
	seeds := func(overall int64) []int64 {
		seed.Setup(overall)
		a, err := attack.Attackers.Get(SeedSearch, baseKwargs())
		require.NoError(t, err)
		task := &fakeTask{prompts: twoPrompts()}
		require.NoError(t, a.Run(context.Background(), task, &fakeLogger{}))

		out := make([]int64, len(task.queries))
		for i, q := range task.queries {
			out[i] = q.Seed
		}
		return out
	}

	first := seeds(42)
	require.Len(t, first, 8)
	assert.Equal(t, int64(7), first[0])
	assert.Equal(t, int64(100), first[4])
	assert.Equal(t, first, seeds(42))
	assert.NotEqual(t, first, seeds(43))
}

func TestNoAttackUsesOwnDataset(t *testing.T) {
	dir := t.TempDir()
	table := "case_number,prompt,evaluation_seed\n4,Starry night by Van Gogh,1\n5,A plain wall,2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, tasks.PromptsFile), []byte(table), 0644))

	task := &fakeTask{prompts: twoPrompts(), hit: contains("Van Gogh")}
	kw := baseKwargs()
	kw["dataset_path"] = dir
	rec := run(t, NoAttack, kw, task)

	r := rec.results(t)
	require.Len(t, r.Outcomes, 2)
	assert.Equal(t, []int{4}, r.Outcomes[0].PromptIDs)
	assert.Equal(t, 1, r.Successes)
	assert.Equal(t, 0.5, r.SuccessRate)

	delete(kw, "dataset_path")
	_, err := attack.Attackers.Get(NoAttack, kw)
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := attack.Attackers.Get(Random, baseKwargs())
	require.NoError(t, err)
	task := &fakeTask{prompts: twoPrompts(), vocab: []string{"plain"}}
	assert.ErrorIs(t, a.Run(ctx, task, &fakeLogger{}), context.Canceled)
}

func TestRunRejectsEmptyVocabulary(t *testing.T) {
	a, err := attack.Attackers.Get(GCG, baseKwargs())
	require.NoError(t, err)
	err = a.Run(context.Background(), &fakeTask{prompts: twoPrompts()}, &fakeLogger{})
	assert.ErrorContains(t, err, "empty vocabulary")
}

func TestBadKwargs(t *testing.T) {
	kw := baseKwargs()
	kw["insertion_location"] = "everywhere"
	_, err := attack.Attackers.Get(Random, kw)
	assert.Error(t, err)

	kw = baseKwargs()
	kw["candidate_size"] = 0
	_, err = attack.Attackers.Get(GCG, kw)
	assert.Error(t, err)
}

func TestPlacement(t *testing.T) {
	text := "one two three four five"
	tokens := []string{"X", "Y"}

	tests := []struct {
		loc  string
		k    int
		want string
	}{
		{PrefixK, 2, "X Y one two three four five"},
		{SuffixK, 2, "one two three four five X Y"},
		{MidK, 2, "one two X Y three four five"},
		{PerKWords, 2, "one two X three four Y five"},
	}
	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			p := newPlacement(tt.loc, tt.k, text, nil)
			assert.Equal(t, tt.want, p.apply(tokens))
			assert.Equal(t, text, p.apply(nil))
		})
	}
}

func TestInsertPlacement(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	p := newPlacement(InsertK, 3, "a b c", rng)
	require.Len(t, p.positions, 3)

	out := strings.Fields(p.apply([]string{"X", "Y", "Z"}))
	assert.Len(t, out, 6)

	var inserted []string
	for _, w := range out {
		if w == "X" || w == "Y" || w == "Z" {
			inserted = append(inserted, w)
		}
	}
	assert.Equal(t, []string{"X", "Y", "Z"}, inserted)
}

func TestTokenCount(t *testing.T) {
	assert.Equal(t, 3, TokenCount(PrefixK, 3, 10))
	assert.Equal(t, 5, TokenCount(PerKWords, 2, 10))
	assert.Equal(t, 1, TokenCount(PerKWords, 4, 2))
}
