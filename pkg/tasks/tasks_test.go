package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/mu-attack/pkg/attack"
	"github.com/picogrid/mu-attack/pkg/models"
)

func TestReadPrompts(t *testing.T) {
	table := "case_number,prompt,evaluation_seed,classes\n" +
		"3,\"A dog, in Van Gogh style\",2219,Dogs\n" +
		"7.0,A bridge at night,42.0,Architectures\n"

	prompts, err := ReadPrompts(strings.NewReader(table))
	require.NoError(t, err)
	assert.Equal(t, []attack.Prompt{
		{ID: 3, Text: "A dog, in Van Gogh style", Seed: 2219},
		{ID: 7, Text: "A bridge at night", Seed: 42},
	}, prompts)
}

func TestReadPromptsDefaults(t *testing.T) {
	prompts, err := ReadPrompts(strings.NewReader("prompt\nfirst\nsecond\n"))
	require.NoError(t, err)
	require.Len(t, prompts, 2)
	assert.Equal(t, 1, prompts[1].ID)
	assert.Equal(t, attack.NoSeed, prompts[0].Seed)
}

func TestReadPromptsErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"no prompt col":  "case_number\n1\n",
		"no rows":        "prompt\n",
		"bad case":       "case_number,prompt\nx,hello\n",
		"fractional sed": "prompt,evaluation_seed\nhi,1.5\n",
	}
	for name, table := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadPrompts(strings.NewReader(table))
			assert.Error(t, err)
		})
	}
}

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	table := "case_number,prompt,evaluation_seed\n0,A cat in a garden,11\n1,A city street,12\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, PromptsFile), []byte(table), 0644))
	return dir
}

func taskKwargs(dataset, endpoint string) attack.Kwargs {
	return attack.Kwargs{
		"concept":            "Van_Gogh",
		"model_name_or_path": "models/esd-van-gogh",
		"dataset_path":       dataset,
		"criterion":          "l2",
		"sampling_step_num":  25,
		"cls_atk":            "true",
		"endpoint":           endpoint,
		"sld":                nil,
	}
}

func TestRegisteredVariants(t *testing.T) {
	for _, name := range []string{Classifier, SDGuidance, P4D, Transfer} {
		assert.True(t, attack.Tasks.Has(name), name)
	}
}

func TestRemoteTaskThroughRegistry(t *testing.T) {
	var vocabCalls atomic.Int32
	requests := make(chan models.EvaluateRequest, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.HealthResponse{Status: "ok"})
	})
	mux.HandleFunc("/v1/vocab", func(w http.ResponseWriter, r *http.Request) {
		vocabCalls.Add(1)
		_ = json.NewEncoder(w).Encode(models.VocabularyResponse{Tokens: []string{"starry", "swirl"}})
	})
	mux.HandleFunc("/v1/evaluate", func(w http.ResponseWriter, r *http.Request) {
		var req models.EvaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		requests <- req
		_ = json.NewEncoder(w).Encode(models.EvaluateResponse{
			Loss:    0.25,
			Success: strings.Contains(req.Prompt, "starry"),
			Label:   "Van_Gogh",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	task, err := attack.Tasks.Get(P4D, taskKwargs(writeDataset(t), srv.URL))
	require.NoError(t, err)
	defer func() { _ = task.Close() }()

	assert.Equal(t, P4D, task.Name())
	assert.Equal(t, "Van_Gogh", task.Concept())
	require.Len(t, task.Prompts(), 2)

	ctx := context.Background()
	pinger, ok := task.(interface{ Ping(context.Context) error })
	require.True(t, ok)
	require.NoError(t, pinger.Ping(ctx))

	for i := 0; i < 2; i++ {
		vocab, err := task.Vocabulary(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"starry", "swirl"}, vocab)
	}
	assert.Equal(t, int32(1), vocabCalls.Load())

	p := task.Prompts()[1]
	ev, err := task.Evaluate(ctx, attack.Query{Prompt: p, Text: "starry " + p.Text, Seed: 12})
	require.NoError(t, err)
	assert.True(t, ev.Success)
	assert.Equal(t, 0.25, ev.Loss)

	last := <-requests
	assert.Equal(t, P4D, last.Task)
	assert.Equal(t, "A city street", last.OriginalPrompt)
	assert.Equal(t, 1, last.CaseNumber)
	assert.Equal(t, int64(12), last.Seed)
	assert.Equal(t, 25, last.Options.SamplingStepNum)
	assert.True(t, last.Options.ClassAttack)
}

func TestFactoryRejectsBadParameters(t *testing.T) {
	kw := taskKwargs(writeDataset(t), "http://localhost:1")
	kw["criterion"] = "l3"
	_, err := attack.Tasks.Get(Classifier, kw)
	assert.Error(t, err)

	kw = taskKwargs(t.TempDir(), "http://localhost:1")
	_, err = attack.Tasks.Get(Classifier, kw)
	assert.Error(t, err)
}

func TestResolveBackendFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".mu-attack")
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := "backends:\n  - name: gpu\n    url: http://gpu:9000\n    api_key_env: GPU_KEY\nselected: gpu\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "environments.yaml"), []byte(content), 0644))

	url, keyEnv, err := resolveBackend(Config{})
	require.NoError(t, err)
	assert.Equal(t, "http://gpu:9000", url)
	assert.Equal(t, "GPU_KEY", keyEnv)

	_, _, err = resolveBackend(Config{Backend: "missing"})
	assert.Error(t, err)

	url, _, err = resolveBackend(Config{Endpoint: "http://override"})
	require.NoError(t, err)
	assert.Equal(t, "http://override", url)
}
