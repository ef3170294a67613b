package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/picogrid/mu-attack/pkg/attack"
	"github.com/picogrid/mu-attack/pkg/client"
	"github.com/picogrid/mu-attack/pkg/config"
	"github.com/picogrid/mu-attack/pkg/logger"
	"github.com/picogrid/mu-attack/pkg/models"
	"github.com/picogrid/mu-attack/pkg/seed"
)

// Names of the registered task variants
const (
	Classifier = "classifier"
	SDGuidance = "sd_guidence"
	P4D        = "P4D"
	Transfer   = "transfer"
)

// DefaultAPIKeyEnv holds the backend API key when the backend entry names none
const DefaultAPIKeyEnv = "MU_ATTACK_API_KEY"

// Config holds the task section parameters
type Config struct {
	Concept          string  `mapstructure:"concept" validate:"required"`
	SLD              string  `mapstructure:"sld" validate:"omitempty,oneof=weak medium strong max"`
	SLDConcept       string  `mapstructure:"sld_concept"`
	NegativePrompt   string  `mapstructure:"negative_prompt"`
	ModelNameOrPath  string  `mapstructure:"model_name_or_path" validate:"required"`
	CachePath        string  `mapstructure:"cache_path"`
	DatasetPath      string  `mapstructure:"dataset_path" validate:"required"`
	Criterion        string  `mapstructure:"criterion" validate:"oneof=l1 l2"`
	ClassifierDir    string  `mapstructure:"classifier_dir"`
	SamplingStepNum  int     `mapstructure:"sampling_step_num" validate:"gte=1"`
	StyleLatentsPath string  `mapstructure:"style_latents_path"`
	SAEPath          string  `mapstructure:"sae_path"`
	Hookpoint        string  `mapstructure:"hookpoint"`
	Percentile       float64 `mapstructure:"percentile"`
	Multiplier       float64 `mapstructure:"multiplier"`
	StyleCkpt        string  `mapstructure:"style_ckpt"`
	ClassCkpt        string  `mapstructure:"class_ckpt"`
	ClassName        string  `mapstructure:"class_name"`
	ClassAttack      string  `mapstructure:"cls_atk"`

	Backend  string `mapstructure:"backend"`
	Endpoint string `mapstructure:"endpoint"`
	Timeout  int    `mapstructure:"timeout" validate:"gte=0"`
}

// Evaluator is the part of the backend client a remote task needs
type Evaluator interface {
	ValidateConnection(ctx context.Context) error
	Vocabulary(ctx context.Context) ([]string, error)
	Evaluate(ctx context.Context, req *models.EvaluateRequest) (*models.EvaluateResponse, error)
}

// RemoteTask runs generation and scoring on an inference backend
type RemoteTask struct {
	name    string
	cfg     Config
	backend Evaluator
	prompts []attack.Prompt

	mu    sync.Mutex
	vocab []string
}

// NewRemoteTask creates a task of the given variant talking to backend
func NewRemoteTask(name string, cfg Config, backend Evaluator, prompts []attack.Prompt) *RemoteTask {
	return &RemoteTask{
		name:    name,
		cfg:     cfg,
		backend: backend,
		prompts: prompts,
	}
}

func factory(name string) attack.Factory[attack.Task] {
	return func(kw attack.Kwargs) (attack.Task, error) {
		var cfg Config
		if err := kw.Decode(&cfg); err != nil {
			return nil, err
		}

		prompts, err := LoadPrompts(cfg.DatasetPath)
		if err != nil {
			return nil, err
		}

		url, keyEnv, err := resolveBackend(cfg)
		if err != nil {
			return nil, err
		}
		backend, err := client.NewBackendClient(url, client.GetAPIKey(keyEnv), time.Duration(cfg.Timeout)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend client: %w", err)
		}

		logger.Networkf("Task %s uses inference backend %s", name, backend.BaseURL())
		logger.Infof("Loaded %d prompts from %s", len(prompts), cfg.DatasetPath)
		return NewRemoteTask(name, cfg, backend, prompts), nil
	}
}

// resolveBackend picks the endpoint: task.endpoint, else the named backend,
// else the selected backend, else the default local server
func resolveBackend(cfg Config) (string, string, error) {
	if cfg.Endpoint != "" {
		return cfg.Endpoint, DefaultAPIKeyEnv, nil
	}

	backends, err := config.LoadBackends()
	if err != nil {
		return "", "", fmt.Errorf("failed to load backends: %w", err)
	}

	name := cfg.Backend
	if name == "" {
		name = backends.Selected
	}
	if name == "" {
		return config.DefaultBackendURL, DefaultAPIKeyEnv, nil
	}

	b, ok := backends.Find(name)
	if !ok {
		return "", "", fmt.Errorf("backend %s not found", name)
	}
	keyEnv := b.APIKeyEnv
	if keyEnv == "" {
		keyEnv = DefaultAPIKeyEnv
	}
	return b.URL, keyEnv, nil
}

// Name returns the task variant
func (t *RemoteTask) Name() string {
	return t.name
}

// Concept returns the erased concept
func (t *RemoteTask) Concept() string {
	return t.cfg.Concept
}

// Prompts returns the loaded dataset
func (t *RemoteTask) Prompts() []attack.Prompt {
	out := make([]attack.Prompt, len(t.prompts))
	copy(out, t.prompts)
	return out
}

// Vocabulary fetches the backend vocabulary once and caches it
func (t *RemoteTask) Vocabulary(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.vocab != nil {
		return t.vocab, nil
	}
	vocab, err := t.backend.Vocabulary(ctx)
	if err != nil {
		return nil, err
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("backend returned an empty vocabulary")
	}
	t.vocab = vocab
	return vocab, nil
}

// Evaluate sends the query to the backend
func (t *RemoteTask) Evaluate(ctx context.Context, q attack.Query) (*attack.Evaluation, error) {
	req := &models.EvaluateRequest{
		Task:           t.name,
		Concept:        t.cfg.Concept,
		Prompt:         q.Text,
		OriginalPrompt: q.Prompt.Text,
		CaseNumber:     q.Prompt.ID,
		Seed:           q.Seed,
		Deterministic:  seed.Current().Deterministic,
		Options:        t.options(),
	}

	resp, err := t.backend.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	return &attack.Evaluation{
		Loss:    resp.Loss,
		Success: resp.Success,
		Label:   resp.Label,
		Image:   resp.Image,
	}, nil
}

func (t *RemoteTask) options() models.TaskOptions {
	return models.TaskOptions{
		ModelNameOrPath:  t.cfg.ModelNameOrPath,
		CachePath:        t.cfg.CachePath,
		DatasetPath:      t.cfg.DatasetPath,
		Criterion:        t.cfg.Criterion,
		SamplingStepNum:  t.cfg.SamplingStepNum,
		SLD:              t.cfg.SLD,
		SLDConcept:       t.cfg.SLDConcept,
		NegativePrompt:   t.cfg.NegativePrompt,
		ClassifierDir:    t.cfg.ClassifierDir,
		StyleLatentsPath: t.cfg.StyleLatentsPath,
		SAEPath:          t.cfg.SAEPath,
		Hookpoint:        t.cfg.Hookpoint,
		Percentile:       t.cfg.Percentile,
		Multiplier:       t.cfg.Multiplier,
		StyleCkpt:        t.cfg.StyleCkpt,
		ClassCkpt:        t.cfg.ClassCkpt,
		ClassName:        t.cfg.ClassName,
		ClassAttack:      strings.EqualFold(t.cfg.ClassAttack, "true"),
	}
}

// Ping checks that the backend is up
func (t *RemoteTask) Ping(ctx context.Context) error {
	return t.backend.ValidateConnection(ctx)
}

// Close releases nothing; the backend owns the models
func (t *RemoteTask) Close() error {
	return nil
}

func init() {
	for _, name := range []string{Classifier, SDGuidance, P4D, Transfer} {
		attack.Tasks.MustRegister(name, factory(name))
	}
}
