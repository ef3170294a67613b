package attack

import (
	"context"
	"time"
)

// NoSeed marks a prompt that carries no evaluation seed of its own
const NoSeed int64 = -1

// Prompt is one entry of a task's dataset
type Prompt struct {
	// ID is the case number used to address the prompt (see attacker.attack_idx)
	ID int `json:"id"`

	// Text is the original prompt
	Text string `json:"text"`

	// Seed is the evaluation seed attached to the prompt, or NoSeed
	Seed int64 `json:"seed"`
}

// Query asks a task to evaluate one (possibly perturbed) prompt
type Query struct {
	Prompt Prompt
	Text   string
	Seed   int64
}

// Evaluation is the task's verdict on a query
type Evaluation struct {
	// Loss is minimized by attackers
	Loss float64 `json:"loss"`

	// Success reports whether the erased concept was regenerated
	Success bool `json:"success"`

	// Label is the predicted class or concept, when the task has a classifier
	Label string `json:"label,omitempty"`

	// Image is a backend reference to the generated image, if any
	Image string `json:"image,omitempty"`
}

// Task defines the target of an attack: an unlearned model, the concept it
// was meant to forget and the prompts to attack
type Task interface {
	// Name returns the registered task name
	Name() string

	// Concept returns the erased concept under attack
	Concept() string

	// Prompts returns the dataset to attack
	Prompts() []Prompt

	// Vocabulary returns the tokens attackers may insert
	Vocabulary(ctx context.Context) ([]string, error)

	// Evaluate generates with the query and scores the result
	Evaluate(ctx context.Context, q Query) (*Evaluation, error)

	// Close releases the task's resources
	Close() error
}

// Record is one logged step of an attack
type Record struct {
	Time      time.Time `json:"time"`
	Attacker  string    `json:"attacker"`
	PromptIDs []int     `json:"prompt_ids"`
	Iteration int       `json:"iteration"`
	Tokens    []string  `json:"tokens,omitempty"`
	Text      string    `json:"text"`
	Seed      int64     `json:"seed"`
	Loss      float64   `json:"loss"`
	Success   bool      `json:"success"`
	Label     string    `json:"label,omitempty"`
	Image     string    `json:"image,omitempty"`
}

// Logger records the results of a run
type Logger interface {
	// Log records one attack step
	Log(rec Record) error

	// Save stores a named artifact such as the final results
	Save(name string, v interface{}) error

	// Close flushes and releases the logger
	Close() error
}

// Attacker searches for adversarial prompts against a task
type Attacker interface {
	// Name returns the registered attacker name
	Name() string

	// Run owns the experiment loop and records results through the logger
	Run(ctx context.Context, task Task, logger Logger) error
}
