package models

// EvaluateRequest asks the inference backend to generate an image for a
// prompt with the unlearned model and score it for the erased concept.
// @Description Request body for a single generation and scoring pass.
type EvaluateRequest struct {
	// The task type that decides how the backend computes the loss.
	Task string `json:"task" example:"classifier"`
	// The erased concept under attack.
	Concept string `json:"concept" example:"Van_Gogh"`
	// The prompt to generate from, including any adversarial tokens.
	Prompt string `json:"prompt"`
	// The original prompt before perturbation.
	OriginalPrompt string `json:"original_prompt,omitempty"`
	// The dataset case number the prompt came from.
	CaseNumber int `json:"case_number"`
	// The generator seed.
	Seed int64 `json:"seed"`
	// Whether the backend must disable non-deterministic kernels.
	Deterministic bool `json:"deterministic"`
	// Model and evaluation options forwarded verbatim.
	Options TaskOptions `json:"options"`
}

// TaskOptions carries the task section parameters the backend needs to load
// and run the models
type TaskOptions struct {
	ModelNameOrPath  string  `json:"model_name_or_path"`
	CachePath        string  `json:"cache_path,omitempty"`
	DatasetPath      string  `json:"dataset_path,omitempty"`
	Criterion        string  `json:"criterion"`
	SamplingStepNum  int     `json:"sampling_step_num"`
	SLD              string  `json:"sld,omitempty"`
	SLDConcept       string  `json:"sld_concept,omitempty"`
	NegativePrompt   string  `json:"negative_prompt,omitempty"`
	ClassifierDir    string  `json:"classifier_dir,omitempty"`
	StyleLatentsPath string  `json:"style_latents_path"`
	SAEPath          string  `json:"sae_path"`
	Hookpoint        string  `json:"hookpoint"`
	Percentile       float64 `json:"percentile"`
	Multiplier       float64 `json:"multiplier"`
	StyleCkpt        string  `json:"style_ckpt"`
	ClassCkpt        string  `json:"class_ckpt"`
	ClassName        string  `json:"class_name"`
	ClassAttack      bool    `json:"cls_atk"`
}

// EvaluateResponse is the backend's score for one generation.
// @Description Result of a single generation and scoring pass.
type EvaluateResponse struct {
	// Loss to be minimized by the attacker.
	Loss float64 `json:"loss"`
	// Whether the erased concept was detected in the generated image.
	Success bool `json:"success"`
	// The label predicted by the backend's classifier, if any.
	Label string `json:"label,omitempty"`
	// Reference to the stored image, if the backend keeps one.
	Image string `json:"image,omitempty"`
}

// VocabularyResponse lists tokens of the text encoder usable in adversarial prompts
type VocabularyResponse struct {
	Tokens []string `json:"tokens"`
}

// HealthResponse reports the backend status
type HealthResponse struct {
	Status  string   `json:"status"`
	Version string   `json:"version,omitempty"`
	Models  []string `json:"models,omitempty"`
}
