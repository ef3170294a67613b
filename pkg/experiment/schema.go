package experiment

import (
	"time"

	"github.com/picogrid/mu-attack/pkg/config"
	"github.com/picogrid/mu-attack/pkg/loggers"
)

// Themes are the UnlearnCanvas concepts a task may target
var Themes = []string{
	"Abstractionism", "Artist_Sketch", "Blossom_Season", "Bricks", "Byzantine",
	"Cartoon", "Cold_Warm", "Color_Fantasy", "Comic_Etch", "Crayon",
	"Cubism", "Dadaism", "Dapple", "Defoliation", "Early_Autumn",
	"Expressionism", "Fauvism", "French", "Glowing_Sunset", "Gorgeous_Love",
	"Greenfield", "Impressionism", "Ink_Art", "Joy", "Liquid_Dreams",
	"Magic_Cube", "Meta_Physics", "Meteor_Shower", "Monet", "Mosaic",
	"Neon_Lines", "On_Fire", "Pastel", "Pencil_Drawing", "Picasso",
	"Pop_Art", "Red_Blue_Ink", "Rust", "Seed_Images", "Sketch",
	"Sponge_Dabbed", "Structuralism", "Superstring", "Table_Tennis", "Ukiyoe",
	"Van_Gogh", "Vibrant_Flow", "Warm_Love", "Warm_Smear", "Watercolor",
	"Winter",
}

// Selector keys
const (
	KeyTask     = "overall.task"
	KeyAttacker = "overall.attacker"
	KeyLogger   = "overall.logger"
	KeyResume   = "overall.resume"
	KeySeed     = "overall.seed"
)

// ResumeFile is the file read from the resume directory
const ResumeFile = loggers.ConfigFile

// TaskNames lists every task selectable through overall.task
var TaskNames = []string{"classifier", "sd_guidence", "P4D", "transfer"}

// AttackerNames lists every attacker selectable through overall.attacker
var AttackerNames = []string{"gcg", "text_grad", "hard_prompt", "hard_prompt_multi", "random", "seed_search", "no_attack"}

// LoggerNames lists every logger selectable through overall.logger
var LoggerNames = []string{"json", "none"}

// NewSchema declares every section of an experiment. The default run name
// is the time at which the schema was built.
func NewSchema(now time.Time) *config.Schema {
	s := config.NewSchema()

	s.Section("overall", "Overall configs").Params(
		config.Param{Name: "task", Check: config.OneOf(TaskNames...), Required: true, Desc: "Task type to attack"},
		config.Param{Name: "attacker", Check: config.OneOf(AttackerNames...), Required: true, Desc: "Attack algorithm"},
		config.Param{Name: "logger", Check: config.OneOf(LoggerNames...), Default: "none", Desc: "Logger to use"},
		config.Param{Name: "resume", Check: config.Folder(false), Desc: "Path to resume"},
		config.Param{Name: "seed", Check: config.Int(), Default: 0, Desc: "Random seed"},
	)

	s.Section("task", "General task configs").Params(
		config.Param{Name: "concept", Check: config.OneOf(Themes...), Required: true, Desc: "Concept to attack"},
		config.Param{Name: "sld", Check: config.OneOf("weak", "medium", "strong", "max"), Desc: "SLD type"},
		config.Param{Name: "sld_concept", Check: config.Str(), Desc: "SLD concept to be unlearned"},
		config.Param{Name: "negative_prompt", Check: config.Str(), Desc: "Negative prompt to be used"},
		config.Param{Name: "model_name_or_path", Check: config.Str(), Required: true, Desc: "Model directory"},
		config.Param{Name: "cache_path", Check: config.Folder(true), Default: ".cache", Desc: "Cache directory"},
		config.Param{Name: "dataset_path", Check: config.Folder(false), Required: true, Desc: "Path to dataset"},
		config.Param{Name: "criterion", Check: config.OneOf("l1", "l2"), Default: "l2", Desc: "Loss criterion"},
		config.Param{Name: "classifier_dir", Check: config.Folder(false), Desc: "Classifier directory"},
		config.Param{Name: "sampling_step_num", Check: config.Int(), Default: 50, Desc: "Sampling step number"},
		config.Param{Name: "style_latents_path", Check: config.Str(), Required: true, Desc: "Style latents path"},
		config.Param{Name: "sae_path", Check: config.Str(), Required: true, Desc: "SAE path"},
		config.Param{Name: "hookpoint", Check: config.Str(), Required: true, Desc: "Hookpoint"},
		config.Param{Name: "percentile", Check: config.Float(), Required: true, Desc: "Percentile"},
		config.Param{Name: "multiplier", Check: config.Float(), Required: true, Desc: "Multiplier"},
		config.Param{Name: "style_ckpt", Check: config.Str(), Required: true, Desc: "Style checkpoint"},
		config.Param{Name: "class_ckpt", Check: config.Str(), Required: true, Desc: "Classifier checkpoint"},
		config.Param{Name: "class_name", Check: config.Str(), Required: true, Desc: "Class name"},
		config.Param{Name: "cls_atk", Check: config.Str(), Required: true, Default: "false", Desc: "Class attack"},
		config.Param{Name: "backend", Check: config.Str(), Desc: "Named inference backend from the environments file"},
		config.Param{Name: "endpoint", Check: config.Str(), Desc: "Inference backend URL, overrides backend"},
		config.Param{Name: "timeout", Check: config.Int(), Default: 120, Desc: "Inference request timeout in seconds"},
	)

	s.Section("attacker", "General attacker configs").Params(
		config.Param{Name: "insertion_location", Check: config.OneOf("prefix_k", "suffix_k", "mid_k", "insert_k", "per_k_words"), Default: "prefix_k", Desc: "Insertion location"},
		config.Param{Name: "k", Check: config.Int(), Default: 3, Desc: "k in insertion_location"},
		config.Param{Name: "iteration", Check: config.Int(), Default: 40, Desc: "Number of iterations"},
		config.Param{Name: "seed_iteration", Check: config.Int(), Default: 20, Desc: "Number of seed iterations"},
		config.Param{Name: "eval_seed", Check: config.Int(), Default: 0, Desc: "Evaluation seed"},
		config.Param{Name: "universal", Check: config.BoolAsInt(), Default: false, Desc: "Universal attack"},
		config.Param{Name: "attack_idx", Check: config.Int(), Desc: "Attack index"},
		config.Param{Name: "sequential", Check: config.BoolAsInt(), Default: false, Desc: "Sequential optimization"},
	)

	s.Section("attacker.gcg", "Zeroth-Order GCG").
		EnableIf(config.Equals(KeyAttacker, "gcg")).
		Params(
			config.Param{Name: "candidate_size", Check: config.Int(), Default: 256, Desc: "Candidate size"},
			config.Param{Name: "search_size", Check: config.Int(), Default: 512, Desc: "Random search size"},
		)

	s.Section("attacker.hard_prompt", "Hard Prompt").
		EnableIf(config.Equals(KeyAttacker, "hard_prompt")).
		Params(
			config.Param{Name: "lr", Check: config.Float(), Default: 0.01, Desc: "Learning rate"},
			config.Param{Name: "weight_decay", Check: config.Float(), Default: 0.1, Desc: "Weight decay"},
			config.Param{Name: "num_data", Check: config.Int(), Default: 5, Desc: "Number of data to use"},
		)

	s.Section("attacker.no_attack", "No Attack").
		EnableIf(config.Equals(KeyAttacker, "no_attack")).
		Params(
			config.Param{Name: "dataset_path", Check: config.Folder(false), Required: true, Desc: "Path to dataset"},
		)

	s.Section("attacker.hard_prompt_multi", "Hard Prompt Multi").
		EnableIf(config.Equals(KeyAttacker, "hard_prompt_multi")).
		Params(
			config.Param{Name: "lr", Check: config.Float(), Default: 0.01, Desc: "Learning rate"},
			config.Param{Name: "weight_decay", Check: config.Float(), Default: 0.1, Desc: "Weight decay"},
			config.Param{Name: "num_data", Check: config.Int(), Default: 5, Desc: "Number of data to use"},
			config.Param{Name: "batch_size", Check: config.Int(), Default: 5, Desc: "Batch size"},
			config.Param{Name: "noise_sd", Check: config.Float(), Default: 0.1, Desc: "Noise standard deviation"},
		)

	s.Section("attacker.text_grad", "Text Gradient").
		EnableIf(config.Equals(KeyAttacker, "text_grad")).
		Params(
			config.Param{Name: "lr", Check: config.Float(), Default: 0.01, Desc: "Learning rate"},
			config.Param{Name: "weight_decay", Check: config.Float(), Default: 0.1, Desc: "Weight decay"},
			config.Param{Name: "rand_init", Check: config.BoolAsInt(), Default: false, Desc: "Random initialization"},
		)

	s.Section("logger", "General logger configs").Params(
		config.Param{Name: "name", Check: config.Str(), Default: loggers.Timestamp(now), Desc: "Name of this run"},
	)

	s.Section("logger.json", "JSON logger").
		EnableIf(config.Equals(KeyLogger, "json")).
		Params(
			config.Param{Name: "root", Check: config.Folder(true), Default: "files/logs", Desc: "Path to log folder"},
		)

	return s
}
