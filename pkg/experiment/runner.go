package experiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/picogrid/mu-attack/pkg/attack"
	"github.com/picogrid/mu-attack/pkg/config"
	"github.com/picogrid/mu-attack/pkg/logger"
	"github.com/picogrid/mu-attack/pkg/seed"
)

// Options controls where MakeConfig collects values from
type Options struct {
	// Flags holds the schema flags registered with AugmentFlags
	Flags *pflag.FlagSet

	// Viper supplies values from a config file and MU_ATTACK_* variables
	Viper *viper.Viper

	// Prompt fills missing required params before validation
	Prompt func(cfg *config.Config) error

	// Quiet suppresses the configuration summary
	Quiet bool
}

// MakeConfig collects values from every source, lowest precedence first,
// then validates them. A resume file overrides everything except
// overall.resume itself.
func MakeConfig(schema *config.Schema, opts Options) (*config.Config, error) {
	cfg := config.New(schema)

	if opts.Viper != nil {
		cfg.CollectViper(opts.Viper)
	}
	if opts.Flags != nil {
		if err := cfg.CollectFlags(opts.Flags); err != nil {
			return nil, err
		}
	}

	if err := collectResume(cfg); err != nil {
		return nil, err
	}

	if opts.Prompt != nil {
		if err := opts.Prompt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !opts.Quiet {
		Summary(cfg)
	}
	return cfg, nil
}

func collectResume(cfg *config.Config) error {
	resume, ok := cfg.Get(KeyResume).(string)
	if !ok || resume == "" {
		return nil
	}
	source := cfg.Source(KeyResume)

	path := filepath.Join(resume, ResumeFile)
	unknown, err := cfg.CollectFile(path)
	if err != nil {
		return fmt.Errorf("failed to resume from %s: %w", resume, err)
	}
	if len(unknown) > 0 {
		logger.LogList(fmt.Sprintf("Ignoring unknown keys in %s:", path), unknown)
	}

	// the directory being resumed from wins over the one it recorded
	if err := cfg.Set(KeyResume, resume, source); err != nil {
		return err
	}
	logger.Infof("%s Resuming from %s", logger.IconRefresh, path)
	return nil
}

// Summary prints the resolved configuration
func Summary(cfg *config.Config) {
	logger.LogSection("Configuration")
	table := logger.NewTable("PARAMETER", "VALUE", "SOURCE")
	for _, e := range cfg.Entries() {
		value := "-"
		if e.Value != nil {
			value = fmt.Sprintf("%v", e.Value)
		}
		table.AddRow(e.Key, value, e.Source)
	}
	table.Print()
}

// Runner owns the components of one experiment
type Runner struct {
	Config   *config.Config
	Seed     *seed.Sources
	Task     attack.Task
	Attacker attack.Attacker
	Logger   attack.Logger
}

// New seeds the random sources and builds the task, the attacker and the
// logger in that order. Components already built are closed on failure.
func New(cfg *config.Config) (*Runner, error) {
	if !cfg.Validated() {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	r := &Runner{Config: cfg}
	r.setupSeed()

	var err error
	if r.Task, err = build(attack.Tasks, cfg, KeyTask, nil); err != nil {
		return nil, r.abort(err)
	}
	if r.Attacker, err = build(attack.Attackers, cfg, KeyAttacker, nil); err != nil {
		return nil, r.abort(err)
	}
	extra := attack.Kwargs{"config": cfg.All()}
	if r.Logger, err = build(attack.Loggers, cfg, KeyLogger, extra); err != nil {
		return nil, r.abort(err)
	}
	return r, nil
}

func (r *Runner) setupSeed() {
	s, _ := r.Config.Get(KeySeed).(int)
	r.Seed = seed.Setup(int64(s))
	logger.Debugf("Seeded random sources with %d", s)
}

// build merges the generic section of a kind with the selected variant's
// section and constructs the variant from the registry
func build[T any](reg *attack.Registry[T], cfg *config.Config, selector string, extra attack.Kwargs) (T, error) {
	var zero T

	name, ok := cfg.Get(selector).(string)
	if !ok || name == "" {
		return zero, fmt.Errorf("%s is not set", selector)
	}

	kind := reg.Kind()
	kw := attack.Kwargs(cfg.Section(kind)).Merge(cfg.Section(kind+"."+name), extra)

	v, err := reg.Get(name, kw)
	if err != nil {
		return zero, err
	}
	logger.Debugf("Built %s %s", kind, name)
	return v, nil
}

func (r *Runner) abort(err error) error {
	if cerr := r.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// Run hands control to the attacker, then releases every component
func (r *Runner) Run(ctx context.Context) error {
	logger.Infof("%s Running %s against %s (%s)", logger.IconRocket, r.Attacker.Name(), r.Task.Name(), r.Task.Concept())

	err := r.Attacker.Run(ctx, r.Task, r.Logger)
	if cerr := r.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return fmt.Errorf("attack failed: %w", err)
	}
	return nil
}

// Close releases the logger and the task. It is safe to call more than once.
func (r *Runner) Close() error {
	var errs []error
	if r.Logger != nil {
		if err := r.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close logger: %w", err))
		}
		r.Logger = nil
	}
	if r.Task != nil {
		if err := r.Task.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close task: %w", err))
		}
		r.Task = nil
	}
	return errors.Join(errs...)
}
