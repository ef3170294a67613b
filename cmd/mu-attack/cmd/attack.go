package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/picogrid/mu-attack/pkg/config"
	"github.com/picogrid/mu-attack/pkg/experiment"
	"github.com/picogrid/mu-attack/pkg/logger"
	"github.com/picogrid/mu-attack/pkg/prompt"

	// Import variants to register them
	_ "github.com/picogrid/mu-attack/pkg/attackers"
	_ "github.com/picogrid/mu-attack/pkg/loggers"
	_ "github.com/picogrid/mu-attack/pkg/tasks"
)

var (
	quiet       bool
	interactive bool
	skipHealth  bool

	// schema is built once so the default run name is the launch time
	schema = experiment.NewSchema(time.Now())
)

var attackCmd = &cobra.Command{
	Use:   "attack",
	Short: "Run an attack experiment",
	Long: `Run an attack experiment. Every schema parameter is available as a
--section.param flag, e.g. --overall.attacker=gcg --attacker.gcg.candidate_size=64.

Values are resolved from, lowest precedence first: defaults, the config file,
MU_ATTACK_* environment variables, flags and <overall.resume>/config.json.`,
	Example: `  mu-attack attack --overall.task=classifier --overall.attacker=gcg \
    --task.concept=Van_Gogh --task.dataset_path=files/dataset/van_gogh ...`,
	RunE: runAttack,
}

func init() {
	config.New(schema).AugmentFlags(attackCmd.Flags())
	attackCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the configuration summary")
	attackCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for missing required parameters")
	attackCmd.Flags().BoolVar(&skipHealth, "skip-health-check", false, "do not check the inference backend before attacking")
}

type pinger interface {
	Ping(ctx context.Context) error
}

func runAttack(cmd *cobra.Command, _ []string) error {
	opts := experiment.Options{
		Flags: cmd.Flags(),
		Viper: v,
		Quiet: quiet,
	}
	if interactive {
		if !prompt.Interactive() {
			return fmt.Errorf("--interactive needs a terminal")
		}
		opts.Prompt = prompt.FillMissing
	}

	cfg, err := experiment.MakeConfig(schema, opts)
	if err != nil {
		return err
	}

	runner, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.Errorf("Failed to release resources: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Warn("\nReceived interrupt signal, stopping attack...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if p, ok := runner.Task.(pinger); ok && !skipHealth {
		err := logger.WithSpinner("Checking inference backend...", func() error {
			return p.Ping(ctx)
		})
		if err != nil {
			return fmt.Errorf("inference backend is not reachable: %w", err)
		}
		logger.Success("Inference backend is up")
	}

	logger.LogSection(fmt.Sprintf("Starting %s", runner.Attacker.Name()))
	if err := runner.Run(ctx); err != nil {
		return err
	}

	logger.Successf("Attack %s completed", runner.Attacker.Name())
	return nil
}
