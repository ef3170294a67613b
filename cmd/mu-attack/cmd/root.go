package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/picogrid/mu-attack/pkg/config"
	"github.com/picogrid/mu-attack/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool

	// v holds the config file and MU_ATTACK_* environment layer
	v *viper.Viper
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mu-attack",
	Short: "Attacks on concept-unlearned diffusion models",
	Long: `mu-attack runs adversarial prompt attacks against text-to-image
diffusion models that had a concept erased, to check whether the
concept can still be regenerated.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mu-attack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add commands
	rootCmd.AddCommand(attackCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(envCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	logger.SetLevel(logger.ParseLevel(logLevel))
	logger.SetNoColor(noColor || !term.IsTerminal(int(os.Stdout.Fd())))

	v = config.NewViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warnf("Failed to read config file %s: %v", cfgFile, err)
		}
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	v.AddConfigPath(filepath.Join(home, ".mu-attack"))
	v.SetConfigType("yaml")
	v.SetConfigName("config")

	// If a config file is found, read it in
	_ = v.ReadInConfig()
}
