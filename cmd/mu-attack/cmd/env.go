package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/picogrid/mu-attack/pkg/config"
	"github.com/picogrid/mu-attack/pkg/tasks"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage inference backends",
	Long:  `Manage the inference backends that tasks send generation requests to`,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured backends",
	RunE:  listBackends,
}

var envAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new backend",
	RunE:  addBackend,
}

var envRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a backend",
	RunE:  removeBackend,
}

var envSelectCmd = &cobra.Command{
	Use:   "select [name]",
	Short: "Select the backend used when task.backend is not set",
	Args:  cobra.MaximumNArgs(1),
	RunE:  selectBackend,
}

func init() {
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envAddCmd)
	envCmd.AddCommand(envRemoveCmd)
	envCmd.AddCommand(envSelectCmd)
}

func listBackends(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}

	if len(cfg.Backends) == 0 {
		fmt.Println("No backends configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tURL\tAPI KEY\tSELECTED")
	_, _ = fmt.Fprintln(w, "----\t---\t-------\t--------")

	for _, b := range cfg.Backends {
		keyInfo := "none"
		if b.APIKeyEnv != "" {
			keyInfo = fmt.Sprintf("$%s", b.APIKeyEnv)
		}
		selected := ""
		if b.Name == cfg.Selected {
			selected = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Name, b.URL, keyInfo, selected)
	}

	return w.Flush()
}

func addBackend(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}

	var b config.Backend

	namePrompt := &survey.Input{
		Message: "Backend name:",
	}
	if err := survey.AskOne(namePrompt, &b.Name, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	if _, exists := cfg.Find(b.Name); exists {
		return fmt.Errorf("backend %s already exists", b.Name)
	}

	urlPrompt := &survey.Input{
		Message: "Inference backend URL:",
		Default: config.DefaultBackendURL,
	}
	if err := survey.AskOne(urlPrompt, &b.URL, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	apiKeyPrompt := &survey.Input{
		Message: "API key environment variable:",
		Help:    "Name of the environment variable that contains the API key",
		Default: tasks.DefaultAPIKeyEnv,
	}
	if err := survey.AskOne(apiKeyPrompt, &b.APIKeyEnv); err != nil {
		return err
	}

	cfg.Backends = append(cfg.Backends, b)

	if err := config.SaveBackends(cfg); err != nil {
		return fmt.Errorf("failed to save backends: %w", err)
	}

	fmt.Printf("Backend %s added successfully\n", b.Name)
	return nil
}

func backendNames(cfg *config.Backends) []string {
	names := make([]string, len(cfg.Backends))
	for i, b := range cfg.Backends {
		names[i] = b.Name
	}
	return names
}

func removeBackend(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}

	if len(cfg.Backends) == 0 {
		fmt.Println("No backends to remove")
		return nil
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select backend to remove:",
		Options: backendNames(cfg),
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return err
	}

	var confirm bool
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("Are you sure you want to remove %s?", selected),
		Default: false,
	}
	if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
		return err
	}

	if !confirm {
		fmt.Println("Removal cancelled")
		return nil
	}

	dropBackend(cfg, selected)
	if err := config.SaveBackends(cfg); err != nil {
		return fmt.Errorf("failed to save backends: %w", err)
	}

	fmt.Printf("Backend %s removed successfully\n", selected)
	return nil
}

// dropBackend removes name from cfg and clears the selection if it pointed there
func dropBackend(cfg *config.Backends, name string) {
	kept := make([]config.Backend, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		if b.Name != name {
			kept = append(kept, b)
		}
	}
	cfg.Backends = kept
	if cfg.Selected == name {
		cfg.Selected = ""
	}
}

func selectBackend(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}

	var selected string
	if len(args) == 1 {
		selected = args[0]
	} else {
		prompt := &survey.Select{
			Message: "Select backend:",
			Options: backendNames(cfg),
		}
		if _, ok := cfg.Find(cfg.Selected); ok {
			prompt.Default = cfg.Selected
		}
		if err := survey.AskOne(prompt, &selected); err != nil {
			return err
		}
	}

	if _, ok := cfg.Find(selected); !ok {
		return fmt.Errorf("backend %s not found", selected)
	}
	cfg.Selected = selected

	if err := config.SaveBackends(cfg); err != nil {
		return fmt.Errorf("failed to save backends: %w", err)
	}

	fmt.Printf("Backend %s selected\n", selected)
	return nil
}
