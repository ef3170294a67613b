package prompt

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"

	"github.com/picogrid/mu-attack/pkg/config"
)

// SkipEnv disables prompting when set to "true" (CI and automation)
const SkipEnv = "MU_ATTACK_SKIP_PROMPTS"

// ask is replaced in tests
var ask = survey.AskOne

// Interactive reports whether prompts can be shown
func Interactive() bool {
	if os.Getenv(SkipEnv) == "true" {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// FillMissing asks for every required param that has no value. Answers can
// enable further sections (choosing an attacker enables its section), so it
// keeps asking until nothing is missing.
func FillMissing(cfg *config.Config) error {
	asked := make(map[string]bool)
	for {
		missing := cfg.Missing()
		progressed := false
		for _, m := range missing {
			if asked[m.Key] {
				continue
			}
			asked[m.Key] = true
			progressed = true

			value, err := promptForParam(m.Key, m.Param)
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", m.Key, err)
			}
			if err := cfg.Set(m.Key, value, config.SourcePrompt); err != nil {
				return err
			}
		}
		if !progressed {
			return nil
		}
	}
}

func promptForParam(key string, p *config.Param) (interface{}, error) {
	message := fmt.Sprintf("%s (%s):", p.Desc, key)

	if options := config.OptionsOf(p.Check); len(options) > 0 {
		var result string
		prompt := &survey.Select{
			Message: message,
			Options: options,
		}
		if err := ask(prompt, &result); err != nil {
			return nil, err
		}
		return result, nil
	}

	if config.IsBool(p.Check) {
		var result bool
		prompt := &survey.Confirm{Message: message}
		if err := ask(prompt, &result); err != nil {
			return nil, err
		}
		return result, nil
	}

	var result string
	prompt := &survey.Input{
		Message: message,
		Help:    p.Check.Help(),
	}
	validator := survey.ComposeValidators(survey.Required, func(val interface{}) error {
		_, err := p.Check.Check(val)
		return err
	})
	if err := ask(prompt, &result, survey.WithValidator(validator)); err != nil {
		return nil, err
	}
	return result, nil
}
