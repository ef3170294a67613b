package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBackendURL is used when neither an endpoint nor a backend is configured
const DefaultBackendURL = "http://localhost:7860"

// Backend is a named inference server that hosts the diffusion models
type Backend struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// Backends holds the configured inference servers
type Backends struct {
	Backends []Backend `yaml:"backends"`
	Selected string    `yaml:"selected,omitempty"`
}

// Find returns the backend with the given name
func (b *Backends) Find(name string) (*Backend, bool) {
	for i := range b.Backends {
		if b.Backends[i].Name == name {
			return &b.Backends[i], true
		}
	}
	return nil, false
}

// BackendsPath returns the default location of the backends file
func BackendsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mu-attack", "environments.yaml"), nil
}

// LoadBackends loads backends from the default location
func LoadBackends() (*Backends, error) {
	path, err := BackendsPath()
	if err != nil {
		return nil, err
	}
	return LoadBackendsFromFile(path)
}

// LoadBackendsFromFile loads backends from a specific file
func LoadBackendsFromFile(path string) (*Backends, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return getDefaultBackends(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backends file: %w", err)
	}

	var backends Backends
	if err := yaml.Unmarshal(data, &backends); err != nil {
		return nil, fmt.Errorf("failed to parse backends file: %w", err)
	}

	return &backends, nil
}

// SaveBackends saves backends to the default location
func SaveBackends(backends *Backends) error {
	path, err := BackendsPath()
	if err != nil {
		return err
	}
	return SaveBackendsToFile(backends, path)
}

// SaveBackendsToFile saves backends to a specific file
func SaveBackendsToFile(backends *Backends, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(backends)
	if err != nil {
		return fmt.Errorf("failed to marshal backends: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backends file: %w", err)
	}

	return nil
}

func getDefaultBackends() *Backends {
	return &Backends{
		Backends: []Backend{
			{
				Name:      "local",
				URL:       DefaultBackendURL,
				APIKeyEnv: "MU_ATTACK_API_KEY",
			},
		},
	}
}
