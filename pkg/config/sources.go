package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Source names recorded for collected values
const (
	SourceFlag   = "flag"
	SourceViper  = "env/file"
	SourceResume = "resume"
	SourcePrompt = "prompt"
)

// EnvPrefix is the prefix of environment variables mapped onto params, so
// attacker.gcg.candidate_size is read from MU_ATTACK_ATTACKER_GCG_CANDIDATE_SIZE
const EnvPrefix = "MU_ATTACK"

// AugmentFlags registers one string flag per param, named by its
// fully-qualified key (--attacker.gcg.candidate_size)
func (c *Config) AugmentFlags(fs *pflag.FlagSet) {
	for _, sec := range c.schema.sections {
		for _, p := range sec.params {
			key := Key(sec.Name, p.Name)
			if fs.Lookup(key) != nil {
				continue
			}
			fs.String(key, "", flagUsage(sec, p))
		}
	}
}

func flagUsage(sec *Section, p *Param) string {
	var b strings.Builder
	b.WriteString(p.Desc)
	b.WriteString(" (")
	b.WriteString(p.Check.Help())
	switch {
	case p.Required:
		b.WriteString(", required")
	case p.Default != nil:
		fmt.Fprintf(&b, ", default %v", p.Default)
	}
	b.WriteString(")")
	if sec.Conditional() {
		b.WriteString(" [" + sec.Name + "]")
	}
	return b.String()
}

// CollectFlags records every schema flag the user actually set
func (c *Config) CollectFlags(fs *pflag.FlagSet) error {
	var firstErr error
	fs.Visit(func(f *pflag.Flag) {
		if _, _, ok := c.schema.Param(f.Name); !ok {
			return
		}
		if err := c.Set(f.Name, f.Value.String(), SourceFlag); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}

// NewViper returns a viper instance that maps MU_ATTACK_* environment
// variables onto schema keys
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// CollectViper records every schema key that is set in v, either from its
// config file or from the environment
func (c *Config) CollectViper(v *viper.Viper) {
	for _, sec := range c.schema.sections {
		for _, p := range sec.params {
			key := Key(sec.Name, p.Name)
			if !v.IsSet(key) {
				continue
			}
			_ = c.Set(key, v.Get(key), SourceViper)
		}
	}
}

// CollectFile records values from a JSON file holding either flat
// fully-qualified keys or nested section objects. Keys outside the schema
// are returned unrecorded.
func (c *Config) CollectFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var content map[string]interface{}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	flat := make(map[string]interface{})
	flatten("", content, flat)
	return c.Collect(flat, SourceResume), nil
}

func flatten(prefix string, in map[string]interface{}, out map[string]interface{}) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}
