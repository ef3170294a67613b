package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Config collects raw values for a schema from any number of sources and
// resolves them into validated values
type Config struct {
	mu       sync.RWMutex
	schema   *Schema
	raw      map[string]interface{}
	sources  map[string]string
	resolved map[string]interface{}
}

// New creates an empty configuration for the schema
func New(schema *Schema) *Config {
	return &Config{
		schema:  schema,
		raw:     make(map[string]interface{}),
		sources: make(map[string]string),
	}
}

// Schema returns the schema the configuration was built for
func (c *Config) Schema() *Schema {
	return c.schema
}

// Set records a raw value for key, overriding anything collected earlier.
// Keys outside the schema are rejected.
func (c *Config) Set(key string, value interface{}, source string) error {
	if _, _, ok := c.schema.Param(key); !ok {
		return fmt.Errorf("unknown parameter %s", key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raw[key] = value
	c.sources[key] = source
	c.resolved = nil
	return nil
}

// Collect records every known key from values. Unknown keys are returned so
// the caller can decide whether they matter.
func (c *Config) Collect(values map[string]interface{}, source string) []string {
	var unknown []string
	for key, v := range values {
		if err := c.Set(key, v, source); err != nil {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Get returns the current value for key: the validated value when available,
// else the raw collected value, else the param default
func (c *Config) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup(key)
}

func (c *Config) lookup(key string) interface{} {
	if c.resolved != nil {
		if v, ok := c.resolved[key]; ok {
			return v
		}
	}
	if v, ok := c.raw[key]; ok {
		return v
	}
	if _, p, ok := c.schema.Param(key); ok {
		return p.Default
	}
	return nil
}

// Source reports where the value for key came from ("default" when nothing
// was collected)
func (c *Config) Source(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if src, ok := c.sources[key]; ok {
		return src
	}
	return "default"
}

// Enabled reports whether a section is active. A dotted section is active
// only if its parent section is active as well.
func (c *Config) Enabled(name string) bool {
	sec, ok := c.schema.Lookup(name)
	if !ok {
		return false
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		if _, hasParent := c.schema.Lookup(name[:i]); hasParent && !c.Enabled(name[:i]) {
			return false
		}
	}
	if sec.cond == nil {
		return true
	}
	return sec.cond(c)
}

// Validate checks every param of every enabled section and caches the
// resolved values. All failures are reported together.
func (c *Config) Validate() error {
	resolved := make(map[string]interface{})
	verr := &ValidationError{}

	for _, sec := range c.schema.sections {
		if !c.Enabled(sec.Name) {
			continue
		}
		for _, p := range sec.params {
			key := Key(sec.Name, p.Name)

			c.mu.RLock()
			raw, collected := c.raw[key]
			c.mu.RUnlock()

			value := p.Default
			if collected {
				value = raw
			}
			if value == nil {
				if p.Required {
					verr.add(key, ErrMissing)
					continue
				}
				resolved[key] = nil
				continue
			}

			checked, err := p.Check.Check(value)
			if err != nil {
				verr.add(key, err)
				continue
			}
			resolved[key] = checked
		}
	}

	if len(verr.Errors) > 0 {
		return verr
	}

	c.mu.Lock()
	c.resolved = resolved
	c.mu.Unlock()
	return nil
}

// Validated reports whether Validate has succeeded since the last change
func (c *Config) Validated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved != nil
}

// Section returns the resolved values of an enabled section keyed by short
// param name. Disabled or unknown sections yield an empty map.
func (c *Config) Section(name string) map[string]interface{} {
	out := make(map[string]interface{})
	sec, ok := c.schema.Lookup(name)
	if !ok || !c.Enabled(name) {
		return out
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range sec.params {
		out[p.Name] = c.lookup(Key(name, p.Name))
	}
	return out
}

// All returns the values of every enabled param keyed by fully-qualified name
func (c *Config) All() map[string]interface{} {
	out := make(map[string]interface{})
	for _, sec := range c.schema.sections {
		for k, v := range c.Section(sec.Name) {
			out[Key(sec.Name, k)] = v
		}
	}
	return out
}

// Entry is one row of a configuration summary
type Entry struct {
	Key    string
	Value  interface{}
	Source string
}

// Entries lists the values of every enabled param in schema order
func (c *Config) Entries() []Entry {
	var entries []Entry
	for _, sec := range c.schema.sections {
		if !c.Enabled(sec.Name) {
			continue
		}
		for _, p := range sec.params {
			key := Key(sec.Name, p.Name)
			entries = append(entries, Entry{
				Key:    key,
				Value:  c.Get(key),
				Source: c.Source(key),
			})
		}
	}
	return entries
}

// MissingParam is a required param of an enabled section with no value
type MissingParam struct {
	Key   string
	Param *Param
}

// Missing lists required params of enabled sections that have no value yet
func (c *Config) Missing() []MissingParam {
	var missing []MissingParam
	for _, sec := range c.schema.sections {
		if !c.Enabled(sec.Name) {
			continue
		}
		for _, p := range sec.params {
			key := Key(sec.Name, p.Name)
			if p.Required && c.Get(key) == nil {
				missing = append(missing, MissingParam{Key: key, Param: p})
			}
		}
	}
	return missing
}

// ErrMissing marks a required parameter that has no value
var ErrMissing = errors.New("required parameter is missing")

// ParamError is a failure for a single parameter
type ParamError struct {
	Key string
	Err error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// ValidationError aggregates every parameter failure found by Validate
type ValidationError struct {
	Errors []*ParamError
}

func (e *ValidationError) add(key string, err error) {
	e.Errors = append(e.Errors, &ParamError{Key: key, Err: err})
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, pe := range e.Errors {
		lines = append(lines, "  "+pe.Error())
	}
	return fmt.Sprintf("invalid configuration (%d problem(s)):\n%s", len(e.Errors), strings.Join(lines, "\n"))
}

// Unwrap exposes the individual failures to errors.Is and errors.As
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		errs[i] = pe
	}
	return errs
}

// Keys returns the keys that failed validation
func (e *ValidationError) Keys() []string {
	keys := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		keys[i] = pe.Key
	}
	return keys
}
