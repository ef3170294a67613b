package config

import (
	"fmt"
	"strings"
)

// Param defines a single configurable value inside a section
type Param struct {
	Name     string
	Check    Checker
	Default  interface{}
	Required bool
	Desc     string
}

// Condition decides whether a section is active for the given configuration
type Condition func(c *Config) bool

// Section groups related params under a dotted name such as "attacker.gcg"
type Section struct {
	Name   string
	Desc   string
	params []*Param
	index  map[string]*Param
	cond   Condition
	schema *Schema
}

// Schema is an ordered set of sections
type Schema struct {
	sections []*Section
	index    map[string]*Section
}

// NewSchema creates an empty schema
func NewSchema() *Schema {
	return &Schema{index: make(map[string]*Section)}
}

// Section declares a new section, or returns the existing one with that name
func (s *Schema) Section(name, desc string) *Section {
	if sec, ok := s.index[name]; ok {
		return sec
	}
	sec := &Section{
		Name:   name,
		Desc:   desc,
		index:  make(map[string]*Param),
		schema: s,
	}
	s.sections = append(s.sections, sec)
	s.index[name] = sec
	return sec
}

// Params adds params to the section. Declaring the same param twice panics,
// since schemas are built at startup.
func (sec *Section) Params(params ...Param) *Section {
	for i := range params {
		p := params[i]
		if p.Check == nil {
			p.Check = Any()
		}
		if _, exists := sec.index[p.Name]; exists {
			panic(fmt.Sprintf("param %s.%s declared twice", sec.Name, p.Name))
		}
		sec.params = append(sec.params, &p)
		sec.index[p.Name] = &p
	}
	return sec
}

// EnableIf makes the section active only when cond holds
func (sec *Section) EnableIf(cond Condition) *Section {
	sec.cond = cond
	return sec
}

// Conditional reports whether the section carries an enable condition
func (sec *Section) Conditional() bool {
	return sec.cond != nil
}

// ParamList returns the section's params in declaration order
func (sec *Section) ParamList() []*Param {
	out := make([]*Param, len(sec.params))
	copy(out, sec.params)
	return out
}

// Sections returns all sections in declaration order
func (s *Schema) Sections() []*Section {
	out := make([]*Section, len(s.sections))
	copy(out, s.sections)
	return out
}

// Lookup finds the section by name
func (s *Schema) Lookup(name string) (*Section, bool) {
	sec, ok := s.index[name]
	return sec, ok
}

// Param resolves a fully-qualified key like "attacker.gcg.candidate_size"
func (s *Schema) Param(key string) (*Section, *Param, bool) {
	i := strings.LastIndex(key, ".")
	if i <= 0 {
		return nil, nil, false
	}
	sec, ok := s.index[key[:i]]
	if !ok {
		return nil, nil, false
	}
	p, ok := sec.index[key[i+1:]]
	if !ok {
		return nil, nil, false
	}
	return sec, p, true
}

// Key returns the fully-qualified name of a param in a section
func Key(section, param string) string {
	return section + "." + param
}

// Equals is a condition that holds when key currently has value
func Equals(key string, value interface{}) Condition {
	return func(c *Config) bool {
		return c.Get(key) == value
	}
}
