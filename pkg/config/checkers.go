package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Checker validates a raw parameter value and converts it to its typed form.
// Raw values arrive as strings (flags, env), float64 (JSON) or already typed
// values (defaults, programmatic collection).
type Checker interface {
	Check(v interface{}) (interface{}, error)
	Help() string
}

type intChecker struct{}

// Int accepts integers, integral floats and numeric strings.
func Int() Checker { return intChecker{} }

func (intChecker) Check(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return nil, fmt.Errorf("%v is not an integer", val)
		}
		return int(val), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", val)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("expected an integer, got %T", v)
	}
}

func (intChecker) Help() string { return "int" }

type floatChecker struct{}

// Float accepts any number or numeric string.
func Float() Checker { return floatChecker{} }

func (floatChecker) Check(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected a number, got %T", v)
	}
}

func (floatChecker) Help() string { return "float" }

type strChecker struct{}

// Str accepts strings and stringifies scalars.
func Str() Checker { return strChecker{} }

func (strChecker) Check(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool, int, int64, float64:
		return fmt.Sprint(val), nil
	default:
		return nil, fmt.Errorf("expected a string, got %T", v)
	}
}

func (strChecker) Help() string { return "str" }

type boolAsIntChecker struct{}

// BoolAsInt accepts booleans written as 0/1 as well as true/false.
func BoolAsInt() Checker { return boolAsIntChecker{} }

func (boolAsIntChecker) Check(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case int:
		return intToBool(val)
	case float64:
		if val != math.Trunc(val) {
			return nil, fmt.Errorf("%v is not 0 or 1", val)
		}
		return intToBool(int(val))
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q (use 0 or 1)", val)
	default:
		return nil, fmt.Errorf("expected 0 or 1, got %T", v)
	}
}

func intToBool(i int) (interface{}, error) {
	switch i {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return nil, fmt.Errorf("%d is not 0 or 1", i)
}

func (boolAsIntChecker) Help() string { return "0|1" }

type oneOfChecker struct {
	options []string
}

// OneOf accepts exactly one of the listed values.
func OneOf(options ...string) Checker {
	return oneOfChecker{options: options}
}

func (c oneOfChecker) Check(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	for _, opt := range c.options {
		if s == opt {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%q is not one of [%s]", s, strings.Join(c.options, ", "))
}

func (c oneOfChecker) Help() string { return "one of " + strings.Join(c.options, "|") }

// Options returns the accepted values.
func (c oneOfChecker) Options() []string { return c.options }

type folderChecker struct {
	create bool
}

// Folder accepts a path to an existing directory. With create set, a missing
// directory is created instead of rejected.
func Folder(create bool) Checker { return folderChecker{create: create} }

func (c folderChecker) Check(v interface{}) (interface{}, error) {
	path, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected a path, got %T", v)
	}
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return path, nil
	case err == nil:
		return nil, fmt.Errorf("%s is not a directory", path)
	case os.IsNotExist(err) && c.create:
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", path, err)
		}
		return path, nil
	case os.IsNotExist(err):
		return nil, fmt.Errorf("directory %s does not exist", path)
	default:
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
}

func (c folderChecker) Help() string { return "folder" }

type anyChecker struct{}

// Any accepts every value unchanged.
func Any() Checker { return anyChecker{} }

func (anyChecker) Check(v interface{}) (interface{}, error) { return v, nil }

func (anyChecker) Help() string { return "any" }

// OptionsOf returns the accepted values of a OneOf checker, or nil.
func OptionsOf(c Checker) []string {
	if o, ok := c.(oneOfChecker); ok {
		return o.Options()
	}
	return nil
}

// IsBool reports whether c is a BoolAsInt checker.
func IsBool(c Checker) bool {
	_, ok := c.(boolAsIntChecker)
	return ok
}
