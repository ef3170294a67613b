package loggers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/picogrid/mu-attack/pkg/attack"
	"github.com/picogrid/mu-attack/pkg/logger"
)

// Names of the registered loggers
const (
	None = "none"
	JSON = "json"
)

// Files written by the json logger into the run directory
const (
	ConfigFile = "config.json"
	LogFile    = "log.jsonl"
)

// Config holds the logger section parameters. Values is the resolved
// experiment configuration, injected by the runner.
type Config struct {
	Root   string                 `mapstructure:"root" validate:"required"`
	Name   string                 `mapstructure:"name" validate:"required"`
	Values map[string]interface{} `mapstructure:"config"`
}

type noneLogger struct{}

// NewNone returns a logger that discards everything
func NewNone() attack.Logger {
	return noneLogger{}
}

func (noneLogger) Log(attack.Record) error        { return nil }
func (noneLogger) Save(string, interface{}) error { return nil }
func (noneLogger) Close() error                   { return nil }

// JSONLogger writes a run directory holding the configuration, one JSON
// line per attack step and any saved artifacts
type JSONLogger struct {
	runID string
	dir   string

	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	count  int
	closed bool
}

// NewJSON creates <root>/<name>, writes the configuration and opens the step log
func NewJSON(cfg Config) (*JSONLogger, error) {
	dir := filepath.Join(cfg.Root, cfg.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &JSONLogger{
		runID: uuid.New().String(),
		dir:   dir,
	}

	if cfg.Values != nil {
		if err := l.Save(trimExt(ConfigFile), cfg.Values); err != nil {
			return nil, err
		}
	}

	file, err := os.OpenFile(filepath.Join(dir, LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open step log: %w", err)
	}
	l.file = file
	l.enc = json.NewEncoder(file)

	logger.WithField("run_id", l.runID).Infof("%s Logging to %s", logger.IconFolder, dir)
	return l, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// RunID returns the identifier of this run
func (l *JSONLogger) RunID() string {
	return l.runID
}

// Dir returns the run directory
func (l *JSONLogger) Dir() string {
	return l.dir
}

type line struct {
	RunID string `json:"run_id"`
	Step  int    `json:"step"`
	attack.Record
}

// Log appends one record to log.jsonl
func (l *JSONLogger) Log(rec attack.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("logger is closed")
	}
	if err := l.enc.Encode(line{RunID: l.runID, Step: l.count, Record: rec}); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	l.count++
	return nil
}

// Save writes v as <name>.json in the run directory, replacing any previous file
func (l *JSONLogger) Save(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(l.dir, name+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Close flushes the step log
func (l *JSONLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	logger.Debugf("Wrote %d records to %s", l.count, filepath.Join(l.dir, LogFile))
	return l.file.Close()
}

func init() {
	attack.Loggers.MustRegister(None, func(attack.Kwargs) (attack.Logger, error) {
		return NewNone(), nil
	})
	attack.Loggers.MustRegister(JSON, func(kw attack.Kwargs) (attack.Logger, error) {
		var cfg Config
		if err := kw.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewJSON(cfg)
	})
}

// Timestamp formats t the way default run names are formatted, down to the
// microsecond
func Timestamp(t time.Time) string {
	return strings.Replace(t.Format("2006-01-02-15-04-05.000000"), ".", "-", 1)
}
