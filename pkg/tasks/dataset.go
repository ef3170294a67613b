package tasks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/picogrid/mu-attack/pkg/attack"
)

// PromptsFile is the prompt table expected inside a dataset directory
const PromptsFile = "prompts.csv"

// LoadPrompts reads <dir>/prompts.csv. The prompt column is required;
// case_number defaults to the row index and evaluation_seed to attack.NoSeed.
func LoadPrompts(dir string) ([]attack.Prompt, error) {
	path := filepath.Join(dir, PromptsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	prompts, err := ReadPrompts(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return prompts, nil
}

// ReadPrompts parses a prompt table with a header row
func ReadPrompts(r io.Reader) ([]attack.Prompt, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty prompt table")
	}
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	promptCol, ok := columns["prompt"]
	if !ok {
		return nil, fmt.Errorf("missing prompt column")
	}
	caseCol, hasCase := columns["case_number"]
	seedCol, hasSeed := columns["evaluation_seed"]

	var prompts []attack.Prompt
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		p := attack.Prompt{ID: row, Seed: attack.NoSeed}
		if p.Text, err = field(record, promptCol); err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		if hasCase {
			if p.ID, err = intField(record, caseCol); err != nil {
				return nil, fmt.Errorf("row %d: case_number: %w", row+1, err)
			}
		}
		if hasSeed {
			seed, err := intField(record, seedCol)
			if err != nil {
				return nil, fmt.Errorf("row %d: evaluation_seed: %w", row+1, err)
			}
			p.Seed = int64(seed)
		}
		prompts = append(prompts, p)
	}

	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompt table has no rows")
	}
	return prompts, nil
}

func field(record []string, col int) (string, error) {
	if col >= len(record) {
		return "", fmt.Errorf("missing column %d", col+1)
	}
	return strings.TrimSpace(record[col]), nil
}

func intField(record []string, col int) (int, error) {
	s, err := field(record, col)
	if err != nil {
		return 0, err
	}
	// Some exports write integers as floats (e.g. "42.0")
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return 0, fmt.Errorf("invalid integer %q", s)
}
