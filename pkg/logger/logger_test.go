package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(Config{Level: WarnLevel, Writer: &buf, NoColor: true})

	l.Info("hidden")
	l.Warn("shown")
	l.Errorf("code %d", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  shown")
	assert.Contains(t, out, "ERROR code 7")
}

func TestFieldsAndPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(Config{Level: DebugLevel, Writer: &buf, NoColor: true})

	l.WithPrefix("gcg").WithFields(map[string]interface{}{"b": 2, "a": 1}).Debug("step")

	assert.Equal(t, "DEBUG [gcg] a=1 b=2 step\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
}

func TestTableRender(t *testing.T) {
	table := NewTable("KEY", "VALUE")
	table.AddRow("overall.seed", "0")
	table.AddRow("k", "3")

	lines := strings.Split(strings.TrimSpace(table.Render()), "\n")
	assert.Equal(t, []string{
		"KEY           VALUE",
		"------------  -----",
		"overall.seed  0",
		"k             3",
	}, lines)
}

func TestDefaultLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := Output()
	SetOutput(&buf)
	SetNoColor(true)
	t.Cleanup(func() {
		SetOutput(prev)
		SetLevel(InfoLevel)
	})

	SetLevel(ErrorLevel)
	assert.False(t, Enabled(InfoLevel))
	Info("quiet")
	Error("loud")
	LogKeyValue("seed", 3)

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.Contains(t, out, "seed: 3")
}

func TestIconHelpers(t *testing.T) {
	var buf bytes.Buffer
	prev := Output()
	SetOutput(&buf)
	SetNoColor(true)
	SetLevel(InfoLevel)
	t.Cleanup(func() { SetOutput(prev) })

	Successf("attack %s completed", "gcg")
	Progressf("attacking %d prompt(s)", 2)
	LogList("Ignoring unknown keys:", []string{"old.key", "stale.key"})

	out := buf.String()
	assert.Contains(t, out, IconSuccess+" attack gcg completed")
	assert.Contains(t, out, IconRefresh+" attacking 2 prompt(s)")
	assert.Contains(t, out, "Ignoring unknown keys:")
	assert.Contains(t, out, "  "+IconDot+" old.key\n")
	assert.Contains(t, out, "  "+IconDot+" stale.key\n")
}
