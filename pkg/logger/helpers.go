package logger

import (
	"fmt"
	"strings"
)

// Icons and symbols for different log types
const (
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconRocket  = "🚀"
	IconConfig  = "⚙️"
	IconNetwork = "🌐"
	IconTarget  = "🎯"
	IconFolder  = "📁"
	IconRefresh = "🔄"
	IconDot     = "•"
	IconArrow   = "→"
)

// Success logs a success message with a green checkmark
func Success(args ...interface{}) {
	defaultLogger.Info(IconSuccess + " " + fmt.Sprint(args...))
}

// Successf logs a formatted success message
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Progress logs a progress message with a refresh icon
func Progress(args ...interface{}) {
	defaultLogger.Info(IconRefresh + " " + fmt.Sprint(args...))
}

// Progressf logs a formatted progress message
func Progressf(format string, args ...interface{}) {
	Progress(fmt.Sprintf(format, args...))
}

// Networkf logs a formatted message about the inference backend
func Networkf(format string, args ...interface{}) {
	defaultLogger.Info(IconNetwork + " " + fmt.Sprintf(format, args...))
}

func colored() bool {
	if l, ok := defaultLogger.(*logger); ok {
		l.mu.Lock()
		defer l.mu.Unlock()
		return !*l.noColor
	}
	return false
}

// LogSection creates a visual section separator
func LogSection(title string) {
	w := Output()
	line := strings.Repeat("=", 50)

	if colored() {
		_, _ = fmt.Fprintln(w, colorAccent.Sprint(line))
		_, _ = fmt.Fprintln(w, colorTitle.Sprint(title))
		_, _ = fmt.Fprintln(w, colorAccent.Sprint(line))
		return
	}
	_, _ = fmt.Fprintln(w, line)
	_, _ = fmt.Fprintln(w, title)
	_, _ = fmt.Fprintln(w, line)
}

// LogList logs a list of items with bullets
func LogList(title string, items []string) {
	Info(title)
	w := Output()
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  %s %s\n", IconDot, item)
	}
}

// LogKeyValue logs a key-value pair with nice formatting
func LogKeyValue(key string, value interface{}) {
	w := Output()
	if colored() {
		_, _ = fmt.Fprintf(w, "%s %v\n", colorAccent.Sprint(key+":"), value)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: %v\n", key, value)
}

// Table represents a simple table for logging
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// Render writes the table as aligned columns
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		line := make([]string, 0, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			line = append(line, fmt.Sprintf("%-*s", widths[i], cell))
		}
		b.WriteString(strings.TrimRight(strings.Join(line, "  "), " "))
		b.WriteString("\n")
	}

	writeRow(t.headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range t.rows {
		writeRow(row)
	}
	return b.String()
}

// Print prints the table to the default logger's output
func (t *Table) Print() {
	_, _ = fmt.Fprint(Output(), t.Render())
}
