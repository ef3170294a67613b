package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Spinner represents an animated spinner for long-running operations
type Spinner struct {
	mu       sync.Mutex
	active   bool
	message  string
	frames   []string
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

// SpinnerDots are the default spinner frames
var SpinnerDots = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner with the default frames
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message:  message,
		frames:   SpinnerDots,
		interval: 100 * time.Millisecond,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start starts the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		w := Output()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			message := s.message
			s.mu.Unlock()

			frame := s.frames[i%len(s.frames)]
			if colored() {
				frame = colorAccent.Sprint(frame)
			}
			_, _ = fmt.Fprintf(w, "\r%s %s", frame, message)

			select {
			case <-s.stopChan:
				_, _ = fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", len(message)+10))
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the spinner and waits for the line to be cleared
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.stopChan)
	s.mu.Unlock()
	<-s.done
}

// WithSpinner runs a function with a spinner
func WithSpinner(message string, fn func() error) error {
	spinner := NewSpinner(message)
	spinner.Start()

	err := fn()
	spinner.Stop()

	if err != nil {
		Error(IconError + " " + fmt.Sprintf("%s failed: %v", message, err))
	} else {
		Success(fmt.Sprintf("%s completed", message))
	}

	return err
}

// ProgressBar represents a simple progress bar
type ProgressBar struct {
	total   int
	current int
	width   int
	message string
}

// NewProgressBar creates a new progress bar
func NewProgressBar(total int, message string) *ProgressBar {
	if total < 1 {
		total = 1
	}
	return &ProgressBar{
		total:   total,
		width:   40,
		message: message,
	}
}

// Increment increments the progress bar by 1
func (p *ProgressBar) Increment() {
	p.current++
	p.draw()
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	p.current = p.total
	p.draw()
	_, _ = fmt.Fprintln(Output())
}

func (p *ProgressBar) draw() {
	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(p.width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	w := Output()
	if colored() {
		_, _ = fmt.Fprintf(w, "\r%s: %s %3.0f%%", p.message, colorInfo.Sprint(bar), percent*100)
		return
	}
	_, _ = fmt.Fprintf(w, "\r%s: [%s] %3.0f%%", p.message, bar, percent*100)
}
