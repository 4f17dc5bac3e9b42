package commands

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerChars = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true)
)

// spinner handles the animated loading indicator for one-shot commands.
type spinner struct {
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	stopped bool
}

// newSpinner creates a new animated spinner
func newSpinner(message string) *spinner {
	return &spinner{
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation on stderr.
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(os.Stderr, "\033[?25l") // hide cursor
		frame := 0
		for {
			select {
			case <-s.stop:
				fmt.Fprint(os.Stderr, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				char := spinnerStyle.Render(spinnerChars[frame%len(spinnerChars)])
				fmt.Fprintf(os.Stderr, "\r\033[K%s %s", char, s.message)
				frame++
			}
		}
	}()
}

func (s *spinner) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stop)
	<-s.done
}

// stopWithSuccess ends the animation with a success mark.
func (s *spinner) stopWithSuccess(message string) {
	s.halt()
	fmt.Fprintf(os.Stderr, "%s %s\n", successStyle.Render("✓"), message)
}

// stopWithError ends the animation with a failure mark.
func (s *spinner) stopWithError() {
	s.halt()
	fmt.Fprintf(os.Stderr, "%s %s\n", failStyle.Render("✗"), s.message)
}

// stopQuiet ends the animation without a status line.
func (s *spinner) stopQuiet() {
	s.halt()
}
