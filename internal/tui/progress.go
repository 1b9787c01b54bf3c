package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	progressTickInterval = 100 * time.Millisecond
	progressMaxWidth     = 60
)

// ProgressSource is the live view of a running benchmark
type ProgressSource interface {
	Counts() (total, success, failure int)
	Elapsed() time.Duration
	Done() bool
}

type tickMsg time.Time

// ProgressModel renders the progress of one run until it is done
type ProgressModel struct {
	source   ProgressSource
	title    string
	expected int
	bar      progress.Model

	total    int
	success  int
	failure  int
	elapsed  time.Duration
	done     bool
	detached bool // user pressed q; the run keeps going without the view
}

// NewProgressModel creates a progress view for expected iterations
func NewProgressModel(source ProgressSource, title string, expected int) ProgressModel {
	return ProgressModel{
		source:   source,
		title:    title,
		expected: expected,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func tick() tea.Cmd {
	return tea.Tick(progressTickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts polling
func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

// Update handles ticks, resizes and the quit keys
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.detached = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, progressMaxWidth)
	case tickMsg:
		m.refresh()
		if m.done {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m *ProgressModel) refresh() {
	m.total, m.success, m.failure = m.source.Counts()
	m.elapsed = m.source.Elapsed()
	m.done = m.source.Done()
}

// Percent returns the completed fraction in [0, 1]
func (m ProgressModel) Percent() float64 {
	if m.expected == 0 {
		return 0
	}
	return min(float64(m.total)/float64(m.expected), 1)
}

// View renders the progress box
func (m ProgressModel) View() string {
	var content strings.Builder

	content.WriteString(styleTitle.Render(m.title) + "\n\n")
	content.WriteString(fmt.Sprintf("%d/%d requests (%.1f%%)\n", m.total, m.expected, m.Percent()*100))
	content.WriteString(m.bar.ViewAs(m.Percent()) + "\n\n")

	content.WriteString(styleSuccess.Render(fmt.Sprintf("Success: %d", m.success)) + "   ")
	content.WriteString(styleError.Render(fmt.Sprintf("Failed: %d", m.failure)) + "\n")

	rps := 0.0
	if m.elapsed.Seconds() > 0 {
		rps = float64(m.total) / m.elapsed.Seconds()
	}
	content.WriteString(fmt.Sprintf("Elapsed: %s   Requests/sec: %.2f\n", formatDuration(m.elapsed), rps))

	footer := "q: hide progress (the run continues)"
	if m.done {
		footer = "done"
	}
	content.WriteString("\n" + styleSubtle.Render(footer))

	return styleBox.Render(content.String()) + "\n"
}

// RunProgress shows the progress view on out until source is done or the
// user hides it
func RunProgress(source ProgressSource, title string, expected int, out io.Writer) error {
	m := NewProgressModel(source, title, expected)
	p := tea.NewProgram(m, tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress view: %w", err)
	}
	return nil
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
