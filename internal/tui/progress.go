// internal/tui/progress.go
// Package tui renders the report pipeline as a Bubble Tea step list: a
// spinner on the running step, a status glyph per finished step, and an
// elapsed timer. The pipeline runs in its own goroutine and announces
// transitions through Program.Send.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned by Run when the user quits before the pipeline
// finishes.
var ErrAborted = errors.New("aborted by user")

// StepStatus is the lifecycle state of one pipeline step.
type StepStatus int

const (
	// StepPending means the step has not started yet.
	StepPending StepStatus = iota
	// StepRunning means the step is in progress.
	StepRunning
	// StepDone means the step completed.
	StepDone
	// StepSkipped means the step was deliberately not run.
	StepSkipped
	// StepFailed means the step errored; the pipeline stops here.
	StepFailed
)

// Step is one pipeline stage shown in the progress list.
type Step struct {
	Name   string
	Status StepStatus
	Detail string
}

// StepStartedMsg marks a step as running.
type StepStartedMsg struct{ Index int }

// StepDoneMsg marks a step as completed, with an optional short detail
// shown next to the name.
type StepDoneMsg struct {
	Index  int
	Detail string
}

// StepSkippedMsg marks a step as skipped.
type StepSkippedMsg struct {
	Index  int
	Detail string
}

// StepFailedMsg marks a step as failed.
type StepFailedMsg struct {
	Index int
	Err   error
}

// FinishedMsg ends the program; Err carries the pipeline outcome.
type FinishedMsg struct{ Err error }

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the Bubble Tea model for the step-progress display.
type Model struct {
	title    string
	steps    []Step
	spinner  spinner.Model
	start    time.Time
	err      error
	finished bool
	aborted  bool
	cancel   context.CancelFunc
	width    int
}

// New builds a progress model with every step pending.
func New(title string, stepNames []string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	steps := make([]Step, len(stepNames))
	for i, name := range stepNames {
		steps[i] = Step{Name: name}
	}
	return &Model{title: title, steps: steps, spinner: s, start: time.Now()}
}

// Init starts the spinner animation.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update applies pipeline and terminal messages to the step list.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case StepStartedMsg:
		m.setStatus(msg.Index, StepRunning, "")
		return m, nil

	case StepDoneMsg:
		m.setStatus(msg.Index, StepDone, msg.Detail)
		return m, nil

	case StepSkippedMsg:
		m.setStatus(msg.Index, StepSkipped, msg.Detail)
		return m, nil

	case StepFailedMsg:
		m.err = msg.Err
		m.setStatus(msg.Index, StepFailed, "")
		return m, nil

	case FinishedMsg:
		m.finished = true
		if m.err == nil {
			m.err = msg.Err
		}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *Model) setStatus(i int, status StepStatus, detail string) {
	if i < 0 || i >= len(m.steps) {
		return
	}
	m.steps[i].Status = status
	if detail != "" {
		m.steps[i].Detail = detail
	}
}

// View renders the step list with one glyph per step and a footer line.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n\n")

	for _, step := range m.steps {
		b.WriteString("  " + m.glyph(step) + " " + step.Name)
		if step.Detail != "" {
			b.WriteString(detailStyle.Render(" (" + step.Detail + ")"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.finished && m.err != nil:
		b.WriteString(failStyle.Render(fmt.Sprintf("  Failed: %v", m.err)) + "\n")
	case m.finished:
		b.WriteString(doneStyle.Render(fmt.Sprintf("  Done in %.1fs", time.Since(m.start).Seconds())) + "\n")
	default:
		timer := fmt.Sprintf("%.1f", time.Since(m.start).Seconds())
		b.WriteString(helpStyle.Render(fmt.Sprintf("  elapsed %ss (q to abort)", timer)) + "\n")
	}
	return b.String()
}

func (m *Model) glyph(step Step) string {
	switch step.Status {
	case StepRunning:
		return m.spinner.View()
	case StepDone:
		return doneStyle.Render("✓")
	case StepSkipped:
		return skipStyle.Render("-")
	case StepFailed:
		return failStyle.Render("✗")
	default:
		return pendingStyle.Render("•")
	}
}

// Err reports the pipeline outcome the UI observed, with user aborts
// taking precedence.
func (m *Model) Err() error {
	if m.aborted {
		return ErrAborted
	}
	return m.err
}

// Reporter is handed to the pipeline goroutine so it can announce step
// transitions without holding the program itself.
type Reporter struct {
	send func(tea.Msg)
}

// Started marks step i as running.
func (r Reporter) Started(i int) { r.send(StepStartedMsg{Index: i}) }

// Done marks step i as completed.
func (r Reporter) Done(i int, detail string) { r.send(StepDoneMsg{Index: i, Detail: detail}) }

// Skipped marks step i as skipped.
func (r Reporter) Skipped(i int, detail string) { r.send(StepSkippedMsg{Index: i, Detail: detail}) }

// Failed marks step i as failed.
func (r Reporter) Failed(i int, err error) { r.send(StepFailedMsg{Index: i, Err: err}) }

// Run drives the pipeline under the progress UI and blocks until it
// finishes or the user aborts. The cancel function is invoked on abort so
// the pipeline's context unwinds.
func Run(title string, steps []string, cancel context.CancelFunc, pipeline func(Reporter) error) error {
	m := New(title, steps)
	m.cancel = cancel

	p := tea.NewProgram(m)
	go func() {
		err := pipeline(Reporter{send: p.Send})
		p.Send(FinishedMsg{Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress ui: %w", err)
	}
	if fm, ok := final.(*Model); ok {
		return fm.Err()
	}
	return nil
}
