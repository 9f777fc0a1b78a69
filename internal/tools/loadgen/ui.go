package loadgen

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

type progressMsg Snapshot

type doneMsg struct {
	result Result
	err    error
}

type model struct {
	cfg      Config
	snapshot Snapshot
	result   Result
	err      error
	finished bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.snapshot = Snapshot(msg)
		return m, nil
	case doneMsg:
		m.finished = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	header := titleStyle.Render(fmt.Sprintf("loadgen %s @ %s", normalizeProfile(m.cfg.Profile), m.cfg.BaseURL))
	if m.finished {
		line := doneStyle.Render(fmt.Sprintf("done: %d requests, %d failures", m.result.TotalRequests, m.result.Failures))
		if m.err != nil {
			line = failureStyle.Render("error: " + m.err.Error())
		}
		return header + "\n" + line + "\n"
	}
	stats := statStyle.Render(fmt.Sprintf("elapsed %s  requests %d",
		m.snapshot.Elapsed.Truncate(time.Second), m.snapshot.TotalRequests))
	failures := ""
	if m.snapshot.Failures > 0 {
		failures = "  " + failureStyle.Render(fmt.Sprintf("failures %d", m.snapshot.Failures))
	}
	return header + "\n" + stats + failures + "\n"
}

// RunInteractive runs the generator behind a terminal progress view.
func RunInteractive(ctx context.Context, cfg Config) (Result, error) {
	program := tea.NewProgram(model{cfg: cfg})

	cfg.OnProgress = func(s Snapshot) {
		program.Send(progressMsg(s))
	}

	go func() {
		result, err := Run(ctx, cfg)
		program.Send(doneMsg{result: result, err: err})
	}()

	final, err := program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("progress ui: %w", err)
	}
	m := final.(model)
	return m.result, m.err
}
