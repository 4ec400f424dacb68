package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type txProgressMsg struct {
	label string
}

type txDoneMsg struct {
	err error
}

type txSpinnerModel struct {
	spinner spinner.Model
	label   string
	run     tea.Cmd
	err     error
	done    bool
}

func newTxSpinnerModel(label string, run tea.Cmd) txSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return txSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
	}
}

func (m txSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m txSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case txProgressMsg:
		m.label = msg.label
		return m, nil
	case txDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m txSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runTxSpinner shows label while run works; run reports progress through the
// given func, which relabels the spinner.
func runTxSpinner(ctx context.Context, output io.Writer, label string, run func(ctx context.Context, progress func(string)) error) error {
	var p *tea.Program
	progress := func(label string) {
		p.Send(txProgressMsg{label: label})
	}
	runCmd := func() tea.Msg {
		return txDoneMsg{err: run(ctx, progress)}
	}

	p = tea.NewProgram(
		newTxSpinnerModel(label, runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(txSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
