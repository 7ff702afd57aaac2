package prompt

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	yesStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Terminal prompts on an interactive terminal and reacts to single keys:
// y confirms, n or enter declines, ctrl+c interrupts. Other keys are ignored.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

// NewTerminal creates a Terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

// Confirm implements Confirmer.
func (t *Terminal) Confirm(ctx context.Context, text string) (bool, error) {
	p := tea.NewProgram(newConfirmModel(text),
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := p.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return false, err
	}

	m, ok := final.(confirmModel)
	if !ok {
		return false, errors.New("unexpected prompt model")
	}
	if m.interrupted {
		return false, ErrInterrupted
	}
	return m.answer, nil
}

type confirmModel struct {
	text        string
	answer      bool
	done        bool
	interrupted bool
}

func newConfirmModel(text string) confirmModel {
	return confirmModel{text: text}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "N", "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c":
		m.interrupted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	line := questionStyle.Render(m.text) + hintStyle.Render(Suffix)
	switch {
	case m.interrupted:
		return line + "\n"
	case m.done && m.answer:
		return line + yesStyle.Render("y") + "\n"
	case m.done:
		return line + noStyle.Render("n") + "\n"
	}
	return line
}
