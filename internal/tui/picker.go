// Package tui implements an interactive terminal picker over the host
// directory. Every keystroke re-runs the query; enter opens the selected
// host in a new terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gitlab.bluewillows.net/root/sshsearch/internal/searchprovider"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// maxVisible is the number of result rows rendered at once.
const maxVisible = 15

// Provider is the part of *searchprovider.Provider the picker uses.
type Provider interface {
	InitialResultSet(terms []string) source.HostRecords
	Activate(ctx context.Context, r source.HostRecord) error
}

// activatedMsg reports the outcome of an activation.
type activatedMsg struct {
	record source.HostRecord
	err    error
}

// Model is the bubbletea model of the picker.
type Model struct {
	ctx      context.Context
	provider Provider
	input    textinput.Model

	query   string
	results source.HostRecords
	cursor  int

	chosen *source.HostRecord
	err    error
	width  int
}

// New creates a picker model. The initial input may be empty.
func New(ctx context.Context, p Provider, initial string) *Model {
	input := textinput.New()
	input.Placeholder = "user@host pattern, space separated"
	input.Prompt = "> "
	input.SetValue(initial)
	input.Focus()

	m := &Model{
		ctx:      ctx,
		provider: p,
		input:    input,
	}
	m.requery()
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case activatedMsg:
		if msg.err != nil {
			// Stay open so the user can pick another host.
			m.err = msg.err
			return m, nil
		}
		rec := msg.record
		m.chosen = &rec
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			rec, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, m.activate(rec)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.query {
		m.requery()
	}
	return m, cmd
}

func (m *Model) activate(rec source.HostRecord) tea.Cmd {
	return func() tea.Msg {
		return activatedMsg{record: rec, err: m.provider.Activate(m.ctx, rec)}
	}
}

func (m *Model) requery() {
	m.query = m.input.Value()
	m.results = m.provider.InitialResultSet(searchprovider.SplitTerms(m.query))
	m.err = nil
	if m.cursor >= len(m.results) {
		m.cursor = max(len(m.results)-1, 0)
	}
}

// Results returns the records currently listed.
func (m *Model) Results() source.HostRecords {
	return m.results
}

// Selected returns the highlighted record.
func (m *Model) Selected() (source.HostRecord, bool) {
	if len(m.results) == 0 {
		return source.HostRecord{}, false
	}
	return m.results[m.cursor], true
}

// Chosen returns the record that was activated, if any.
func (m *Model) Chosen() (source.HostRecord, bool) {
	if m.chosen == nil {
		return source.HostRecord{}, false
	}
	return *m.chosen, true
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("sshsearch"))
	b.WriteString("\n")
	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n")

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(m.results))

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		name := m.results[i].DisplayName()
		if i == m.cursor {
			rows = append(rows, selectedItemStyle.Render("▸ "+name))
		} else {
			rows = append(rows, itemStyle.Render("  "+name))
		}
	}
	if len(rows) == 0 {
		rows = append(rows, hintStyle.Render("  no matching hosts"))
	}
	b.WriteString(windowStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	b.WriteString("\n")

	b.WriteString(hintStyle.Render(fmt.Sprintf("%d hosts  ↑/↓ select  enter connect  esc quit", len(m.results))))
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n")

	return b.String()
}

// Run shows the picker until the user activates a host or quits. The
// activated record is returned with ok set.
func Run(ctx context.Context, p Provider, initial string, opts ...tea.ProgramOption) (rec source.HostRecord, ok bool, err error) {
	m := New(ctx, p, initial)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return source.HostRecord{}, false, fmt.Errorf("running picker: %w", err)
	}

	rec, ok = final.(*Model).Chosen()
	return rec, ok, nil
}
