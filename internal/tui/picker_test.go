package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

type fakeProvider struct {
	hosts     source.HostRecords
	queries   [][]string
	activated []source.HostRecord
	err       error
}

// InitialResultSet returns every host whose name contains all terms.
func (f *fakeProvider) InitialResultSet(terms []string) source.HostRecords {
	f.queries = append(f.queries, terms)
	if len(terms) == 0 {
		return nil
	}
	var out source.HostRecords
	for _, r := range f.hosts {
		if containsAll(r.Host, terms) {
			out = append(out, r)
		}
	}
	return out
}

func containsAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}

func (f *fakeProvider) Activate(_ context.Context, r source.HostRecord) error {
	f.activated = append(f.activated, r)
	return f.err
}

func newProvider() *fakeProvider {
	return &fakeProvider{hosts: source.HostRecords{
		{Host: "web1", Port: "22"},
		{Host: "web2", Port: "22"},
		{Host: "db1", Port: "2222"},
	}}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_RequeriesOnEveryKeystroke(t *testing.T) {
	p := newProvider()
	m := New(context.Background(), p, "")

	if len(m.Results()) != 0 {
		t.Fatalf("empty input should list nothing, got %v", m.Results())
	}

	typeText(m, "web")
	if got := len(m.Results()); got != 2 {
		t.Errorf("after 'web' got %d results, want 2", got)
	}
	// One query from New plus one per rune.
	if got := len(p.queries); got != 4 {
		t.Errorf("got %d queries, want 4", got)
	}

	typeText(m, "2")
	if got := m.Results(); len(got) != 1 || got[0].Host != "web2" {
		t.Errorf("after 'web2' got %v", got)
	}

	m.Update(key(tea.KeyBackspace))
	if got := len(m.Results()); got != 2 {
		t.Errorf("after backspace got %d results, want 2", got)
	}
}

func TestModel_InitialInput(t *testing.T) {
	m := New(context.Background(), newProvider(), "db")
	if got := m.Results(); len(got) != 1 || got[0].Host != "db1" {
		t.Errorf("Results() = %v", got)
	}
}

func TestModel_CursorMovement(t *testing.T) {
	m := New(context.Background(), newProvider(), "web")

	sel, _ := m.Selected()
	if sel.Host != "web1" {
		t.Fatalf("initial selection = %v", sel)
	}

	m.Update(key(tea.KeyUp))
	if sel, _ = m.Selected(); sel.Host != "web1" {
		t.Errorf("up at top moved to %v", sel)
	}

	m.Update(key(tea.KeyDown))
	m.Update(key(tea.KeyDown))
	if sel, _ = m.Selected(); sel.Host != "web2" {
		t.Errorf("down past bottom selected %v", sel)
	}

	// Narrowing the results clamps the cursor.
	typeText(m, "1")
	if sel, _ = m.Selected(); sel.Host != "web1" {
		t.Errorf("after narrowing selected %v", sel)
	}
}

func TestModel_EnterActivatesAndQuits(t *testing.T) {
	p := newProvider()
	m := New(context.Background(), p, "web")
	m.Update(key(tea.KeyDown))

	_, cmd := m.Update(key(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("enter returned no command")
	}

	msg := cmd()
	if len(p.activated) != 1 || p.activated[0].Host != "web2" {
		t.Fatalf("activated = %v", p.activated)
	}

	_, cmd = m.Update(msg)
	if !isQuit(cmd) {
		t.Error("expected quit after activation")
	}
	if rec, ok := m.Chosen(); !ok || rec.Host != "web2" {
		t.Errorf("Chosen() = %v, %v", rec, ok)
	}
}

func TestModel_ActivateFailureStaysOpen(t *testing.T) {
	p := newProvider()
	p.err = errors.New("no terminal")
	m := New(context.Background(), p, "db")

	_, cmd := m.Update(key(tea.KeyEnter))
	_, cmd = m.Update(cmd())
	if isQuit(cmd) {
		t.Error("failed activation should not quit")
	}
	if _, ok := m.Chosen(); ok {
		t.Error("failed activation should not set a choice")
	}
	if !strings.Contains(m.View(), "no terminal") {
		t.Error("view should show the activation error")
	}
}

func TestModel_EnterWithoutResults(t *testing.T) {
	p := newProvider()
	m := New(context.Background(), p, "")

	_, cmd := m.Update(key(tea.KeyEnter))
	if cmd != nil {
		t.Error("enter with no results should do nothing")
	}
	if len(p.activated) != 0 {
		t.Errorf("activated = %v", p.activated)
	}
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyType
	}{
		{"esc", tea.KeyEsc},
		{"ctrl+c", tea.KeyCtrlC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(context.Background(), newProvider(), "web")
			_, cmd := m.Update(key(tt.key))
			if !isQuit(cmd) {
				t.Errorf("%s should quit", tt.name)
			}
			if _, ok := m.Chosen(); ok {
				t.Error("quitting should not choose a host")
			}
		})
	}
}

func TestModel_View(t *testing.T) {
	m := New(context.Background(), newProvider(), "")
	if !strings.Contains(m.View(), "no matching hosts") {
		t.Error("empty view should say there are no matches")
	}

	typeText(m, "db")
	view := m.View()
	if !strings.Contains(view, "db1:2222") {
		t.Errorf("view missing result:\n%s", view)
	}
	if !strings.Contains(view, "1 hosts") {
		t.Errorf("view missing count:\n%s", view)
	}
}
