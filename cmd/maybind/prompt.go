package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	promptMinRows = 1
	promptMaxRows = 5
)

// submitMsg carries a message the user sent with Enter.
type submitMsg struct {
	text string
}

// promptModel is the REPL's message editor. Enter sends, Alt+Enter breaks the
// line, and Up/Down on a single-line draft walk through earlier messages.
type promptModel struct {
	editor textarea.Model
	active bool
	width  int

	sent   []string
	cursor int // == len(sent) while editing a fresh draft
	draft  string
}

func newPrompt() promptModel {
	ed := textarea.New()
	ed.Placeholder = "Say something to the twin... (Enter to send, Alt+Enter for a new line)"
	ed.Prompt = ""
	ed.ShowLineNumbers = false
	ed.CharLimit = 0
	ed.SetHeight(promptMinRows)

	plain := lipgloss.NewStyle()
	ed.FocusedStyle.CursorLine = plain
	ed.BlurredStyle.CursorLine = plain
	ed.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("alt+enter", "new line"))

	return promptModel{editor: ed}
}

func (m promptModel) Update(msg tea.Msg) (promptModel, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		singleLine := !strings.Contains(m.editor.Value(), "\n")

		switch {
		case k.Type == tea.KeyEnter && !k.Alt:
			return m.submit()
		case k.Type == tea.KeyUp && singleLine && m.recall(-1):
			return m, nil
		case k.Type == tea.KeyDown && singleLine && m.recall(1):
			return m, nil
		}
	}

	// Let the editor grow while it handles the key so it never scrolls, then
	// shrink it back to its content.
	m.editor.SetHeight(promptMaxRows)

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.fit()

	return m, cmd
}

func (m promptModel) submit() (promptModel, tea.Cmd) {
	text := strings.TrimSpace(m.editor.Value())
	if text == "" {
		return m, nil
	}

	if n := len(m.sent); n == 0 || m.sent[n-1] != text {
		m.sent = append(m.sent, text)
	}
	m.cursor = len(m.sent)
	m.draft = ""

	m.editor.Reset()
	m.fit()

	return m, func() tea.Msg { return submitMsg{text: text} }
}

// recall moves through the sent messages by step. The unsent draft is kept
// and restored when moving past the newest message. It reports false when
// there is nothing to move to.
func (m *promptModel) recall(step int) bool {
	next := m.cursor + step
	if len(m.sent) == 0 || next < 0 || next > len(m.sent) {
		return false
	}

	if m.cursor == len(m.sent) {
		m.draft = m.editor.Value()
	}
	m.cursor = next

	if next == len(m.sent) {
		m.editor.SetValue(m.draft)
	} else {
		m.editor.SetValue(m.sent[next])
	}
	m.fit()

	return true
}

func (m *promptModel) fit() {
	rows := wrappedRows(m.editor.Value(), m.editor.Width())
	m.editor.SetHeight(min(max(rows, promptMinRows), promptMaxRows))
}

func (m promptModel) View() string {
	box := promptBorder
	if !m.active {
		box = promptBorderIdle
	}

	return box.Width(max(m.width-4, 10)).Render(m.editor.View())
}

func (m promptModel) Value() string {
	return m.editor.Value()
}

func (m *promptModel) setWidth(w int) {
	m.width = w
	m.editor.SetWidth(max(w-4, 10))
	m.fit()
}

func (m *promptModel) focus() tea.Cmd {
	m.active = true
	return m.editor.Focus()
}

func (m *promptModel) blur() {
	m.active = false
	m.editor.Blur()
}

// wrappedRows counts the terminal rows text takes when soft wrapped at width
// cells.
func wrappedRows(text string, width int) int {
	width = max(width, 1)

	rows := 0
	for line := range strings.SplitSeq(text, "\n") {
		rows += max(1, (runewidth.StringWidth(line)+width-1)/width)
	}

	return rows
}
