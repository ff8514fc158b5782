package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/maybind/maybind-go/pkg/apiclient"
	"github.com/maybind/maybind-go/pkg/maybind"
	"github.com/maybind/maybind-go/pkg/maybind/maybindtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepl(t *testing.T) (replModel, *maybindtest.Server) {
	t.Helper()

	srv := newFakeServer(t)
	client := maybind.New(srv.URL, maybindtest.DefaultKey)

	return newReplModel(context.Background(), client, "twin_001"), srv
}

func update(t *testing.T, m replModel, msg tea.Msg) (replModel, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	rm, ok := next.(replModel)
	require.True(t, ok)

	return rm, cmd
}

func TestRepl_ViewBeforeResize(t *testing.T) {
	m, _ := newTestRepl(t)
	assert.Equal(t, "Connecting...", m.View())
}

func TestRepl_Resize(t *testing.T) {
	m, _ := newTestRepl(t)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	assert.True(t, m.ready)
	assert.Equal(t, 80, m.viewport.Width)

	view := m.View()
	assert.Contains(t, view, "twin twin_001")
	assert.Contains(t, view, "0 messages")
}

func TestRepl_RoundTrip(t *testing.T) {
	m, srv := newTestRepl(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	m, cmd := update(t, m, submitMsg{text: "hello"})
	require.NotNil(t, cmd)
	assert.True(t, m.waiting)
	assert.False(t, m.prompt.active)
	assert.Contains(t, m.entries[len(m.entries)-1], "You > hello")
	assert.Contains(t, m.View(), "waiting for the twin")

	// A second submit while waiting is ignored.
	m, cmd = update(t, m, submitMsg{text: "again"})
	assert.Nil(t, cmd)

	reply := m.send("hello")()
	rmsg, ok := reply.(replyMsg)
	require.True(t, ok)
	require.NoError(t, rmsg.err)
	assert.Equal(t, "You said: hello", rmsg.reply.Text())

	m, _ = update(t, m, rmsg)
	assert.False(t, m.waiting)
	assert.True(t, m.prompt.active)
	assert.Contains(t, m.entries[len(m.entries)-1], "You said: hello")
	assert.Equal(t, 2, m.conv.Len())
	assert.Len(t, srv.Requests(), 1)
}

func TestRepl_RendersWhileReplyInFlight(t *testing.T) {
	m, _ := newTestRepl(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m, _ = update(t, m, submitMsg{text: "hello"})

	replies := make(chan tea.Msg, 1)
	go func() { replies <- m.send("hello")() }()

	var reply tea.Msg
	for reply == nil {
		assert.Contains(t, m.View(), "waiting for the twin")
		select {
		case reply = <-replies:
		default:
		}
	}

	m, _ = update(t, m, reply)
	assert.Contains(t, m.View(), "2 messages")
}

func TestRepl_ErrorReply(t *testing.T) {
	m, _ := newTestRepl(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m, _ = update(t, m, submitMsg{text: "hello"})

	m, _ = update(t, m, replyMsg{err: &apiclient.AuthError{StatusCode: 401}})
	assert.False(t, m.waiting)
	assert.Contains(t, m.entries[len(m.entries)-1], "invalid or missing API key")
	assert.Equal(t, 0, m.conv.Len())
}

func TestRepl_Reset(t *testing.T) {
	m, _ := newTestRepl(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	m, _ = update(t, m, submitMsg{text: "hello"})
	m, _ = update(t, m, m.send("hello")())
	require.Equal(t, 2, m.conv.Len())

	m, cmd := update(t, m, submitMsg{text: "/reset"})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.conv.Len())
	assert.Contains(t, m.entries[len(m.entries)-1], "conversation reset")
	assert.Contains(t, m.View(), "0 messages")
}

func TestRepl_Quit(t *testing.T) {
	m, _ := newTestRepl(t)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	_, cmd = update(t, m, submitMsg{text: "/quit"})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func typeText(p promptModel, text string) promptModel {
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return p
}

func TestPrompt_SubmitOnEnter(t *testing.T) {
	p := newPrompt()
	p.focus()

	p = typeText(p, "hi there")
	assert.Equal(t, "hi there", p.Value())

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, submitMsg{text: "hi there"}, cmd())
	assert.Empty(t, p.Value())
}

func TestPrompt_EmptyEnterIgnored(t *testing.T) {
	p := newPrompt()
	p.focus()

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestPrompt_BlurredIgnoresKeys(t *testing.T) {
	p := newPrompt()
	p.focus()
	p.blur()

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
	assert.Empty(t, p.Value())
}

func TestPrompt_History(t *testing.T) {
	p := newPrompt()
	p.focus()

	for _, text := range []string{"first", "second", "second"} {
		p = typeText(p, text)
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}
	assert.Equal(t, []string{"first", "second"}, p.sent)

	p = typeText(p, "draft")

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "second", p.Value())
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "first", p.Value())

	// Already at the oldest message.
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "first", p.Value())

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "second", p.Value())
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "draft", p.Value())
}

func TestWrappedRows(t *testing.T) {
	assert.Equal(t, 1, wrappedRows("", 10))
	assert.Equal(t, 1, wrappedRows("0123456789", 10))
	assert.Equal(t, 2, wrappedRows("0123456789a", 10))
	assert.Equal(t, 3, wrappedRows("one\n\ntwo", 10))
	assert.Equal(t, 2, wrappedRows("日本語のテキスト", 10))
}

func TestRenderUserMessage(t *testing.T) {
	assert.Contains(t, renderUserMessage("hello"), "You > hello")

	multi := renderUserMessage("first\nsecond")
	assert.Contains(t, multi, "You > first")
	assert.Contains(t, multi, "      second")
}
