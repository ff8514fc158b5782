package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/maybind/maybind-go/pkg/config"
	"github.com/maybind/maybind-go/pkg/maybind"
	"github.com/maybind/maybind-go/pkg/twins/chat"
	"github.com/maybind/maybind-go/pkg/twins/message"
)

const replHelp = "Commands: /reset forgets the conversation, /quit exits. Ctrl+C also exits."

// replyMsg is delivered when a chat round trip finishes.
type replyMsg struct {
	reply   message.Message
	err     error
	elapsed time.Duration
	count   int // history length after the round trip
}

// replModel is an interactive chat with one twin. While a round trip is in
// flight the conversation belongs to the command running it; Update and View
// only touch it while waiting is false and render the history length from
// count.
type replModel struct {
	ctx    context.Context
	client *maybind.Client
	conv   *chat.Conversation

	prompt   promptModel
	viewport viewport.Model
	spinner  spinner.Model

	entries []string
	count   int
	waiting bool
	ready   bool
	width   int
	height  int
}

func newReplModel(ctx context.Context, client *maybind.Client, twinID string) replModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	m := replModel{
		ctx:     ctx,
		client:  client,
		conv:    chat.NewConversation(twinID),
		prompt:  newPrompt(),
		spinner: sp,
		entries: []string{dimStyle.Render(replHelp)},
	}
	m.prompt.focus()

	return m
}

func (a *app) runREPL(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: maybind repl [flags]\n\nChat with a twin interactively.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	twin := fs.String("twin", "", "twin id (default $"+config.EnvTwinID+", then the first listed twin)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	twinID := a.resolveTwin(ctx, *twin)

	p := tea.NewProgram(newReplModel(ctx, a.client, twinID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	return err
}

func (m replModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd

	case submitMsg:
		return m.submit(msg.text)

	case replyMsg:
		m.waiting = false
		m.count = msg.count
		if msg.err != nil {
			m.appendEntry(errorBlockStyle.Render(explain(msg.err)))
		} else {
			m.appendEntry(m.renderTwinMessage(msg.reply.Text(), msg.elapsed))
		}
		return m, m.prompt.focus()

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

func (m replModel) submit(text string) (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}

	switch strings.ToLower(text) {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/reset":
		m.conv.Reset()
		m.count = 0
		m.appendEntry(dimStyle.Render("conversation reset"))
		return m, nil
	case "/help":
		m.appendEntry(dimStyle.Render(replHelp))
		return m, nil
	}

	m.appendEntry(renderUserMessage(text))
	m.waiting = true
	m.prompt.blur()

	return m, tea.Batch(m.spinner.Tick, m.send(text))
}

// send runs one round trip in the background.
func (m replModel) send(text string) tea.Cmd {
	ctx, client, conv := m.ctx, m.client, m.conv

	return func() tea.Msg {
		start := time.Now()
		reply, err := client.Say(ctx, conv, text)
		return replyMsg{reply: reply, err: err, elapsed: time.Since(start), count: conv.Len()}
	}
}

func (m *replModel) resize(width, height int) {
	m.width, m.height = width, height

	const headerHeight, statusHeight = 1, 1
	promptHeight := promptMaxRows + 2
	vpHeight := max(height-headerHeight-statusHeight-promptHeight, 3)

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}

	m.prompt.setWidth(width)
	initMarkdownRenderer(width - 4)
	m.refresh()
}

func (m *replModel) appendEntry(s string) {
	m.entries = append(m.entries, s)
	m.refresh()
}

func (m *replModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.entries, "\n\n"))
	m.viewport.GotoBottom()
}

func (m replModel) renderTwinMessage(text string, elapsed time.Duration) string {
	prefix := twinPrefixStyle.Render(m.conv.TwinID() + " > ")
	footer := dimStyle.Render(fmtDuration(elapsed))
	return twinBlockStyle.Render(prefix + "\n" + renderMarkdown(text) + "\n" + footer)
}

// renderUserMessage indents continuation lines to align with the first.
func renderUserMessage(text string) string {
	prefix := userPrefixStyle.Render("You > ")
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return userBlockStyle.Render(prefix + text)
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(lines[0])
	for _, line := range lines[1:] {
		sb.WriteString("\n      ")
		sb.WriteString(line)
	}
	return userBlockStyle.Render(sb.String())
}

func (m replModel) View() string {
	if !m.ready {
		return "Connecting..."
	}

	header := headerStyle.Render("maybind") + dimStyle.Render(truncate("twin "+m.conv.TwinID(), max(m.width-10, 10)))

	status := dimStyle.Render(fmt.Sprintf("%d messages", m.count))
	if m.waiting {
		status = m.spinner.View() + " " + dimStyle.Render("waiting for the twin...")
	}

	return strings.Join([]string{header, m.viewport.View(), status, m.prompt.View()}, "\n")
}
