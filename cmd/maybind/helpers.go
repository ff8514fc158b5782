package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/maybind/maybind-go/pkg/apiclient"
	"github.com/maybind/maybind-go/pkg/maybind"
	"github.com/maybind/maybind-go/pkg/validation"
	"github.com/mattn/go-runewidth"
)

// mdRenderer renders twin replies as markdown in the terminal.
var mdRenderer *glamour.TermRenderer

func initMarkdownRenderer(width int) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	mdRenderer = r
}

// renderMarkdown converts markdown text to terminal-formatted output. It
// returns text unchanged when no renderer is available.
func renderMarkdown(text string) string {
	if mdRenderer == nil {
		return text
	}
	out, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// truncate shortens s to at most width terminal cells, appending "..." when
// cut. Newlines become spaces.
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, width, "...")
}

// fmtDuration formats a duration for display.
func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, sec)
}

func (a *app) printKeyInfo(info maybind.KeyInfo) {
	if info.Name != "" {
		fmt.Fprintf(a.stdout, "  key name:    %s\n", info.Name)
	}
	if info.UsageCount > 0 {
		fmt.Fprintf(a.stdout, "  usage count: %d\n", info.UsageCount)
	}
	if !info.Timestamp.IsZero() {
		fmt.Fprintf(a.stdout, "  verified at: %s\n", info.Timestamp.Format(time.RFC3339))
	}
}

// explain renders err for a person at a terminal.
func explain(err error) string {
	var (
		errs      validation.Errors
		transport *apiclient.TransportError
		rateLimit *apiclient.RateLimitError
		decode    *apiclient.DecodeError
		status    *apiclient.StatusError
	)

	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return "invalid or missing API key (run `maybind setup`)"
	case errors.As(err, &rateLimit):
		if rateLimit.RetryAfter > 0 {
			return "rate limited, retry in " + fmtDuration(rateLimit.RetryAfter)
		}
		return "rate limited"
	case errors.As(err, &transport):
		if transport.Timeout() {
			return "request timed out: " + transport.URL
		}
		return fmt.Sprintf("cannot reach %s: %v", transport.URL, transport.Err)
	case errors.As(err, &decode):
		return "unexpected response from server: " + decode.Err.Error()
	case errors.As(err, &errs):
		var sb strings.Builder
		sb.WriteString("invalid request:")
		for _, e := range errs {
			fmt.Fprintf(&sb, "\n  %s: %s", e.Loc, e.Msg)
		}
		return sb.String()
	case errors.As(err, &status):
		return fmt.Sprintf("server answered %d: %s", status.StatusCode, truncate(status.Body, 200))
	default:
		return err.Error()
	}
}
