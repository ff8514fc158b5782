package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/maybind/maybind-go/pkg/config"
	"github.com/maybind/maybind-go/pkg/tools/mcpserver"
	"github.com/maybind/maybind-go/pkg/tools/twintools"
	"github.com/maybind/maybind-go/pkg/twins/chat"
	"github.com/maybind/maybind-go/pkg/twins/message"
)

const mcpInstructions = "Tools for chatting with Maybind digital twins. Call list_twins to discover twin ids, then chat_with_twin to talk to one."

func (a *app) runHealth(ctx context.Context) error {
	raw, err := a.client.Health(ctx)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		out.Reset()
		out.Write(raw)
	}

	fmt.Fprintln(a.stdout, out.String())

	return nil
}

func (a *app) runVerify(ctx context.Context) error {
	if !a.cfg.IsConfigured() {
		a.logger.Warn("no API key configured; set " + config.EnvAPIKey + " or run maybind setup")
	}

	info, err := a.client.VerifyAPIKey(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, successStyle.Render("API key is valid")+" "+dimStyle.Render(a.cfg.MaskedKey()))
	a.printKeyInfo(info)

	return nil
}

func (a *app) runUsers(ctx context.Context) error {
	users, err := a.client.Users(ctx)
	if err != nil {
		return err
	}

	if users.Len() == 0 {
		fmt.Fprintln(a.stdout, dimStyle.Render("no twins"))
		return nil
	}

	for _, id := range users.TwinIDs {
		fmt.Fprintln(a.stdout, id)
	}

	return nil
}

func (a *app) runChat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: maybind chat [flags] <message>\n\nSend one message to a twin and print the reply.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	twin := fs.String("twin", "", "twin id (default $"+config.EnvTwinID+", then the first listed twin)")
	asJSON := fs.Bool("json", false, "print the full response as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fs.Usage()
		return errUsage
	}

	twinID := a.resolveTwin(ctx, *twin)

	req, err := chat.NewRequest(twinID, message.NewUser(text))
	if err != nil {
		return err
	}

	resp, err := a.client.Chat(ctx, req)
	if err != nil {
		return err
	}

	if *asJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
		return nil
	}

	reply, ok := resp.Reply()
	if !ok {
		return fmt.Errorf("twin %s did not reply", twinID)
	}

	fmt.Fprintln(a.stdout, reply.Text())

	return nil
}

func (a *app) runMCP(ctx context.Context) error {
	tools := twintools.New(a.client, a.cfg.TwinID)

	srv := mcpserver.New("maybind", version,
		mcpserver.WithInstructions(mcpInstructions),
		mcpserver.WithLogger(a.logger),
	)
	box := tools.Tools()
	srv.RegisterBox(box)

	a.logger.Info("serving MCP on stdio", "host", a.cfg.Host, "tools", box.Names())

	return srv.Serve(ctx, a.stdin, a.stdout)
}

// resolveTwin picks the twin to talk to: the explicit flag, then the
// configured twin, then the first twin listed by the server, then
// config.DefaultTwinID.
func (a *app) resolveTwin(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if a.cfg.TwinID != "" {
		return a.cfg.TwinID
	}

	id, err := a.client.FirstTwin(ctx, config.DefaultTwinID)
	if err != nil {
		a.logger.Warn("could not list twins; using default twin", "twin_id", id, "error", err)
	}

	return id
}
