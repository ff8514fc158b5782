package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maybind/maybind-go/pkg/config"
	"github.com/maybind/maybind-go/pkg/maybind"
)

const version = "0.1.0"

const usageText = `Usage: maybind [flags] <command> [command flags]

Commands:
  health   Check that the API is reachable
  verify   Verify the configured API key
  users    List the twins visible to the caller
  chat     Send one message to a twin and print the reply
  repl     Chat with a twin interactively
  setup    Configure and verify an API key
  mcp      Serve the twin tools over MCP on stdin/stdout

Flags:
`

// errUsage is returned for malformed command lines; main exits with 2.
var errUsage = errors.New("usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)

	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "error: %s\n", explain(err))
		os.Exit(1)
	}
}

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	envFile    string
	configFile string
	host       string
	apiKey     string
	timeout    time.Duration
	verbose    bool
}

// app carries what every command needs.
type app struct {
	cfg     config.Config
	client  *maybind.Client
	envFile string
	logger  *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("maybind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	var opts globalOptions
	fs.StringVar(&opts.envFile, "env", config.DefaultEnvFile, "path to .env file (ignored if missing)")
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML or JSON config file")
	fs.StringVar(&opts.host, "host", "", "API host (default $"+config.EnvHost+" or "+config.DefaultHost+")")
	fs.StringVar(&opts.apiKey, "api-key", "", "API key (default $"+config.EnvAPIKey+")")
	fs.DurationVar(&opts.timeout, "timeout", 0, "round-trip timeout (default 30s)")
	fs.BoolVar(&opts.verbose, "verbose", false, "log every request to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	a, err := newApp(opts, stdin, stdout, stderr)
	if err != nil {
		return err
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "health":
		return a.runHealth(ctx)
	case "verify":
		return a.runVerify(ctx)
	case "users":
		return a.runUsers(ctx)
	case "chat":
		return a.runChat(ctx, rest)
	case "repl":
		return a.runREPL(ctx, rest)
	case "setup":
		return a.runSetup(ctx, rest)
	case "mcp":
		return a.runMCP(ctx)
	case "version":
		fmt.Fprintln(stdout, "maybind", version)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return errUsage
	}
}

func newApp(opts globalOptions, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(config.Options{
		Host:       opts.host,
		APIKey:     opts.apiKey,
		Timeout:    opts.timeout,
		EnvFile:    opts.envFile,
		ConfigFile: opts.configFile,
	})
	if err != nil {
		return nil, err
	}

	logger := newLogger(stderr, opts.verbose)
	logger.Debug("configuration loaded", "config", cfg.String())

	a := &app{
		cfg:     cfg,
		envFile: opts.envFile,
		logger:  logger,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}
	a.client = a.newClient(cfg)

	return a, nil
}

func (a *app) newClient(cfg config.Config) *maybind.Client {
	return maybind.NewFromConfig(cfg,
		maybind.WithLogger(a.logger),
		maybind.WithUserAgent("maybind-go/"+version),
	)
}

// newLogger writes warnings to w, or everything down to debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
