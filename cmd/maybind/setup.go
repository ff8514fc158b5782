package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/maybind/maybind-go/pkg/apiclient"
	"github.com/maybind/maybind-go/pkg/config"
)

// setupAnswers is what the setup wizard collects.
type setupAnswers struct {
	key  string
	save bool
}

func (a *app) runSetup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: maybind setup [flags]\n\nConfigure an API key, verify it and save it to the .env file.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	keyFlag := fs.String("key", "", "API key to configure (prompted for when empty)")
	yes := fs.Bool("yes", false, "do not prompt; save without asking")

	if err := fs.Parse(args); err != nil {
		return err
	}

	answers := setupAnswers{key: strings.TrimSpace(*keyFlag), save: true}

	if !*yes {
		var err error
		answers, err = promptSetup(a.cfg, answers.key, a.envFile)
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(a.stdout, dimStyle.Render("setup cancelled"))
			return nil
		}
		if err != nil {
			return err
		}
	}

	return a.applySetup(ctx, answers)
}

// promptSetup asks for a key (unless one was given) and whether to save it.
// An existing key is kept when the user declines to replace it.
func promptSetup(cfg config.Config, key, envFile string) (setupAnswers, error) {
	answers := setupAnswers{key: key, save: true}

	if key == "" && cfg.IsConfigured() {
		replace := false
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("An API key is already configured (%s). Replace it?", cfg.MaskedKey())).
				Value(&replace),
		)).Run()
		if err != nil {
			return setupAnswers{}, err
		}
		if !replace {
			answers.key = cfg.APIKey
		}
	}

	if answers.key == "" {
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Maybind API key").
				Description("Find it in your Maybind dashboard.").
				EchoMode(huh.EchoModePassword).
				Value(&answers.key).
				Validate(validateKey),
		)).Run()
		if err != nil {
			return setupAnswers{}, err
		}
	}

	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Save the key to %s?", envFile)).
			Value(&answers.save),
	)).Run()
	if err != nil {
		return setupAnswers{}, err
	}

	answers.key = strings.TrimSpace(answers.key)

	return answers, nil
}

func validateKey(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return errors.New("the API key is required")
	case strings.ContainsAny(s, " \t\n"):
		return errors.New("the API key cannot contain whitespace")
	}
	return nil
}

// applySetup verifies the key against the server and saves it. A server
// without the verification endpoint (404) does not prevent saving.
func (a *app) applySetup(ctx context.Context, answers setupAnswers) error {
	if err := validateKey(answers.key); err != nil {
		return err
	}

	cfg := a.cfg
	cfg.APIKey = answers.key

	info, err := a.newClient(cfg).VerifyAPIKey(ctx)

	var status *apiclient.StatusError
	switch {
	case err == nil:
		fmt.Fprintln(a.stdout, successStyle.Render("API key is valid")+" "+dimStyle.Render(cfg.MaskedKey()))
		a.printKeyInfo(info)
	case errors.As(err, &status) && status.StatusCode == http.StatusNotFound:
		a.logger.Warn("key verification is not available on this server; saving without verification", "host", cfg.Host)
	default:
		return err
	}

	if !answers.save {
		fmt.Fprintf(a.stdout, "Not saved. Export %s=<key> to use it.\n", config.EnvAPIKey)
		return nil
	}

	if err := cfg.SaveEnv(a.envFile); err != nil {
		return err
	}

	a.cfg = cfg
	a.client = a.newClient(cfg)

	fmt.Fprintf(a.stdout, "Saved to %s\n", a.envFile)

	return nil
}
