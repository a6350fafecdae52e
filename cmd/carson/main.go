package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/aussiebroadwan/carson/internal/app"
)

func main() {
	if err := run(); err != nil {
		var usage *app.UsageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
			app.Usage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		username   string
		password   string
		token      string
		apiURL     string
		logLevel   string
		logFormat  string
	)

	flagSet := pflag.NewFlagSet("carson", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", os.Getenv("CARSON_CONFIG"), "path to a YAML config file")
	flagSet.StringVarP(&username, "username", "u", "", "Carson Living username")
	flagSet.StringVarP(&password, "password", "p", "", "Carson Living password (prompted for when missing)")
	flagSet.StringVarP(&token, "token", "t", "", "previously issued token, skips the login while valid")
	flagSet.StringVar(&apiURL, "api-url", "", "Carson Living API root")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.StringVar(&logFormat, "log-format", "", "log format: text or json")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return &app.UsageError{Msg: err.Error()}
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	override(&cfg.Username, username)
	override(&cfg.Password, password)
	override(&cfg.Token, token)
	override(&cfg.APIURL, apiURL)
	override(&cfg.LogLevel, logLevel)
	override(&cfg.LogFormat, logFormat)

	if cfg.Password == "" && cfg.Token == "" && cfg.Username != "" {
		if cfg.Password, err = promptPassword(); err != nil {
			return err
		}
	}

	application, err := app.New(cfg, app.WithOutput(os.Stdout))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx, flagSet.Args())
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// promptPassword reads the password from the terminal with echo disabled.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for the password prompt, set CARSON_PASSWORD or --password")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprint(os.Stderr, `carson talks to the Carson Living API: list your buildings, open doors
and fetch camera images and video.

Usage:
  carson [flags] <command> [arguments]

Flags:
`)
	fmt.Fprint(os.Stderr, flagSet.FlagUsages())
	fmt.Fprintln(os.Stderr)
	app.Usage(os.Stderr)
	fmt.Fprint(os.Stderr, `
Configuration is read from --config, then CARSON_* environment variables,
then flags.
`)
}
