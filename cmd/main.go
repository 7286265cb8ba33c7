package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/marquee/internal/session"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	exitError    = 1
	exitNoLogin  = 2
	exitBadInput = 3
)

func main() {
	logOutput := shared.NewLogOutput(os.Stderr)
	logger := shared.NewLogger(logOutput)
	runner := NewRunner(RunnerOpts{Logger: logger, LogOutput: logOutput})
	app := newApp(runner)

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Error(err.Error())
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(exitCode(err))
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "marquee",
		Usage:   "Browse, search and review the movie catalog",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("MARQUEE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Bootstrap,
		After:    r.Close,
		Commands: r.register(),
	}
}

// exitCode maps an error onto the process exit status.
func exitCode(err error) int {
	var redirect *session.RedirectError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &redirect), errors.Is(err, shared.ErrNotAuthenticated):
		return exitNoLogin
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidInput):
		return exitBadInput
	default:
		return exitError
	}
}

// errorHint suggests a next step for errors the user can fix.
func errorHint(err error) string {
	var redirect *session.RedirectError
	switch {
	case errors.As(err, &redirect) && errors.Is(err, shared.ErrUnauthorized):
		return "Your session was rejected by the server. Run `marquee auth login` to sign in again."
	case errors.As(err, &redirect) && errors.Is(err, shared.ErrTokenExpired):
		return "Your session has expired. Run `marquee auth login` to sign in again."
	case errors.As(err, &redirect), errors.Is(err, shared.ErrNotAuthenticated):
		return "You are not signed in. Run `marquee auth login` or `marquee auth register`."
	case errors.Is(err, shared.ErrInvalidConfig):
		return "Check your configuration file or run `marquee setup`."
	case errors.Is(err, shared.ErrNetwork), errors.Is(err, shared.ErrUnreachable):
		return "Could not reach the catalog server. Check [api].base_url in your configuration."
	default:
		return ""
	}
}
