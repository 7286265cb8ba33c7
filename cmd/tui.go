package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/desertthunder/marquee/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive catalog browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.client == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrUnavailable)
	}

	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/marquee-tui.log"
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logFile, err := shared.OpenLogFile(shared.ExpandHome(logPath))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()

	if r.logOutput != nil {
		prev := r.logOutput.Redirect(logFile)
		defer r.logOutput.Redirect(prev)
	} else {
		fileLogger := shared.NewLogger(logFile)
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	genre := cmd.String("genre")
	if genre == "" {
		genre = r.config.Search.DefaultGenre
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, ui.Opts{
		Catalog:  r.client,
		Session:  r.session,
		Debounce: r.config.Search.Debounce(),
		Genre:    genre,
		Logger:   r.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
