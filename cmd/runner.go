package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/formatter"
	"github.com/desertthunder/marquee/internal/repositories"
	"github.com/desertthunder/marquee/internal/services"
	"github.com/desertthunder/marquee/internal/session"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/desertthunder/marquee/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies are built once by [Runner.Bootstrap] and shared by every command.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *services.Client
	session    *session.Manager
	events     *repositories.SessionEventRepository
	store      session.Storage
	db         *sql.DB
	logger     *log.Logger
	logOutput  *shared.LogOutput
	output     io.Writer
	input      io.Reader
	loader     *tasks.DashboardLoader
	ready      bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// When both Client and Session are provided the runner is ready and [Runner.Bootstrap] is a no-op.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     *services.Client
	Session    *session.Manager
	Events     *repositories.SessionEventRepository
	Logger     *log.Logger
	LogOutput  *shared.LogOutput // destination of Logger, redirected by the TUI
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		if opts.LogOutput == nil {
			opts.LogOutput = shared.NewLogOutput(os.Stderr)
		}
		opts.Logger = shared.NewLogger(opts.LogOutput)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		session:    opts.Session,
		events:     opts.Events,
		logger:     opts.Logger,
		logOutput:  opts.LogOutput,
		output:     opts.Output,
		input:      opts.Input,
	}
	if r.client != nil && r.session != nil {
		r.wire()
	}
	return r
}

// Bootstrap resolves configuration and builds storage, the API client and the session manager.
// It runs before every command and only does work the first time.
func (r *Runner) Bootstrap(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.ready {
		return ctx, nil
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.config == nil {
		config, err := shared.Load(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	store, err := r.openStorage(ctx)
	if err != nil {
		return ctx, err
	}

	client, err := services.NewClient(services.ClientOpts{
		BaseURL:   r.config.API.BaseURL,
		Timeout:   r.config.API.Timeout(),
		RateLimit: r.config.API.RateLimit,
		RateBurst: r.config.API.RateBurst,
		Logger:    r.logger,
	})
	if err != nil {
		return ctx, err
	}

	opts := session.ManagerOpts{Store: store, Auth: client, Logger: r.logger}
	if r.events != nil {
		opts.Events = r.events
	}

	r.store = store
	r.client = client
	r.session = session.NewManager(opts)
	r.wire()

	r.logger.Debug("runner ready", "api", client.BaseURL(), "session_backend", r.config.Session.Backend)
	return ctx, nil
}

// wire connects the client to the session guard and subscribes the CLI's session hooks.
func (r *Runner) wire() {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	r.client.SetGuard(r.session)
	r.session.Subscribe(session.Hooks{
		OnLogin: r.onLogin,
		OnRedirect: func(re *session.RedirectError) {
			r.logger.Warn("session rejected, login required", "path", re.Path, "reason", re.Reason)
		},
	})
	r.loader = tasks.NewDashboardLoader(r.client)
	r.ready = true
}

// openStorage returns the session backend named by the config.
//
// The sqlite backend also enables the session event history.
func (r *Runner) openStorage(ctx context.Context) (session.Storage, error) {
	switch r.config.Session.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "file":
		return session.NewFileStore(shared.ExpandHome(r.config.Session.Path))
	default:
		db, err := r.openDatabase(ctx)
		if err != nil {
			return nil, err
		}
		r.events = repositories.NewSessionEventRepository(db)
		return repositories.NewStoreRepository(db), nil
	}
}

func (r *Runner) openDatabase(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if n, err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", shared.ErrStorage, err)
	} else if n > 0 {
		r.logger.Debug("applied migrations", "count", n)
	}

	r.db = db
	return db, nil
}

// Close releases the database handle, if one was opened.
//
// Everything built on the handle is dropped with it, so a later run bootstraps again.
func (r *Runner) Close(context.Context, *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.events, r.store = nil, nil, nil
	r.ready = false
	return err
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// onLogin reloads the user's dashboard (profile, reviews, watchlist, rated movies) after a login.
func (r *Runner) onLogin(ctx context.Context, s session.Session) {
	d, err := r.loader.Load(ctx, nil)
	if err != nil {
		r.logger.Warn("failed to load dashboard after login", "user", s.UserEmail, "err", err)
		return
	}

	if p := d.Profile; p != nil {
		r.writePlain("Welcome, %s (%d reviews, %d on watchlist)\n", p.Username, p.ReviewsCount, p.WatchlistCount)
	} else {
		r.writePlain("Welcome, %s (%d reviews, %d on watchlist)\n", s.UserEmail, len(d.Reviews), len(d.Watchlist))
	}

	for _, e := range d.Errors {
		r.logger.Warn("dashboard section unavailable", "endpoint", e.Endpoint, "err", e.Error)
		r.writePlain("  could not load %s: %v\n", e.Endpoint, e.Error)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, genresCommand, reviewsCommand, meCommand, watchlistCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeTable writes a rendered table, using box drawing only on a terminal.
func (r *Runner) writeTable(render func(rounded bool) string) error {
	return r.writePlain("%s\n", render(formatter.IsTerminal(r.output)))
}
