package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/query"
	"github.com/desertthunder/marquee/internal/session"
	"github.com/desertthunder/marquee/internal/shared"
)

const (
	defaultWidth  = 80
	defaultHeight = 20
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	DetailView
)

// Catalog is the subset of the API client the TUI reads from.
type Catalog interface {
	query.Fetcher
	ListGenres(ctx context.Context) ([]models.Genre, error)
	GetMovie(ctx context.Context, id int) (*models.Movie, error)
	ListReviews(ctx context.Context, movieID int) ([]models.Review, error)
}

// SessionView exposes the current session for the header.
type SessionView interface {
	Current() session.Session
}

// Opts configures a [Model]. Catalog is required.
type Opts struct {
	Catalog  Catalog
	Session  SessionView
	Clock    query.Clock
	Debounce time.Duration
	Genre    string
	Logger   *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	catalog  Catalog
	session  SessionView
	pipeline *query.Pipeline
	results  chan query.Result
	logger   *log.Logger
	width    int
	height   int
	input    textinput.Model
	movies   list.Model
	spinner  spinner.Model
	genres   []string
	genreIdx int
	loading  bool
	count    int
	detail   *models.Movie
	reviews  []models.Review
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model and its search pipeline. Call [Model.Close] when the program exits.
func NewModel(ctx context.Context, opts Opts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	genre := opts.Genre
	if genre == "" {
		genre = models.AllGenres
	}

	m := &Model{
		ctx:     ctx,
		view:    SearchView,
		catalog: opts.Catalog,
		session: opts.Session,
		results: make(chan query.Result, 16),
		logger:  shared.WithLogger(opts.Logger, "component", "ui"),
		genres:  []string{genre},
		help:    help.New(),
		keys:    newKeyMap(),
	}

	m.pipeline = query.New(query.Opts{
		Fetcher:  opts.Catalog,
		Clock:    opts.Clock,
		Debounce: opts.Debounce,
		Filter:   models.Filter{Genre: genre},
		Logger:   opts.Logger,
		OnResult: m.publish,
	})

	m.input = textinput.New()
	m.input.Placeholder = "Search movies"
	m.input.Prompt = "🔎 "
	m.input.CharLimit = 120
	m.input.Focus()

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))

	m.movies = list.New(nil, list.NewDefaultDelegate(), defaultWidth, defaultHeight)
	m.movies.Title = "Movies"
	m.movies.SetShowHelp(false)
	m.movies.SetFilteringEnabled(false)
	m.movies.SetShowStatusBar(false)

	return m
}

// publish hands a pipeline result to the UI loop.
func (m *Model) publish(res query.Result) {
	select {
	case m.results <- res:
	case <-m.ctx.Done():
	}
}

// Close stops the search pipeline.
func (m *Model) Close() {
	m.pipeline.Close()
}

// Filter returns the current search filter.
func (m *Model) Filter() models.Filter {
	return m.pipeline.Filter()
}

// Init starts the first catalog load, fetches genres and begins listening for search results.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.fetchGenres(), m.fetchNow(), m.waitForResult())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.movies.SetSize(msg.Width-4, max(msg.Height-10, 4))
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DetailView:
			return m.handleDetailKeys(msg)
		default:
			return m.handleSearchKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgGenresFetched:
		p := msg.data.(genresPayload)
		if p.err != nil {
			m.logger.Warn("failed to load genres", "err", p.err)
			m.err = p.err
			return m, nil
		}
		m.setGenres(p.genres)
		return m, nil

	case MsgSearchResult:
		res := msg.data.(query.Result)
		m.loading = false
		if res.Err != nil {
			m.err = res.Err
			return m, m.waitForResult()
		}
		m.err = nil
		m.count = len(res.Movies)
		m.movies.SetItems(movieItems(res.Movies))
		m.movies.Select(0)
		return m, m.waitForResult()

	case MsgDetailFetched:
		p := msg.data.(detailPayload)
		m.loading = false
		if p.err != nil {
			m.err = p.err
			if m.detail == nil {
				m.view = SearchView
			}
			return m, nil
		}
		m.detail = p.movie
		m.reviews = p.reviews
		return m, nil
	}
	return m, nil
}

// setGenres rebuilds the genre cycle: the "no filter" entry first, then the server's genres.
// The current genre stays selected; one the server does not list is kept right after "no filter",
// since the pipeline still sends it.
func (m *Model) setGenres(genres []models.Genre) {
	current := m.genres[m.genreIdx]
	names := []string{models.AllGenres}
	for _, g := range genres {
		if g.Name != "" && g.Name != models.AllGenres {
			names = append(names, g.Name)
		}
	}

	idx := slices.Index(names, current)
	if idx < 0 && current != "" {
		names = slices.Insert(names, 1, current)
		idx = 1
	}

	m.genres = names
	m.genreIdx = max(idx, 0)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.back):
		return m, tea.Quit

	case key.Matches(msg, m.keys.genre):
		m.genreIdx = (m.genreIdx + 1) % len(m.genres)
		m.pipeline.SetGenre(m.genres[m.genreIdx])
		m.loading = true
		return m, m.fetchNow()

	case key.Matches(msg, m.keys.enter):
		selected, ok := m.movies.SelectedItem().(movieItem)
		if !ok {
			return m, nil
		}
		m.view = DetailView
		m.detail = nil
		m.reviews = nil
		m.err = nil
		m.loading = true
		return m, m.fetchDetail(selected.movie.ID)

	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		var cmd tea.Cmd
		m.movies, cmd = m.movies.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.pipeline.SetSearchTerm(after)
		m.pipeline.Schedule(0)
		m.loading = true
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		m.detail = nil
		m.reviews = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

// fetchNow bypasses the debounce. The response reaches the model through the results channel.
func (m *Model) fetchNow() tea.Cmd {
	return func() tea.Msg {
		_, _ = m.pipeline.FetchNow(m.ctx)
		return nil
	}
}

func (m *Model) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case res := <-m.results:
			return searchResultMsg(res)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) fetchGenres() tea.Cmd {
	return func() tea.Msg {
		genres, err := m.catalog.ListGenres(m.ctx)
		return genresFetchedMsg(genres, err)
	}
}

func (m *Model) fetchDetail(id int) tea.Cmd {
	return func() tea.Msg {
		movie, err := m.catalog.GetMovie(m.ctx, id)
		if err != nil {
			return detailFetchedMsg(nil, nil, err)
		}
		reviews, err := m.catalog.ListReviews(m.ctx, id)
		if err != nil {
			return detailFetchedMsg(movie, nil, err)
		}
		return detailFetchedMsg(movie, reviews, nil)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DetailView:
		return m.renderDetail()
	default:
		return m.renderSearch()
	}
}

func (m *Model) renderHeader() string {
	title := styles.brand.Render("marquee")
	who := styles.hint.Render("Browsing anonymously")
	if m.session != nil {
		if s := m.session.Current(); s.Authenticated() {
			who = styles.signedIn.Render("Signed in as " + s.UserEmail)
		}
	}
	return fmt.Sprintf("%s  %s", title, who)
}

func (m *Model) renderError() string {
	if m.err == nil {
		return ""
	}
	if errors.Is(m.err, shared.ErrNotAuthenticated) || errors.Is(m.err, shared.ErrUnauthorized) {
		return styles.notice.Render("Your session has ended. Run `marquee auth login` to sign in again.")
	}
	return styles.failure.Render(fmt.Sprintf("Error: %v", m.err))
}

func (m *Model) renderSearch() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("  ")
	b.WriteString(styles.genre.Render(m.genres[m.genreIdx]))
	b.WriteString("\n\n")

	status := fmt.Sprintf("%d movies", m.count)
	if m.loading {
		status = m.spinner.View() + " Searching..."
	}
	b.WriteString(styles.hint.Render(status))
	b.WriteString("\n")

	if e := m.renderError(); e != "" {
		b.WriteString(e)
		b.WriteString("\n")
	}

	b.WriteString(m.movies.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.genre, m.keys.up, m.keys.down, m.keys.enter, m.keys.back}))
	return b.String()
}

func (m *Model) renderDetail() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	if m.detail == nil {
		if e := m.renderError(); e != "" {
			return fmt.Sprintf("%s\n\n%s\n\n%s", m.renderHeader(), e, helpView)
		}
		return fmt.Sprintf("%s\n\n%s Loading...\n\n%s", m.renderHeader(), m.spinner.View(), helpView)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(styles.brand.Render(m.detail.String()))
	b.WriteString("\n")
	if m.detail.Director != "" {
		fmt.Fprintf(&b, "Director: %s\n", m.detail.Director)
	}
	if len(m.detail.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", m.detail.GenreList())
	}
	if m.detail.Synopsis != "" {
		fmt.Fprintf(&b, "\n%s\n", m.detail.Synopsis)
	}

	b.WriteString("\n")
	b.WriteString(styles.section.Render(fmt.Sprintf("Reviews (%d)", len(m.reviews))))
	b.WriteString("\n")
	if e := m.renderError(); e != "" {
		b.WriteString(e)
		b.WriteString("\n")
	}
	for _, r := range m.reviews {
		author := r.UserUsername
		if author == "" {
			author = fmt.Sprintf("user %d", r.UserID)
		}
		fmt.Fprintf(&b, "  %s %s", styles.Stars(r.Rating), author)
		if r.Comment != "" {
			fmt.Fprintf(&b, ": %s", r.Comment)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpView)
	return b.String()
}
