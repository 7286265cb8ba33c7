package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// DefaultDebounce is the quiet period used when Schedule is given a non-positive delay.
const DefaultDebounce = 300 * time.Millisecond

var ErrClosed = fmt.Errorf("query pipeline closed")

// Clock abstracts timers so tests can control time.
//
// AfterFunc runs f once d has elapsed; the returned function stops the timer and reports whether it did so
// before f ran.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Fetcher runs a catalog search.
type Fetcher interface {
	ListMovies(ctx context.Context, f models.Filter) ([]models.Movie, error)
}

// Result is one delivered response.
type Result struct {
	Seq    uint64
	Filter models.Filter
	Movies []models.Movie
	Err    error
}

// Opts configures a [Pipeline]. Fetcher is required.
type Opts struct {
	Fetcher  Fetcher
	Clock    Clock
	Debounce time.Duration
	Filter   models.Filter
	Logger   *log.Logger

	// OnResult receives fresh results and errors, in sequence order. It runs on the goroutine that completed
	// the request and must not call FetchNow synchronously.
	OnResult func(Result)
}

// Pipeline debounces searches and sequences their responses.
type Pipeline struct {
	fetcher  Fetcher
	clock    Clock
	debounce time.Duration
	onResult func(Result)
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	filter models.Filter
	stop   func() bool
	gen    uint64 // bumped whenever the armed timer is replaced or dropped
	seq    uint64
	closed bool

	deliverMu sync.Mutex
	delivered uint64
}

func New(opts Opts) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.OnResult == nil {
		opts.OnResult = func(Result) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		fetcher:  opts.Fetcher,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		onResult: opts.OnResult,
		logger:   shared.WithLogger(opts.Logger, "component", "query"),
		ctx:      ctx,
		cancel:   cancel,
		filter:   opts.Filter,
	}
}

func (p *Pipeline) SetSearchTerm(term string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.SearchTerm = term
}

// SetGenre sets the genre constraint. The value is not validated; [models.AllGenres] clears the constraint.
func (p *Pipeline) SetGenre(genre string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.Genre = genre
}

// Filter returns the current filter state.
func (p *Pipeline) Filter() models.Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Schedule (re)arms the debounce timer. Any previously armed timer is cancelled.
// A non-positive delay uses the pipeline's configured debounce.
func (p *Pipeline) Schedule(after time.Duration) {
	if after <= 0 {
		after = p.debounce
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.disarmLocked()

	gen := p.gen
	p.stop = p.clock.AfterFunc(after, func() { p.fire(gen) })
}

// Pending reports whether a debounce timer is armed.
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// FetchNow issues a request immediately with the current filter, dropping any armed timer.
//
// The returned values are the response to this call even when a newer request has already been delivered;
// OnResult only sees it when it is the freshest.
func (p *Pipeline) FetchNow(ctx context.Context) ([]models.Movie, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.disarmLocked()
	f := p.filter
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	res := p.run(ctx, seq, f)
	return res.Movies, res.Err
}

// Close cancels the armed timer and in-flight requests. Later calls to Schedule are ignored
// and FetchNow returns [ErrClosed].
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.disarmLocked()
	p.mu.Unlock()

	p.cancel()
}

// fire is the timer callback for generation gen. A timer that fired after being replaced is a no-op.
func (p *Pipeline) fire(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.stop = nil
	f := p.filter
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	p.run(context.Background(), seq, f)
}

// run performs the request bound to both ctx and the pipeline's lifetime, then delivers the result.
func (p *Pipeline) run(ctx context.Context, seq uint64, f models.Filter) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	p.logger.Debug("fetch", "seq", seq, "search", f.SearchTerm, "genre", f.Genre)
	movies, err := p.fetcher.ListMovies(ctx, f)

	res := Result{Seq: seq, Filter: f, Movies: movies, Err: err}
	p.deliver(res)
	return res
}

func (p *Pipeline) deliver(res Result) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return
	}
	if res.Seq <= p.delivered {
		p.logger.Debug("dropping stale response", "seq", res.Seq, "delivered", p.delivered)
		return
	}
	p.delivered = res.Seq

	if res.Err != nil {
		p.logger.Warn("search failed", "seq", res.Seq, "err", res.Err)
	}
	p.onResult(res)
}

func (p *Pipeline) disarmLocked() {
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
	p.gen++
}
