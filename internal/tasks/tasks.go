// package tasks implements progress-reporting operations over the catalog API.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Error    error
}

// MarshalJSON encodes the failure as its endpoint and error message.
func (r EndpointResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Endpoint string `json:"endpoint"`
		Error    string `json:"error,omitempty"`
	}{Endpoint: r.Endpoint}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// Dashboard is the authenticated user's data.
type Dashboard struct {
	Profile    *models.Profile          `json:"profile,omitempty"`
	Reviews    []models.ReviewWithMovie `json:"reviews"`
	Watchlist  []models.Movie           `json:"watchlist"`
	YourMovies []models.Movie           `json:"your_movies"`
	Errors     []EndpointResult         `json:"errors,omitempty"`
}

// DashboardClient is the subset of the API client used by [DashboardLoader].
type DashboardClient interface {
	Profile(ctx context.Context) (*models.Profile, error)
	MyReviews(ctx context.Context) ([]models.ReviewWithMovie, error)
	MyWatchlist(ctx context.Context) ([]models.Movie, error)
	YourMovies(ctx context.Context) ([]models.Movie, error)
}

type endpointOperation struct {
	name    string
	phase   Phase
	message string
	fetch   func(ctx context.Context, d *Dashboard) error
}

// DashboardLoader fetches every user-scoped endpoint.
type DashboardLoader struct {
	client DashboardClient
}

func NewDashboardLoader(client DashboardClient) *DashboardLoader {
	return &DashboardLoader{client: client}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Load fetches the dashboard. Failures other than a rejected session are collected in [Dashboard.Errors];
// an error is returned when the session is rejected or when every endpoint failed.
func (l *DashboardLoader) Load(ctx context.Context, progress chan<- ProgressUpdate) (*Dashboard, error) {
	if l.client == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrUnavailable)
	}

	d := &Dashboard{}
	ops := l.operations()
	total := len(ops)

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return d, err
		}

		sendProgress(progress, endpointUpdate(op, i+1, total))

		if err := op.fetch(ctx, d); err != nil {
			sendProgress(progress, endpointFailedUpdate(op, i+1, total, err))
			if sessionRejected(err) {
				return d, err
			}
			d.Errors = append(d.Errors, EndpointResult{Endpoint: op.name, Error: err})
		}
	}

	if len(d.Errors) == total {
		return d, fmt.Errorf("%w: every dashboard endpoint failed: %w", shared.ErrUnavailable, d.Errors[0].Error)
	}

	sendProgress(progress, completeUpdate(total, d))
	return d, nil
}

func (l *DashboardLoader) operations() []endpointOperation {
	return []endpointOperation{
		{name: "profile", phase: FetchProfile, message: "Fetching profile...", fetch: func(ctx context.Context, d *Dashboard) (err error) {
			d.Profile, err = l.client.Profile(ctx)
			return err
		}},
		{name: "reviews", phase: FetchReviews, message: "Fetching your reviews...", fetch: func(ctx context.Context, d *Dashboard) (err error) {
			d.Reviews, err = l.client.MyReviews(ctx)
			return err
		}},
		{name: "watchlist", phase: FetchWatchlist, message: "Fetching your watchlist...", fetch: func(ctx context.Context, d *Dashboard) (err error) {
			d.Watchlist, err = l.client.MyWatchlist(ctx)
			return err
		}},
		{name: "your_movies", phase: FetchYourMovies, message: "Fetching movies you rated...", fetch: func(ctx context.Context, d *Dashboard) (err error) {
			d.YourMovies, err = l.client.YourMovies(ctx)
			return err
		}},
	}
}

func sessionRejected(err error) bool {
	return errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrNotAuthenticated)
}
