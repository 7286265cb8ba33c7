package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

type mockClient struct {
	profileErr   error
	reviewsErr   error
	watchlistErr error
	moviesErr    error
	calls        []string
}

func (m *mockClient) Profile(context.Context) (*models.Profile, error) {
	m.calls = append(m.calls, "profile")
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return &models.Profile{Username: "neo", Email: "neo@example.com", ReviewsCount: 1, WatchlistCount: 2}, nil
}

func (m *mockClient) MyReviews(context.Context) ([]models.ReviewWithMovie, error) {
	m.calls = append(m.calls, "reviews")
	if m.reviewsErr != nil {
		return nil, m.reviewsErr
	}
	return []models.ReviewWithMovie{{Review: models.Review{ID: 1, Rating: 5}}}, nil
}

func (m *mockClient) MyWatchlist(context.Context) ([]models.Movie, error) {
	m.calls = append(m.calls, "watchlist")
	if m.watchlistErr != nil {
		return nil, m.watchlistErr
	}
	return []models.Movie{{ID: 1, Title: "Alien"}, {ID: 2, Title: "Heat"}}, nil
}

func (m *mockClient) YourMovies(context.Context) ([]models.Movie, error) {
	m.calls = append(m.calls, "your_movies")
	if m.moviesErr != nil {
		return nil, m.moviesErr
	}
	return []models.Movie{{ID: 3, Title: "The Matrix"}}, nil
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-ch:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestDashboardLoader(t *testing.T) {
	t.Run("Loads Every Endpoint", func(t *testing.T) {
		client := &mockClient{}
		progress := make(chan ProgressUpdate, 20)

		d, err := NewDashboardLoader(client).Load(context.Background(), progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if d.Profile == nil || d.Profile.Username != "neo" {
			t.Errorf("expected profile, got %+v", d.Profile)
		}
		if len(d.Watchlist) != 2 {
			t.Errorf("expected 2 watchlist movies, got %d", len(d.Watchlist))
		}
		if len(d.Reviews) != 1 || len(d.YourMovies) != 1 {
			t.Errorf("expected reviews and rated movies, got %+v", d)
		}

		updates := drain(progress)
		if len(updates) != 5 {
			t.Fatalf("expected 5 updates, got %d", len(updates))
		}
		if updates[0].Phase != FetchProfile || updates[0].Step != 1 || updates[0].Total != 4 {
			t.Errorf("unexpected first update %+v", updates[0])
		}
		if last := updates[len(updates)-1]; last.Phase != Complete {
			t.Errorf("expected final complete update, got %v", last.Phase)
		}
	})

	t.Run("Collects Partial Failures", func(t *testing.T) {
		client := &mockClient{watchlistErr: fmt.Errorf("%w: boom", shared.ErrServer)}

		d, err := NewDashboardLoader(client).Load(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(d.Errors) != 1 || d.Errors[0].Endpoint != "watchlist" {
			t.Errorf("expected watchlist failure recorded, got %+v", d.Errors)
		}
		if len(client.calls) != 4 {
			t.Errorf("expected all endpoints attempted, got %v", client.calls)
		}
	})

	t.Run("Partial Failures Are Encoded", func(t *testing.T) {
		client := &mockClient{reviewsErr: fmt.Errorf("%w: boom", shared.ErrServer)}

		d, err := NewDashboardLoader(client).Load(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var decoded struct {
			Errors []struct {
				Endpoint string `json:"endpoint"`
				Error    string `json:"error"`
			} `json:"errors"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("expected valid JSON, got %v", err)
		}
		if len(decoded.Errors) != 1 || decoded.Errors[0].Endpoint != "reviews" || !strings.Contains(decoded.Errors[0].Error, "boom") {
			t.Errorf("expected reviews failure in JSON, got %s", data)
		}
	})

	t.Run("No Failures Omits Errors", func(t *testing.T) {
		d, err := NewDashboardLoader(&mockClient{}).Load(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data, _ := json.Marshal(d)
		if strings.Contains(string(data), `"errors"`) {
			t.Errorf("expected no errors key, got %s", data)
		}
	})

	t.Run("Rejected Session Aborts", func(t *testing.T) {
		client := &mockClient{profileErr: fmt.Errorf("redirect: %w", shared.ErrUnauthorized)}

		_, err := NewDashboardLoader(client).Load(context.Background(), nil)
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if len(client.calls) != 1 {
			t.Errorf("expected load to stop after the first rejection, got %v", client.calls)
		}
	})

	t.Run("All Endpoints Failing", func(t *testing.T) {
		boom := fmt.Errorf("%w: down", shared.ErrNetwork)
		client := &mockClient{profileErr: boom, reviewsErr: boom, watchlistErr: boom, moviesErr: boom}

		_, err := NewDashboardLoader(client).Load(context.Background(), nil)
		if !errors.Is(err, shared.ErrUnavailable) || !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrUnavailable wrapping ErrNetwork, got %v", err)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := &mockClient{}
		_, err := NewDashboardLoader(client).Load(ctx, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(client.calls) != 0 {
			t.Errorf("expected no calls, got %v", client.calls)
		}
	})

	t.Run("Nil Client", func(t *testing.T) {
		if _, err := NewDashboardLoader(nil).Load(context.Background(), nil); !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestSendProgressNeverBlocks(t *testing.T) {
	full := make(chan ProgressUpdate)
	sendProgress(full, ProgressUpdate{Phase: FetchProfile})
	sendProgress(nil, ProgressUpdate{Phase: FetchProfile})
}

func TestPhaseString(t *testing.T) {
	if FetchYourMovies.String() != "fetch_your_movies" {
		t.Errorf("expected fetch_your_movies, got %s", FetchYourMovies.String())
	}
	if Phase(99).String() != "" {
		t.Error("expected empty string for unknown phase")
	}
}
