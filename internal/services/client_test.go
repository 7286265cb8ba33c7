package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
	tu "github.com/desertthunder/marquee/internal/testing"
)

// stubGuard is a [Guard] holding a fixed token.
type stubGuard struct {
	mu          sync.Mutex
	token       string
	invalidated []error
}

func (g *stubGuard) BearerToken(required bool) (string, error) {
	g.mu.Lock()
	token := g.token
	g.mu.Unlock()

	if token == "" && required {
		return "", g.Invalidate(shared.ErrNotAuthenticated)
	}
	return token, nil
}

func (g *stubGuard) Invalidate(reason error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
	g.invalidated = append(g.invalidated, reason)
	return fmt.Errorf("redirect to /login: %w", reason)
}

func (g *stubGuard) invalidations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.invalidated)
}

func newTestClient(t *testing.T, baseURL string, guard Guard) *Client {
	t.Helper()
	c, err := NewClient(ClientOpts{BaseURL: baseURL, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if guard != nil {
		c.SetGuard(guard)
	}
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("Rejects Relative URL", func(t *testing.T) {
		_, err := NewClient(ClientOpts{BaseURL: "movies.local"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Trims Trailing Slash", func(t *testing.T) {
		c := newTestClient(t, "http://example.com/", nil)
		if c.BaseURL() != "http://example.com" {
			t.Errorf("expected trimmed base url, got %s", c.BaseURL())
		}
	})
}

func TestListMovies(t *testing.T) {
	t.Run("All Genres Omits Genre Parameter", func(t *testing.T) {
		var query map[string][]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/movies/" {
				t.Errorf("expected path /movies/, got %s", r.URL.Path)
			}
			query = r.URL.Query()
			json.NewEncoder(w).Encode([]models.Movie{{ID: 1, Title: "The Matrix"}})
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, nil)
		movies, err := c.ListMovies(context.Background(), models.Filter{SearchTerm: "", Genre: models.AllGenres})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(movies) != 1 || movies[0].Title != "The Matrix" {
			t.Errorf("expected one movie, got %+v", movies)
		}
		if _, ok := query["genre"]; ok {
			t.Errorf("expected no genre parameter, got %v", query["genre"])
		}
		if v, ok := query["search"]; !ok || v[0] != "" {
			t.Errorf("expected empty search parameter to be sent, got %v", query)
		}
	})

	t.Run("Unknown Genre Passes Through Verbatim", func(t *testing.T) {
		var genre, search string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			genre = r.URL.Query().Get("genre")
			search = r.URL.Query().Get("search")
			w.Write([]byte("[]"))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, nil)
		if _, err := c.ListMovies(context.Background(), models.Filter{SearchTerm: "Matrix", Genre: "Cyber Noir"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if genre != "Cyber Noir" {
			t.Errorf("expected genre Cyber Noir, got %q", genre)
		}
		if search != "Matrix" {
			t.Errorf("expected search Matrix, got %q", search)
		}
	})

	t.Run("Attaches Token When Present", func(t *testing.T) {
		var auth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.Write([]byte("[]"))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &stubGuard{token: "abc123"})
		if _, err := c.ListMovies(context.Background(), models.Filter{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if auth != "Bearer abc123" {
			t.Errorf("expected bearer header, got %q", auth)
		}
	})

	t.Run("No Token Without Session", func(t *testing.T) {
		var auth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.Write([]byte("[]"))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &stubGuard{})
		if _, err := c.ListMovies(context.Background(), models.Filter{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if auth != "" {
			t.Errorf("expected no authorization header, got %q", auth)
		}
	})
}

func TestIssueToken(t *testing.T) {
	t.Run("Form Encoded Credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/token" {
				t.Errorf("expected POST /token, got %s %s", r.Method, r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("expected form content type, got %s", ct)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			if r.PostForm.Get("username") != "neo@example.com" || r.PostForm.Get("password") != "redpill" {
				t.Errorf("unexpected form values: %v", r.PostForm)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("token request must not carry a bearer header")
			}
			w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer"}`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &stubGuard{token: "stale"})
		tok, err := c.IssueToken(context.Background(), "neo@example.com", "redpill")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "tok-1" {
			t.Errorf("expected access token tok-1, got %s", tok.AccessToken)
		}
		if tok.Type() != "Bearer" {
			t.Errorf("expected Bearer token type, got %s", tok.Type())
		}
	})

	t.Run("Rejected Credentials Do Not Invalidate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Incorrect email or password"}`))
		}))
		defer server.Close()

		guard := &stubGuard{token: "existing"}
		c := newTestClient(t, server.URL, guard)
		_, err := c.IssueToken(context.Background(), "neo@example.com", "bluepill")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Detail != "Incorrect email or password" {
			t.Errorf("expected server detail, got %q", apiErr.Detail)
		}
		if guard.invalidations() != 0 {
			t.Error("token endpoint rejection must not invalidate the session")
		}
	})

	t.Run("Missing Access Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"token_type":"bearer"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL, nil).IssueToken(context.Background(), "a@b.c", "x")
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})
}

func TestAuthorizationGuard(t *testing.T) {
	t.Run("Required Without Session Skips Network", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		guard := &stubGuard{}
		c := newTestClient(t, server.URL, guard)
		_, err := c.Profile(context.Background())

		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if hits.Load() != 0 {
			t.Errorf("expected no requests, got %d", hits.Load())
		}
	})

	t.Run("Required Without Guard", func(t *testing.T) {
		c := newTestClient(t, "http://127.0.0.1:1", nil)
		if _, err := c.MyWatchlist(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Rejected Token Invalidates Session", func(t *testing.T) {
		endpoints := map[string]func(c *Client) error{
			"profile":   func(c *Client) error { _, err := c.Profile(context.Background()); return err },
			"reviews":   func(c *Client) error { _, err := c.MyReviews(context.Background()); return err },
			"watchlist": func(c *Client) error { _, err := c.MyWatchlist(context.Background()); return err },
			"user reviews": func(c *Client) error {
				_, err := c.UserReviews(context.Background())
				return err
			},
			"your movies": func(c *Client) error { _, err := c.YourMovies(context.Background()); return err },
			"catalog": func(c *Client) error {
				_, err := c.ListMovies(context.Background(), models.Filter{})
				return err
			},
			"raw get": func(c *Client) error { _, err := c.Get(context.Background(), "/my-profile"); return err },
		}

		for name, call := range endpoints {
			t.Run(name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"detail":"Could not validate credentials"}`))
				}))
				defer server.Close()

				guard := &stubGuard{token: "expired"}
				err := call(newTestClient(t, server.URL, guard))

				if !errors.Is(err, shared.ErrUnauthorized) {
					t.Errorf("expected ErrUnauthorized, got %v", err)
				}
				if guard.invalidations() != 1 {
					t.Errorf("expected exactly one invalidation, got %d", guard.invalidations())
				}
			})
		}
	})
}

func TestAPIErrors(t *testing.T) {
	tc := []struct {
		name   string
		status int
		body   string
		kind   error
		detail string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"detail":"Movie not found"}`, kind: shared.ErrNotFound, detail: "Movie not found"},
		{name: "bad request", status: http.StatusBadRequest, body: `{"detail":"Email already registered"}`, kind: shared.ErrValidation, detail: "Email already registered"},
		{
			name:   "unprocessable entity list",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","rating"],"msg":"field required","type":"value_error.missing"}]}`,
			kind:   shared.ErrValidation,
			detail: "rating: field required",
		},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, kind: shared.ErrServer, detail: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL, nil).GetMovie(context.Background(), 7)

			if !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Detail != tt.detail {
				t.Errorf("expected detail %q, got %q", tt.detail, apiErr.Detail)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
		})
	}
}

func TestTransportFailures(t *testing.T) {
	t.Run("Failed HTTP Request", func(t *testing.T) {
		c, err := NewClient(ClientOpts{
			BaseURL:   "http://example.com",
			Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused")),
			Logger:    log.New(io.Discard),
		})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		_, err = c.ListGenres(context.Background())
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("Failed Response Body Read", func(t *testing.T) {
		c, err := NewClient(ClientOpts{
			BaseURL: "http://example.com",
			Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil),
			Logger: log.New(io.Discard),
		})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		_, err = c.ListGenres(context.Background())
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
		if !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected 'failed to read response' error, got %v", err)
		}
	})

	t.Run("Undecodable Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>not json</html>`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL, nil).ListGenres(context.Background())
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("With Canceled Context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("[]"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient(t, server.URL, nil).ListMovies(ctx, models.Filter{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestMutations(t *testing.T) {
	t.Run("CreateReview Validates Before Sending", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("should not be called"))
		c, err := NewClient(ClientOpts{BaseURL: "http://example.com", Transport: rt, Logger: log.New(io.Discard)})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		c.SetGuard(&stubGuard{token: "abc"})

		_, err = c.CreateReview(context.Background(), 3, models.ReviewInput{Rating: 9})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if rt.Calls() != 0 {
			t.Errorf("expected no requests, got %d", rt.Calls())
		}
	})

	t.Run("CreateReview Sends JSON With Bearer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/movies/3/reviews" {
				t.Errorf("expected review path, got %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer abc" {
				t.Errorf("expected bearer header, got %q", r.Header.Get("Authorization"))
			}
			var in models.ReviewInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			w.Write([]byte(fmt.Sprintf(`{"id":10,"rating":%d,"comment":%q,"created_at":"2024-05-01T10:00:00","user_id":1,"movie_id":3,"user_username":"neo"}`, in.Rating, in.Comment)))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &stubGuard{token: "abc"})
		review, err := c.CreateReview(context.Background(), 3, models.ReviewInput{Rating: 5, Comment: "There is no spoon"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if review.ID != 10 || review.Comment != "There is no spoon" {
			t.Errorf("unexpected review %+v", review)
		}
	})

	t.Run("CreateMovie Sends Genre IDs", func(t *testing.T) {
		var body map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&body)
			w.Write([]byte(`{"id":4,"title":"Heat","director":"Michael Mann","year":1995,"genres":["Crime"]}`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &stubGuard{token: "abc"})
		movie, err := c.CreateMovie(context.Background(), models.MovieInput{Title: "Heat", Director: "Michael Mann", Year: 1995, GenreIDs: []int{3}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if movie.ID != 4 {
			t.Errorf("expected movie id 4, got %d", movie.ID)
		}
		if ids, ok := body["genre_ids"].([]any); !ok || len(ids) != 1 {
			t.Errorf("expected genre_ids in body, got %v", body)
		}
	})

	t.Run("AddToWatchlist", func(t *testing.T) {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.Write([]byte(`{"message":"Added to watchlist"}`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &stubGuard{token: "abc"})
		if err := c.AddToWatchlist(context.Background(), 12); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if path != "/watchlist/12" {
			t.Errorf("expected /watchlist/12, got %s", path)
		}
	})

	t.Run("Register", func(t *testing.T) {
		var reg models.Registration
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&reg)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"email":"neo@example.com"}`))
		}))
		defer server.Close()

		err := newTestClient(t, server.URL, nil).Register(context.Background(), models.Registration{Email: "neo@example.com", Password: "redpill", Username: "neo"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if reg.Username != "neo" {
			t.Errorf("expected username neo, got %s", reg.Username)
		}
	})
}
