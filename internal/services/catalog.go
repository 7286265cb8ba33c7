package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// ListMovies searches the catalog.
//
// search is always sent, empty meaning no text filter. genre is sent verbatim unless the filter has none.
func (c *Client) ListMovies(ctx context.Context, f models.Filter) ([]models.Movie, error) {
	query := url.Values{}
	query.Set("search", f.SearchTerm)
	if f.HasGenre() {
		query.Set("genre", f.Genre)
	}

	var movies []models.Movie
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/movies/", query: query, auth: AuthOptional}, &movies)
	return movies, err
}

// CreateMovie adds a catalog entry.
func (c *Client) CreateMovie(ctx context.Context, in models.MovieInput) (*models.Movie, error) {
	if err := c.validateInput(in); err != nil {
		return nil, err
	}
	if in.GenreIDs == nil {
		in.GenreIDs = []int{}
	}

	r, err := jsonRequest(http.MethodPost, "/movies/", AuthRequired, in)
	if err != nil {
		return nil, err
	}

	var movie models.Movie
	if err := c.doJSON(ctx, r, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) ListGenres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/genres/", auth: AuthOptional}, &genres)
	return genres, err
}

// IssueToken exchanges credentials for an access token at /token using form encoding.
func (c *Client) IssueToken(ctx context.Context, username, password string) (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	r := request{
		method:      http.MethodPost,
		path:        "/token",
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		auth:        AuthNone,
	}

	var tok oauth2.Token
	if err := c.doJSON(ctx, r, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", shared.ErrNetwork)
	}
	if tok.Expiry.IsZero() && tok.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return &tok, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	if err := c.validateInput(reg); err != nil {
		return err
	}

	r, err := jsonRequest(http.MethodPost, "/register", AuthNone, reg)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, r, nil)
}

func (c *Client) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	var movie models.Movie
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: moviePath(id), auth: AuthNone}, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) ListReviews(ctx context.Context, movieID int) ([]models.Review, error) {
	var reviews []models.Review
	err := c.doJSON(ctx, request{method: http.MethodGet, path: moviePath(movieID) + "/reviews", auth: AuthOptional}, &reviews)
	return reviews, err
}

// CreateReview posts a review for movieID as the current user.
func (c *Client) CreateReview(ctx context.Context, movieID int, in models.ReviewInput) (*models.Review, error) {
	if err := c.validateInput(in); err != nil {
		return nil, err
	}

	r, err := jsonRequest(http.MethodPost, moviePath(movieID)+"/reviews", AuthRequired, in)
	if err != nil {
		return nil, err
	}

	var review models.Review
	if err := c.doJSON(ctx, r, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/my-profile", auth: AuthRequired}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) MyReviews(ctx context.Context) ([]models.ReviewWithMovie, error) {
	var reviews []models.ReviewWithMovie
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/my-reviews", auth: AuthRequired}, &reviews)
	return reviews, err
}

func (c *Client) MyWatchlist(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/my-watchlist", auth: AuthRequired}, &movies)
	return movies, err
}

// UserReviews lists the current user's reviews from the /api/user/reviews endpoint.
func (c *Client) UserReviews(ctx context.Context) ([]models.ReviewWithMovie, error) {
	var reviews []models.ReviewWithMovie
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/user/reviews", auth: AuthRequired}, &reviews)
	return reviews, err
}

// YourMovies lists the movies the current user has reviewed, each with YourRating set.
func (c *Client) YourMovies(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/your-movies/list", auth: AuthRequired}, &movies)
	return movies, err
}

func (c *Client) AddToWatchlist(ctx context.Context, movieID int) error {
	if movieID <= 0 {
		return fmt.Errorf("%w: movie id must be positive", shared.ErrValidation)
	}
	return c.doJSON(ctx, request{method: http.MethodPost, path: fmt.Sprintf("/watchlist/%d", movieID), auth: AuthRequired}, nil)
}

func moviePath(id int) string {
	return fmt.Sprintf("/api/movies/%d", id)
}
