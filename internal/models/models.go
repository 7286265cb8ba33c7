package models

import (
	"fmt"
	"strings"
	"time"
)

// AllGenres is the genre filter sentinel meaning "no genre constraint".
const AllGenres = "All Genres"

// Model defines the base interface for locally persisted records.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Movie is a catalog entry.
type Movie struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Director   string   `json:"director"`
	Year       int      `json:"year"`
	Genres     []string `json:"genres"`
	Synopsis   string   `json:"synopsis,omitempty"`
	YourRating *int     `json:"your_rating,omitempty"`
}

// GenreList joins the movie's genres for display.
func (m Movie) GenreList() string {
	return strings.Join(m.Genres, ", ")
}

// String renders "Title (Year)".
func (m Movie) String() string {
	if m.Year == 0 {
		return m.Title
	}
	return fmt.Sprintf("%s (%d)", m.Title, m.Year)
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Review struct {
	ID           int       `json:"id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    Timestamp `json:"created_at"`
	UserID       int       `json:"user_id"`
	MovieID      int       `json:"movie_id"`
	UserUsername string    `json:"user_username,omitempty"`
}

// ReviewWithMovie is a review as listed on the user's own pages.
type ReviewWithMovie struct {
	Review
	Movie *Movie `json:"movie,omitempty"`
}

// Profile summarizes the authenticated user's account.
type Profile struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ReviewsCount   int    `json:"reviews_count"`
	WatchlistCount int    `json:"watchlist_count"`
}

// Filter is the catalog query state: a free-text term and a genre name.
//
// An empty SearchTerm means no text filter. Genre is passed to the server verbatim unless it is empty or [AllGenres].
type Filter struct {
	SearchTerm string
	Genre      string
}

// HasGenre reports whether the filter constrains the genre.
func (f Filter) HasGenre() bool {
	return f.Genre != "" && f.Genre != AllGenres
}

// MovieInput is the body of a create-movie request.
type MovieInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Director string `json:"director" validate:"required,max=200"`
	Year     int    `json:"year" validate:"required,gte=1870,lte=2100"`
	GenreIDs []int  `json:"genre_ids" validate:"dive,gt=0"`
	Synopsis string `json:"synopsis,omitempty"`
}

// ReviewInput is the body of a create-review request.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Registration is the body of a register request.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
	Username string `json:"username,omitempty" validate:"omitempty,max=50"`
}

// SessionEventKind names a session transition.
type SessionEventKind string

const (
	SessionLogin       SessionEventKind = "login"
	SessionRegister    SessionEventKind = "register"
	SessionLogout      SessionEventKind = "logout"
	SessionInvalidated SessionEventKind = "invalidated"
)

// SessionEvent records a session transition in the local database.
type SessionEvent struct {
	EventID   string           `json:"id"`
	Kind      SessionEventKind `json:"kind"`
	UserEmail string           `json:"user_email,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	Created   time.Time        `json:"created_at"`
}

func (e *SessionEvent) ID() string           { return e.EventID }
func (e *SessionEvent) CreatedAt() time.Time { return e.Created }

// Validate checks the event kind.
func (e *SessionEvent) Validate() error {
	switch e.Kind {
	case SessionLogin, SessionRegister, SessionLogout, SessionInvalidated:
		return nil
	default:
		return fmt.Errorf("unknown session event kind %q", e.Kind)
	}
}
