package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

var _ models.Repository[*models.SessionEvent] = (*SessionEventRepository)(nil)

// SessionEventRepository implements [models.Repository] for [models.SessionEvent] persistence.
type SessionEventRepository struct {
	db *sql.DB
}

// NewSessionEventRepository creates a new [SessionEventRepository] with the given database connection
func NewSessionEventRepository(db *sql.DB) *SessionEventRepository {
	return &SessionEventRepository{db: db}
}

// Create inserts a new event, assigning its ID and timestamp when unset.
func (r *SessionEventRepository) Create(event *models.SessionEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if event.EventID == "" {
		event.EventID = shared.GenerateID()
	}
	if event.Created.IsZero() {
		event.Created = time.Now().UTC()
	}

	query := `
		INSERT INTO session_events (id, kind, user_email, detail, created_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, event.EventID, string(event.Kind), event.UserEmail, event.Detail, event.Created)
	if err != nil {
		return fmt.Errorf("failed to insert session event: %w", err)
	}

	return nil
}

// Get retrieves an event by ID
func (r *SessionEventRepository) Get(id string) (*models.SessionEvent, error) {
	query := `
		SELECT id, kind, user_email, detail, created_at
		FROM session_events
		WHERE id = ?
	`

	event, err := scanEvent(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session event %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session event: %w", err)
	}

	return event, nil
}

// Delete removes an event by ID
func (r *SessionEventRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM session_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: session event %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves events newest first.
//
// Supported criteria: "kind" (string or [models.SessionEventKind]), "user_email" (string) and "limit" (int).
func (r *SessionEventRepository) List(criteria map[string]any) ([]*models.SessionEvent, error) {
	var (
		where []string
		args  []any
		limit int
	)

	for key, value := range criteria {
		switch key {
		case "kind":
			switch v := value.(type) {
			case models.SessionEventKind:
				where, args = append(where, "kind = ?"), append(args, string(v))
			case string:
				where, args = append(where, "kind = ?"), append(args, v)
			default:
				return nil, fmt.Errorf("%w: kind must be a string", shared.ErrInvalidArgument)
			}
		case "user_email":
			v, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: user_email must be a string", shared.ErrInvalidArgument)
			}
			where, args = append(where, "user_email = ?"), append(args, v)
		case "limit":
			v, ok := value.(int)
			if !ok || v < 0 {
				return nil, fmt.Errorf("%w: limit must be a non-negative int", shared.ErrInvalidArgument)
			}
			limit = v
		default:
			return nil, fmt.Errorf("%w: unsupported criterion %q", shared.ErrInvalidArgument, key)
		}
	}

	query := `SELECT id, kind, user_email, detail, created_at FROM session_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer rows.Close()

	var events []*models.SessionEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session events: %w", err)
	}

	return events, nil
}

// Record creates an event of the given kind. It satisfies the session manager's event recorder.
func (r *SessionEventRepository) Record(kind models.SessionEventKind, userEmail, detail string) error {
	return r.Create(&models.SessionEvent{Kind: kind, UserEmail: userEmail, Detail: detail})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.SessionEvent, error) {
	var (
		event models.SessionEvent
		kind  string
	)
	if err := row.Scan(&event.EventID, &kind, &event.UserEmail, &event.Detail, &event.Created); err != nil {
		return nil, err
	}
	event.Kind = models.SessionEventKind(kind)
	return &event, nil
}
