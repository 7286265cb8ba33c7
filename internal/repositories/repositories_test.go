package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestStoreRepository(t *testing.T) {
	t.Run("Set And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewStoreRepository(db)
		if err := repo.Set("token", "abc"); err != nil {
			t.Fatalf("failed to set token: %v", err)
		}

		value, ok, err := repo.Get("token")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if !ok {
			t.Fatal("expected token to exist")
		}
		if value != "abc" {
			t.Errorf("expected abc, got %s", value)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewStoreRepository(db)
		if err := repo.Set("token", "first"); err != nil {
			t.Fatalf("failed to set token: %v", err)
		}
		if err := repo.Set("token", "second"); err != nil {
			t.Fatalf("failed to overwrite token: %v", err)
		}

		value, _, err := repo.Get("token")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if value != "second" {
			t.Errorf("expected second, got %s", value)
		}

		if _, err := repo.UpdatedAt("token"); err != nil {
			t.Errorf("expected updated_at for token, got %v", err)
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, ok, err := NewStoreRepository(db).Get("user_email")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Error("expected missing key to report not found")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewStoreRepository(db)
		if err := repo.Set("token", "abc"); err != nil {
			t.Fatalf("failed to set token: %v", err)
		}
		if err := repo.Set("user_email", "neo@example.com"); err != nil {
			t.Fatalf("failed to set email: %v", err)
		}

		if err := repo.Remove("token", "user_email", "never_set"); err != nil {
			t.Fatalf("failed to remove keys: %v", err)
		}

		for _, key := range []string{"token", "user_email"} {
			if _, ok, _ := repo.Get(key); ok {
				t.Errorf("expected %s to be removed", key)
			}
		}
	})
}

func TestSessionEventRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionEventRepository(db)
		event := &models.SessionEvent{Kind: models.SessionLogin, UserEmail: "neo@example.com"}

		if err := repo.Create(event); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}
		if event.ID() == "" {
			t.Fatal("event ID should be set after creation")
		}

		retrieved, err := repo.Get(event.ID())
		if err != nil {
			t.Fatalf("failed to get event: %v", err)
		}
		if retrieved.Kind != models.SessionLogin {
			t.Errorf("expected kind login, got %s", retrieved.Kind)
		}
		if retrieved.UserEmail != "neo@example.com" {
			t.Errorf("expected email neo@example.com, got %s", retrieved.UserEmail)
		}
	})

	t.Run("List Newest First", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionEventRepository(db)
		base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		kinds := []models.SessionEventKind{models.SessionLogin, models.SessionInvalidated, models.SessionLogout}
		for i, kind := range kinds {
			event := &models.SessionEvent{Kind: kind, UserEmail: "neo@example.com", Created: base.Add(time.Duration(i) * time.Minute)}
			if err := repo.Create(event); err != nil {
				t.Fatalf("failed to create event: %v", err)
			}
		}

		events, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		if events[0].Kind != models.SessionLogout {
			t.Errorf("expected newest event logout, got %s", events[0].Kind)
		}

		limited, err := repo.List(map[string]any{"limit": 1, "kind": models.SessionInvalidated})
		if err != nil {
			t.Fatalf("failed to list filtered events: %v", err)
		}
		if len(limited) != 1 || limited[0].Kind != models.SessionInvalidated {
			t.Errorf("expected a single invalidated event, got %+v", limited)
		}
	})

	t.Run("Record", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionEventRepository(db)
		if err := repo.Record(models.SessionRegister, "trinity@example.com", "auto login"); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}

		events, err := repo.List(map[string]any{"user_email": "trinity@example.com"})
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(events) != 1 || events[0].Detail != "auto login" {
			t.Errorf("expected recorded event, got %+v", events)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionEventRepository(db)
		event := &models.SessionEvent{Kind: models.SessionLogout}
		if err := repo.Create(event); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}

		if err := repo.Delete(event.ID()); err != nil {
			t.Fatalf("failed to delete event: %v", err)
		}
		if _, err := repo.Get(event.ID()); err == nil {
			t.Error("expected error getting deleted event")
		}
	})
}
