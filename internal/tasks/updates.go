package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchProfile Phase = iota
	FetchReviews
	FetchWatchlist
	FetchYourMovies
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case FetchReviews:
		return "fetch_reviews"
	case FetchWatchlist:
		return "fetch_watchlist"
	case FetchYourMovies:
		return "fetch_your_movies"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func endpointUpdate(op endpointOperation, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   op.phase,
		Step:    step,
		Total:   total,
		Message: op.message,
	}
}

func endpointFailedUpdate(op endpointOperation, step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   op.phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to fetch %s: %v", op.name, err),
		Data:    err,
	}
}

func completeUpdate(total int, d *Dashboard) ProgressUpdate {
	msg := "Dashboard loaded"
	if n := len(d.Errors); n > 0 {
		msg = fmt.Sprintf("Dashboard loaded with %d failed endpoint(s)", n)
	}
	return ProgressUpdate{
		Phase:   Complete,
		Step:    total,
		Total:   total,
		Message: msg,
		Data:    d,
	}
}
