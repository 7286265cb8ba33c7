package main

import (
	"context"

	"github.com/desertthunder/marquee/internal/formatter"
	"github.com/desertthunder/marquee/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MeProfile shows the signed-in user's profile.
func (r *Runner) MeProfile(ctx context.Context, cmd *cli.Command) error {
	profile, err := r.client.Profile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlainHeader(profile.Username)
	r.writePlain("Email: %s\n", profile.Email)
	r.writePlain("Reviews: %d\n", profile.ReviewsCount)
	return r.writePlain("Watchlist: %d\n", profile.WatchlistCount)
}

// MeReviews lists the signed-in user's reviews with their movies.
func (r *Runner) MeReviews(ctx context.Context, cmd *cli.Command) error {
	reviews, err := r.client.MyReviews(ctx)
	if err != nil {
		return err
	}
	return r.writeReviews(reviews, cmd)
}

// MeWatchlist lists the signed-in user's watchlist.
func (r *Runner) MeWatchlist(ctx context.Context, cmd *cli.Command) error {
	movies, err := r.client.MyWatchlist(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}
	if len(movies) == 0 {
		return r.writePlain("Your watchlist is empty\n")
	}
	return r.writeTable(func(rounded bool) string { return formatter.MoviesTable(movies, rounded) })
}

// MeMovies lists movies the signed-in user rated, with their rating.
func (r *Runner) MeMovies(ctx context.Context, cmd *cli.Command) error {
	movies, err := r.client.YourMovies(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}
	if len(movies) == 0 {
		return r.writePlain("You have not rated any movies yet\n")
	}
	return r.writeTable(func(rounded bool) string { return formatter.MoviesTable(movies, rounded) })
}

// MeDashboard loads every user page at once, reporting progress as each endpoint is fetched.
func (r *Runner) MeDashboard(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if useJSON {
				r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
				continue
			}
			switch update.Phase {
			case tasks.Complete:
				r.writePlain("✓ %s\n", update.Message)
			default:
				r.writePlain("📥 [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	dashboard, err := r.loader.Load(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(dashboard, cmd.Bool("pretty"))
	}

	if p := dashboard.Profile; p != nil {
		r.writePlainln("%s <%s>", p.Username, p.Email)
	}

	r.writePlainln("Your reviews (%d)", len(dashboard.Reviews))
	if len(dashboard.Reviews) > 0 {
		r.writeTable(func(rounded bool) string { return formatter.ReviewsTable(dashboard.Reviews, rounded) })
	}

	r.writePlainln("Watchlist (%d)", len(dashboard.Watchlist))
	if len(dashboard.Watchlist) > 0 {
		r.writeTable(func(rounded bool) string { return formatter.MoviesTable(dashboard.Watchlist, rounded) })
	}

	r.writePlainln("Rated movies (%d)", len(dashboard.YourMovies))
	if len(dashboard.YourMovies) > 0 {
		r.writeTable(func(rounded bool) string { return formatter.MoviesTable(dashboard.YourMovies, rounded) })
	}

	if len(dashboard.Errors) > 0 {
		r.writePlainln("Some sections could not be loaded:")
		for _, e := range dashboard.Errors {
			r.writePlain("  - %s: %v\n", e.Endpoint, e.Error)
		}
	}
	return nil
}
