package main

import (
	"context"

	"github.com/desertthunder/marquee/internal/formatter"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/urfave/cli/v3"
)

// ReviewsList lists reviews of a movie.
func (r *Runner) ReviewsList(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "movie-id")
	if err != nil {
		return err
	}

	reviews, err := r.client.ListReviews(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(reviews, cmd.Bool("pretty"))
	}
	if len(reviews) == 0 {
		return r.writePlain("No reviews yet\n")
	}

	wrapped := make([]models.ReviewWithMovie, len(reviews))
	for i, rv := range reviews {
		wrapped[i] = models.ReviewWithMovie{Review: rv}
	}
	return r.writeTable(func(rounded bool) string { return formatter.ReviewsTable(wrapped, rounded) })
}

// ReviewsAdd posts a review for a movie.
func (r *Runner) ReviewsAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "movie-id")
	if err != nil {
		return err
	}

	review, err := r.client.CreateReview(ctx, id, models.ReviewInput{
		Rating:  int(cmd.Int("rating")),
		Comment: cmd.String("comment"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("review posted", "movie", id, "review", review.ID)
	if cmd.Bool("json") {
		return r.writeJSON(review, true)
	}
	return r.writePlain("✓ Review %d posted (%d/5)\n", review.ID, review.Rating)
}

// ReviewsMine lists every review written by the signed-in user.
func (r *Runner) ReviewsMine(ctx context.Context, cmd *cli.Command) error {
	reviews, err := r.client.UserReviews(ctx)
	if err != nil {
		return err
	}
	return r.writeReviews(reviews, cmd)
}

func (r *Runner) writeReviews(reviews []models.ReviewWithMovie, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(reviews, cmd.Bool("pretty"))
	}
	if len(reviews) == 0 {
		return r.writePlain("No reviews yet\n")
	}
	return r.writeTable(func(rounded bool) string { return formatter.ReviewsTable(reviews, rounded) })
}

// WatchlistAdd adds a movie to the signed-in user's watchlist.
func (r *Runner) WatchlistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "movie-id")
	if err != nil {
		return err
	}

	if err := r.client.AddToWatchlist(ctx, id); err != nil {
		return err
	}

	r.logger.Info("added to watchlist", "movie", id)
	return r.writePlain("✓ Added movie %d to your watchlist\n", id)
}
