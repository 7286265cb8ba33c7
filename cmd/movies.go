package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/marquee/internal/formatter"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/urfave/cli/v3"
)

// idArg parses a positive integer argument.
func idArg(cmd *cli.Command, name string) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// filterFrom reads --search and --genre, defaulting the genre to the configured one.
func (r *Runner) filterFrom(cmd *cli.Command) models.Filter {
	genre := cmd.String("genre")
	if genre == "" {
		genre = r.config.Search.DefaultGenre
	}
	return models.Filter{SearchTerm: strings.TrimSpace(cmd.String("search")), Genre: genre}
}

// MoviesList lists catalog entries matching the filter.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	filter := r.filterFrom(cmd)
	r.logger.Debug("listing movies", "search", filter.SearchTerm, "genre", filter.Genre)

	movies, err := r.client.ListMovies(ctx, filter)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}
	if len(movies) == 0 {
		return r.writePlain("No movies found\n")
	}
	return r.writeTable(func(rounded bool) string { return formatter.MoviesTable(movies, rounded) })
}

// MoviesShow prints a movie and its reviews.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	movie, err := r.client.GetMovie(ctx, id)
	if err != nil {
		return err
	}
	reviews, err := r.client.ListReviews(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			*models.Movie
			Reviews []models.Review `json:"reviews"`
		}{movie, reviews}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(movie.String())
	r.writePlain("Director: %s\n", movie.Director)
	if len(movie.Genres) > 0 {
		r.writePlain("Genres: %s\n", movie.GenreList())
	}
	if movie.Synopsis != "" {
		r.writePlainln("%s", movie.Synopsis)
	}

	if len(reviews) == 0 {
		return r.writePlainln("No reviews yet")
	}
	r.writePlainln("Reviews (%d)", len(reviews))
	wrapped := make([]models.ReviewWithMovie, len(reviews))
	for i, rv := range reviews {
		wrapped[i] = models.ReviewWithMovie{Review: rv}
	}
	return r.writeTable(func(rounded bool) string { return formatter.ReviewsTable(wrapped, rounded) })
}

// MoviesAdd creates a catalog entry.
func (r *Runner) MoviesAdd(ctx context.Context, cmd *cli.Command) error {
	var genreIDs []int
	for _, id := range cmd.IntSlice("genre-id") {
		genreIDs = append(genreIDs, int(id))
	}

	input := models.MovieInput{
		Title:    strings.TrimSpace(cmd.String("title")),
		Director: strings.TrimSpace(cmd.String("director")),
		Year:     int(cmd.Int("year")),
		GenreIDs: genreIDs,
		Synopsis: cmd.String("synopsis"),
	}

	movie, err := r.client.CreateMovie(ctx, input)
	if err != nil {
		return err
	}

	r.logger.Info("movie created", "id", movie.ID, "title", movie.Title)
	if cmd.Bool("json") {
		return r.writeJSON(movie, true)
	}
	return r.writePlain("✓ Created %s (id %d)\n", movie.String(), movie.ID)
}

// MoviesOpen opens the movie's web page.
func (r *Runner) MoviesOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	target, err := shared.MoviePageURL(r.client.BaseURL(), id)
	if err != nil {
		return err
	}

	if cmd.Bool("print") {
		return r.writePlain("%s\n", target)
	}

	r.logger.Info("opening browser", "url", target)
	if err := shared.OpenBrowser(target); err != nil {
		r.writePlain("Open this URL in your browser:\n%s\n", target)
		return err
	}
	return nil
}

// MoviesExport writes the filtered catalog in the requested format.
func (r *Runner) MoviesExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	filter := r.filterFrom(cmd)
	movies, err := r.client.ListMovies(ctx, filter)
	if err != nil {
		return err
	}

	list := &formatter.MovieList{Title: "Movie catalog", Filter: filter, Movies: movies}

	output := cmd.String("output")
	if output == "-" {
		data, err := formatter.Export(list, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	path, err := formatter.WriteExport(list, format, output)
	if err != nil {
		return err
	}

	r.logger.Info("export written", "path", path, "movies", len(movies))
	return r.writePlain("✓ Exported %d movies to %s\n", len(movies), path)
}

// GenresList lists the catalog's genres.
func (r *Runner) GenresList(ctx context.Context, cmd *cli.Command) error {
	genres, err := r.client.ListGenres(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(genres, cmd.Bool("pretty"))
	}
	return r.writeTable(func(rounded bool) string { return formatter.GenresTable(genres, rounded) })
}
