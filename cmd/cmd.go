// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/marquee/internal/formatter"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true}
}

// setupCommand writes the configuration file and prepares the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file and run database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	credentialFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
				Sources:  cli.EnvVars("MARQUEE_EMAIL"),
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (read from stdin when omitted)",
				Sources: cli.EnvVars("MARQUEE_PASSWORD"),
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and store the session token",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: append(credentialFlags(), &cli.StringFlag{
					Name:    "username",
					Aliases: []string{"u"},
					Usage:   "Display name",
				}),
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:  "history",
				Usage: "Show recent session events (sqlite backend only)",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only show events of this kind (login, register, logout, invalidated)",
					},
					jsonFlag(),
				},
				Action: r.AuthHistory,
			},
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Free-text search term",
		},
		&cli.StringFlag{
			Name:    "genre",
			Aliases: []string{"g"},
			Usage:   `Genre name; "All Genres" disables the filter`,
		},
	}
}

// moviesCommand handles catalog operations
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Search and manage catalog entries",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List movies, optionally filtered by search term and genre",
				Flags:  append(filterFlags(), jsonFlag(), prettyFlag()),
				Action: r.MoviesList,
			},
			{
				Name:      "show",
				Usage:     "Show a movie with its reviews",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag(), prettyFlag()},
				Action:    r.MoviesShow,
			},
			{
				Name:  "add",
				Usage: "Create a catalog entry (requires login)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Movie title", Required: true},
					&cli.StringFlag{Name: "director", Usage: "Director", Required: true},
					&cli.IntFlag{Name: "year", Usage: "Release year", Required: true},
					&cli.IntSliceFlag{Name: "genre-id", Usage: "Genre ID (repeatable)"},
					&cli.StringFlag{Name: "synopsis", Usage: "Short synopsis"},
					jsonFlag(),
				},
				Action: r.MoviesAdd,
			},
			{
				Name:      "open",
				Usage:     "Open a movie's page in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "print", Usage: "Print the URL instead of opening it"},
				},
				Action: r.MoviesOpen,
			},
			{
				Name:  "export",
				Usage: "Export the filtered catalog",
				Flags: append(filterFlags(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text, json)",
						Value:   string(formatter.FormatCSV),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   `Output file path ("-" for stdout)`,
					},
				),
				Action: r.MoviesExport,
			},
		},
	}
}

// genresCommand lists genres
func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "Genre operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List genres",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.GenresList,
			},
		},
	}
}

// reviewsCommand handles review operations
func reviewsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reviews",
		Usage: "Read and write reviews",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List reviews of a movie",
				Arguments: []cli.Argument{&cli.StringArg{Name: "movie-id"}},
				Flags:     []cli.Flag{jsonFlag(), prettyFlag()},
				Action:    r.ReviewsList,
			},
			{
				Name:      "add",
				Usage:     "Review a movie (requires login)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "movie-id"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating from 1 to 5", Required: true},
					&cli.StringFlag{Name: "comment", Aliases: []string{"m"}, Usage: "Review text"},
					jsonFlag(),
				},
				Action: r.ReviewsAdd,
			},
			{
				Name:   "mine",
				Usage:  "List every review you wrote (requires login)",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.ReviewsMine,
			},
		},
	}
}

// meCommand handles the signed-in user's pages
func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "me",
		Usage: "Your profile, reviews and watchlist (requires login)",
		Commands: []*cli.Command{
			{
				Name:   "profile",
				Usage:  "Show your profile",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.MeProfile,
			},
			{
				Name:   "reviews",
				Usage:  "List your reviews",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.MeReviews,
			},
			{
				Name:   "watchlist",
				Usage:  "List your watchlist",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.MeWatchlist,
			},
			{
				Name:   "movies",
				Usage:  "List movies you rated",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.MeMovies,
			},
			{
				Name:   "dashboard",
				Usage:  "Load profile, reviews, watchlist and rated movies together",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.MeDashboard,
			},
		},
	}
}

// watchlistCommand manages the watchlist
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watchlist",
		Usage: "Watchlist operations (requires login)",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a movie to your watchlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "movie-id"}},
				Action:    r.WatchlistAdd,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the catalog server",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the raw response",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive search.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Initial genre filter",
			},
		},
		Action: r.TUI,
	}
}
