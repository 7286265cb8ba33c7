package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/marquee/internal/models"
)

var (
	_ list.Item = movieItem{}
)

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie models.Movie
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string       { return i.movie.String() }
func (i movieItem) Description() string {
	var parts []string
	if i.movie.Director != "" {
		parts = append(parts, i.movie.Director)
	}
	if len(i.movie.Genres) > 0 {
		parts = append(parts, i.movie.GenreList())
	}
	if i.movie.YourRating != nil {
		parts = append(parts, fmt.Sprintf("rated %d/5", *i.movie.YourRating))
	}
	return strings.Join(parts, " • ")
}

func movieItems(movies []models.Movie) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m}
	}
	return items
}
