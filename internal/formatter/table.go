package formatter

import (
	"io"
	"os"
	"strconv"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// RenderTable renders rows under headers. Rounded box drawing is used for terminals,
// plain ASCII otherwise. Short rows are padded with empty cells.
func RenderTable(headers []string, rows [][]string, aligns []Alignment, rounded bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if rounded {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// MoviesTable renders movies as a table.
func MoviesTable(movies []models.Movie, rounded bool) string {
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, []string{strconv.Itoa(m.ID), m.Title, m.Director, year(m.Year), m.GenreList(), rating(m.YourRating)})
	}
	return RenderTable(
		[]string{"ID", "Title", "Director", "Year", "Genres", "Rating"},
		rows,
		[]Alignment{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignRight},
		rounded,
	)
}

// ReviewsTable renders reviews as a table. Reviews carrying their movie get a Movie column.
func ReviewsTable(reviews []models.ReviewWithMovie, rounded bool) string {
	withMovie := false
	for _, r := range reviews {
		if r.Movie != nil {
			withMovie = true
			break
		}
	}

	headers := []string{"ID", "Rating", "User", "Date", "Comment"}
	aligns := []Alignment{AlignRight, AlignRight}
	if withMovie {
		headers = append(headers, "Movie")
	}

	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		date := ""
		if !r.CreatedAt.IsZero() {
			date = r.CreatedAt.Format("2006-01-02")
		}
		row := []string{strconv.Itoa(r.ID), strconv.Itoa(r.Rating), r.UserUsername, date, r.Comment}
		if withMovie && r.Movie != nil {
			row = append(row, r.Movie.String())
		}
		rows = append(rows, row)
	}

	return RenderTable(headers, rows, aligns, rounded)
}

// GenresTable renders genres as a table.
func GenresTable(genres []models.Genre, rounded bool) string {
	rows := make([][]string, 0, len(genres))
	for _, g := range genres {
		rows = append(rows, []string{strconv.Itoa(g.ID), g.Name})
	}
	return RenderTable([]string{"ID", "Name"}, rows, []Alignment{AlignRight}, rounded)
}
