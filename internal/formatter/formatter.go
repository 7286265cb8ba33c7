// package formatter renders catalog data as tables and exports movie lists to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat maps a user-supplied format name (or common alias) onto a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// MovieList is a titled list of movies to export.
type MovieList struct {
	Title  string         `json:"title"`
	Filter models.Filter  `json:"-"`
	Movies []models.Movie `json:"movies"`
}

func rating(r *int) string {
	if r == nil {
		return ""
	}
	return strconv.Itoa(*r)
}

func year(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

// ExportToCSV converts a MovieList to CSV format with columns: ID, Title, Director, Year, Genres, Your Rating
func ExportToCSV(list *MovieList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Director", "Year", "Genres", "Your Rating"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range list.Movies {
		record := []string{
			strconv.Itoa(m.ID),
			m.Title,
			m.Director,
			year(m.Year),
			strings.Join(m.Genres, "|"),
			rating(m.YourRating),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func filterSummary(f models.Filter) string {
	var parts []string
	if f.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("search %q", f.SearchTerm))
	}
	if f.HasGenre() {
		parts = append(parts, fmt.Sprintf("genre %s", f.Genre))
	}
	return strings.Join(parts, ", ")
}

// ExportToMarkdown converts a MovieList to Markdown, one list item per movie with its synopsis quoted below it
func ExportToMarkdown(list *MovieList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", list.Title)
	if s := filterSummary(list.Filter); s != "" {
		fmt.Fprintf(&buf, "**Filter**: %s\n\n", s)
	}
	fmt.Fprintf(&buf, "**Movies**: %d\n\n", len(list.Movies))

	buf.WriteString("## Movies\n\n")
	for i, m := range list.Movies {
		fmt.Fprintf(&buf, "%d. **%s**", i+1, m.String())
		if m.Director != "" {
			fmt.Fprintf(&buf, " dir. %s", m.Director)
		}
		if len(m.Genres) > 0 {
			fmt.Fprintf(&buf, " _%s_", m.GenreList())
		}
		if r := rating(m.YourRating); r != "" {
			fmt.Fprintf(&buf, " [%s/5]", r)
		}
		buf.WriteString("\n")
		if m.Synopsis != "" {
			fmt.Fprintf(&buf, "   > %s\n", m.Synopsis)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a MovieList to plain text format
func ExportToText(list *MovieList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", list.Title)
	if s := filterSummary(list.Filter); s != "" {
		fmt.Fprintf(&buf, "Filter: %s\n", s)
	}
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(list.Movies))

	for i, m := range list.Movies {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, m.String(), m.Director)
	}

	return buf.Bytes(), nil
}

// Export renders list in the given format.
func Export(list *MovieList, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown:
		return ExportToMarkdown(list)
	case FormatText:
		return ExportToText(list)
	case FormatJSON:
		return shared.MarshalJSON(list, true)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport writes list to path in the given format, creating parent directories.
//
// Defaults to movies.{ext} in the working directory.
func WriteExport(list *MovieList, format Format, path string) (string, error) {
	if path == "" {
		path = "movies." + format.Extension()
	}

	data, err := Export(list, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
