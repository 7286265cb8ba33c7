package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxRating = 5

var styles = NewPalette(Theme{
	Accent:  "#7D56F4",
	Success: "#04B575",
	Failure: "#FF0000",
	Notice:  "#FFA500",
	Muted:   "#626262",
	Rating:  "#F5C518",
})

// Theme names the colors a [Palette] is built from.
type Theme struct {
	Accent  string
	Success string
	Failure string
	Notice  string
	Muted   string
	Rating  string
}

// struct Palette is the stylesheet of the catalog browser
type Palette struct {
	brand    lipgloss.Style // app name and movie titles
	signedIn lipgloss.Style
	failure  lipgloss.Style
	notice   lipgloss.Style // session prompts
	hint     lipgloss.Style // status line, anonymous banner
	genre    lipgloss.Style // active genre chip
	rating   lipgloss.Style
	section  lipgloss.Style
}

func NewPalette(t Theme) *Palette {
	return &Palette{
		brand:    NewBold(t.Accent).MarginBottom(1),
		signedIn: NewBold(t.Success),
		failure:  NewBold(t.Failure),
		notice:   NewStyle(t.Notice),
		hint:     NewEm(t.Muted),
		genre:    NewBold("#FFFFFF").Background(lipgloss.Color(t.Accent)).Padding(0, 1),
		rating:   NewStyle(t.Rating),
		section:  NewBold(t.Success),
	}
}

// Stars renders a 1-5 rating as filled and empty stars. Out of range ratings are clamped.
func (p *Palette) Stars(rating int) string {
	rating = min(max(rating, 0), maxRating)
	return p.rating.Render(strings.Repeat("★", rating) + strings.Repeat("☆", maxRating-rating))
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
