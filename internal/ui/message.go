package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/query"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgGenresFetched MsgKind = iota
	MsgSearchResult
	MsgDetailFetched
)

type genresPayload struct {
	genres []models.Genre
	err    error
}

type detailPayload struct {
	movie   *models.Movie
	reviews []models.Review
	err     error
}

// genresFetchedMsg is the constructor for [MsgGenresFetched]
func genresFetchedMsg(genres []models.Genre, err error) Msg {
	return Msg{kind: MsgGenresFetched, data: genresPayload{genres, err}}
}

// searchResultMsg is the constructor for [MsgSearchResult]
func searchResultMsg(res query.Result) Msg {
	return Msg{kind: MsgSearchResult, data: res}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(movie *models.Movie, reviews []models.Review, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailPayload{movie, reviews, err}}
}
