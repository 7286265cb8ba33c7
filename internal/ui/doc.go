// Package ui implements an interactive catalog browser using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [SearchView] : type to search the catalog and tab through genres
//  2. [DetailView] : a movie's synopsis and its reviews
//
// Keystrokes in the search box go through a debounced [query.Pipeline]; cycling genres fetches immediately.
// Pipeline results arrive on a channel that the (view) [Model] drains with a waiting command, the same way
// dashboard progress updates are received.
//
// A header shows the signed-in user. When the server rejects the session the header falls back to anonymous
// browsing and a login hint is displayed.
package ui
