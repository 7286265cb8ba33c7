package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/marquee/internal/shared"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
	Kind   error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error { return e.Kind }

// Message is the text to show a user: the server detail, or the status text.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return http.StatusText(e.Status)
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method: method,
		Path:   path,
		Status: status,
		Detail: decodeDetail(body),
		Kind:   kindFor(status),
	}
}

func kindFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case status == http.StatusNotFound:
		return shared.ErrNotFound
	case status >= 400 && status < 500:
		return shared.ErrValidation
	default:
		return shared.ErrServer
	}
}

// decodeDetail reads a FastAPI error body. detail is either a string or a list of
// validation entries with a "msg" field.
func decodeDetail(body []byte) string {
	var errResp struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(errResp.Detail, &text); err == nil {
		return text
	}

	var entries []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(errResp.Detail, &entries); err != nil {
		return ""
	}

	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		if len(e.Loc) > 0 {
			msgs = append(msgs, fmt.Sprintf("%v: %s", e.Loc[len(e.Loc)-1], e.Msg))
		} else {
			msgs = append(msgs, e.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}
