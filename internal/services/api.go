package services

import (
	"context"
	"net/http"
	"strings"
)

// Get performs a GET request to the specified path and returns the raw response.
//
// The session token is attached when one exists. Non-2xx statuses are returned, not treated as errors,
// except a 401 that invalidates the session.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.send(ctx, request{method: http.MethodGet, path: normalizePath(path), auth: AuthOptional, raw: true})
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return c.send(ctx, request{
		method:      http.MethodPost,
		path:        normalizePath(path),
		body:        data,
		contentType: "application/json",
		auth:        AuthOptional,
		raw:         true,
	})
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
