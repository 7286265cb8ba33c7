package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/marquee/internal/shared"
)

// AuthMode states whether a request carries the session token.
type AuthMode int

const (
	// AuthNone never sends a token.
	AuthNone AuthMode = iota
	// AuthOptional sends the token when a usable session exists.
	AuthOptional
	// AuthRequired fails without a session and never reaches the network in that case.
	AuthRequired
)

// Guard supplies bearer tokens and handles rejected sessions.
//
// BearerToken returns an empty token and no error when required is false and no session exists.
// Invalidate clears the session and returns the error to hand back to the caller.
type Guard interface {
	BearerToken(required bool) (string, error)
	Invalidate(reason error) error
}

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second; 0 disables limiting
	RateBurst  int
	Transport  http.RoundTripper // defaults to [http.DefaultTransport]
	Logger     *log.Logger
	Middleware []Middleware // appended after the built-in chain
}

// Client talks to the movie catalog backend.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *log.Logger
	validate *validator.Validate
	mu       sync.RWMutex
	guard    Guard
}

// NewClient creates a [Client]. BaseURL must be an absolute http(s) URL.
func NewClient(opts ClientOpts) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be an absolute http(s) url", shared.ErrInvalidConfig, opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "api")

	chain := []Middleware{RequestID(), Logging(logger)}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		chain = append(chain, RateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}
	chain = append(chain, opts.Middleware...)

	return &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		http: &http.Client{
			Transport: Chain(opts.Transport, chain...),
			Timeout:   opts.Timeout,
		},
		logger:   logger,
		validate: validator.New(),
	}, nil
}

// SetGuard installs the session guard. Until one is set, AuthRequired requests fail
// with [shared.ErrNotAuthenticated] and no token is ever attached.
func (c *Client) SetGuard(g Guard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guard = g
}

// BaseURL returns the backend address without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) currentGuard() Guard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guard
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	auth        AuthMode
	raw         bool // return non-2xx responses instead of an APIError
}

// send performs r and returns the response. Only a 401 on a request that carried a token
// is turned into a session invalidation.
func (c *Client) send(ctx context.Context, r request) (*APIResponse, error) {
	token, err := c.token(r.auth)
	if err != nil {
		return nil, err
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.clientFor(token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrNetwork, r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		apiErr := newAPIError(r.method, r.path, resp.StatusCode, data)
		if g := c.currentGuard(); g != nil {
			return nil, g.Invalidate(apiErr)
		}
		return nil, apiErr
	}

	if !r.raw && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return nil, newAPIError(r.method, r.path, resp.StatusCode, data)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func (c *Client) token(mode AuthMode) (string, error) {
	if mode == AuthNone {
		return "", nil
	}

	g := c.currentGuard()
	if g == nil {
		if mode == AuthRequired {
			return "", shared.ErrNotAuthenticated
		}
		return "", nil
	}

	return g.BearerToken(mode == AuthRequired)
}

// clientFor returns an http client that attaches token as a bearer credential.
func (c *Client) clientFor(token string) *http.Client {
	if token == "" {
		return c.http
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.http.Transport,
		},
		Timeout: c.http.Timeout,
	}
}

// doJSON sends r and decodes a successful body into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrNetwork, r.path, err)
	}
	return nil
}

func jsonRequest(method, path string, auth AuthMode, payload any) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("failed to encode request: %w", err)
	}
	return request{method: method, path: path, body: body, contentType: "application/json", auth: auth}, nil
}

func (c *Client) validateInput(v any) error {
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}
