package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/marquee/internal/shared"
)

// RequestIDHeader carries a per-request identifier.
const RequestIDHeader = "X-Request-ID"

// Middleware wraps an [http.RoundTripper] and returns a new one with additional behavior.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to [http.RoundTripper].
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// Chain wraps base with middleware so that the first one listed sees the request first.
func Chain(base http.RoundTripper, middleware ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	wrapped := base
	for i := len(middleware) - 1; i >= 0; i-- {
		wrapped = middleware[i](wrapped)
	}
	return wrapped
}

// RequestID sets [RequestIDHeader] on requests that do not already carry one.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set(RequestIDHeader, shared.GenerateID())
			return next.RoundTrip(req)
		})
	}
}

// Logging logs each exchange at debug level.
func Logging(logger *log.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get(RequestIDHeader),
				"elapsed", time.Since(start).Round(time.Millisecond),
			}
			if err != nil {
				logger.Debug("request failed", append(fields, "err", err)...)
				return resp, err
			}
			logger.Debug("request", append(fields, "status", resp.StatusCode)...)
			return resp, nil
		})
	}
}

// RateLimit blocks each request until limiter admits it or the request context ends.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
			return next.RoundTrip(req)
		})
	}
}
