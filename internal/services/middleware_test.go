package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

func okTransport(seen func(*http.Request)) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if seen != nil {
			seen(req)
		}
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: http.NoBody, Request: req}, nil
	})
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	rt := Chain(okTransport(nil), mark("first"), mark("second"))
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if strings.Join(order, ",") != "first,second" {
		t.Errorf("expected first,second, got %v", order)
	}
}

func TestRequestID(t *testing.T) {
	t.Run("Generates ID", func(t *testing.T) {
		var id string
		rt := Chain(okTransport(func(r *http.Request) { id = r.Header.Get(RequestIDHeader) }), RequestID())
		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		rt.RoundTrip(req)

		if len(id) != 36 {
			t.Errorf("expected uuid request id, got %q", id)
		}
		if req.Header.Get(RequestIDHeader) != "" {
			t.Error("original request must not be modified")
		}
	})

	t.Run("Keeps Existing ID", func(t *testing.T) {
		var id string
		rt := Chain(okTransport(func(r *http.Request) { id = r.Header.Get(RequestIDHeader) }), RequestID())
		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		req.Header.Set(RequestIDHeader, "fixed")
		rt.RoundTrip(req)

		if id != "fixed" {
			t.Errorf("expected fixed, got %q", id)
		}
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	rt := Chain(okTransport(nil), Logging(logger))
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/movies/", nil)
	rt.RoundTrip(req)

	out := buf.String()
	if !strings.Contains(out, "path=/movies/") || !strings.Contains(out, "status=200") {
		t.Errorf("expected path and status in log, got %q", out)
	}
}

func TestRateLimit(t *testing.T) {
	t.Run("Canceled Context", func(t *testing.T) {
		limiter := rate.NewLimiter(rate.Limit(0.001), 1)
		limiter.Allow()

		rt := Chain(okTransport(nil), RateLimit(limiter))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", nil)
		if _, err := rt.RoundTrip(req); err == nil {
			t.Error("expected error when context is canceled")
		}
	})

	t.Run("Admits Within Burst", func(t *testing.T) {
		rt := Chain(okTransport(nil), RateLimit(rate.NewLimiter(rate.Limit(1), 2)))
		for i := 0; i < 2; i++ {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
			if _, err := rt.RoundTrip(req); err != nil {
				t.Fatalf("request %d: expected no error, got %v", i, err)
			}
		}
	})

	t.Run("Wraps Limiter Error", func(t *testing.T) {
		rt := Chain(okTransport(nil), RateLimit(rate.NewLimiter(rate.Limit(1), 0)))
		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		_, err := rt.RoundTrip(req)
		if err == nil || !strings.Contains(err.Error(), "rate limiter") {
			t.Errorf("expected rate limiter error, got %v", err)
		}
		var target *APIError
		if errors.As(err, &target) {
			t.Error("limiter errors are not API errors")
		}
	})
}
