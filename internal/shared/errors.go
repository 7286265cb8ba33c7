package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUnreachable        = fmt.Errorf("authentication service unreachable")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrUnauthorized       = fmt.Errorf("session rejected by server")
	ErrTokenExpired       = fmt.Errorf("access token expired")

	// API errors
	ErrNetwork     = fmt.Errorf("network request failed")
	ErrValidation  = fmt.Errorf("request rejected")
	ErrNotFound    = fmt.Errorf("not found")
	ErrServer      = fmt.Errorf("server error")
	ErrUnavailable = fmt.Errorf("service unavailable")

	// Storage errors
	ErrStorage = fmt.Errorf("session storage failure")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
