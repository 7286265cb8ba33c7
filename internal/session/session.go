package session

import (
	"fmt"
	"time"

	"github.com/desertthunder/marquee/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// Storage keys shared by every backend.
const (
	KeyToken     = "token"
	KeyUserEmail = "user_email"
)

// LoginPath is where a [RedirectError] sends the user.
const LoginPath = "/login"

// Session is the authenticated identity held by the client.
//
// Token present means authenticated. UserEmail is only meaningful alongside a token.
// Subject and ExpiresAt are read from the token when it is a JWT and are zero otherwise.
type Session struct {
	Token     string    `json:"-"`
	UserEmail string    `json:"user_email,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Expired reports whether the token carries an expiry that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// newSession builds a session from a raw token, decoding JWT claims when possible.
//
// Claims are read without verifying the signature: the server remains the authority on validity,
// the client only uses exp to skip requests that are certain to be rejected.
func newSession(token, email string) Session {
	s := Session{Token: token, UserEmail: email}
	if token == "" {
		return Session{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return s
	}

	if sub, err := claims.GetSubject(); err == nil {
		s.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	if s.UserEmail == "" {
		s.UserEmail = s.Subject
	}
	return s
}

// AuthErrorKind distinguishes why a credential exchange failed.
type AuthErrorKind int

const (
	// InvalidCredentials means the server rejected the credentials or registration.
	InvalidCredentials AuthErrorKind = iota + 1
	// Unreachable means the exchange could not complete.
	Unreachable
)

func (k AuthErrorKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid credentials"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// AuthError is returned by [Manager.Login] and [Manager.Register].
type AuthError struct {
	Kind    AuthErrorKind
	Message string // server-provided detail when available
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// Unwrap exposes both the kind's sentinel and the underlying cause.
func (e *AuthError) Unwrap() []error {
	sentinel := shared.ErrUnreachable
	if e.Kind == InvalidCredentials {
		sentinel = shared.ErrInvalidCredentials
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

// RedirectError signals that the caller should send the user to Path to log in.
type RedirectError struct {
	Path   string
	Reason error
}

func (e *RedirectError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("login required (%v)", e.Reason)
	}
	return "login required"
}

func (e *RedirectError) Unwrap() []error {
	if e.Reason == nil {
		return []error{shared.ErrNotAuthenticated}
	}
	return []error{shared.ErrNotAuthenticated, e.Reason}
}
