package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/services"
	"github.com/desertthunder/marquee/internal/shared"
)

// Authenticator exchanges credentials with the backend.
type Authenticator interface {
	IssueToken(ctx context.Context, username, password string) (*oauth2.Token, error)
	Register(ctx context.Context, reg models.Registration) error
}

// EventRecorder stores an audit record of a session transition.
type EventRecorder interface {
	Record(kind models.SessionEventKind, userEmail, detail string) error
}

// Hooks are callbacks invoked after session transitions. Nil fields are skipped.
//
// Hooks run synchronously on the goroutine that caused the transition.
type Hooks struct {
	OnLogin    func(ctx context.Context, s Session)
	OnLogout   func()
	OnRedirect func(r *RedirectError)
}

// ManagerOpts configures a [Manager]. Store and Auth are required.
type ManagerOpts struct {
	Store  Storage
	Auth   Authenticator
	Events EventRecorder
	Logger *log.Logger
	Now    func() time.Time
}

// Manager owns the persisted session.
type Manager struct {
	store    Storage
	auth     Authenticator
	events   EventRecorder
	logger   *log.Logger
	now      func() time.Time
	validate *validator.Validate

	mu    sync.Mutex // serializes transitions
	hooks []Hooks
}

// NewManager creates a [Manager]. A nil Logger falls back to [shared.NewLogger] on stderr.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:    opts.Store,
		auth:     opts.Auth,
		events:   opts.Events,
		logger:   shared.WithLogger(opts.Logger, "component", "session"),
		now:      opts.Now,
		validate: validator.New(),
	}
}

// Subscribe registers hooks for subsequent transitions.
func (m *Manager) Subscribe(h Hooks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// Login exchanges credentials for a token, persists it with the identifier and notifies OnLogin subscribers.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return Session{}, &AuthError{Kind: InvalidCredentials, Message: "email and password are required"}
	}

	s, err := m.exchange(ctx, identifier, secret)
	if err != nil {
		return Session{}, err
	}

	m.record(models.SessionLogin, s.UserEmail, "")
	m.logger.Info("logged in", "user", s.UserEmail)
	m.notifyLogin(ctx, s)
	return s, nil
}

// Register creates an account and then logs in with the same credentials.
//
// displayName is optional. The returned session is the one produced by the chained login.
func (m *Manager) Register(ctx context.Context, identifier, secret, displayName string) (Session, error) {
	reg := models.Registration{
		Email:    strings.TrimSpace(identifier),
		Password: secret,
		Username: strings.TrimSpace(displayName),
	}
	if err := m.validate.Struct(reg); err != nil {
		return Session{}, &AuthError{Kind: InvalidCredentials, Message: registrationMessage(err), Err: fmt.Errorf("%w: %v", shared.ErrValidation, err)}
	}

	if err := m.auth.Register(ctx, reg); err != nil {
		return Session{}, classify(err)
	}
	m.record(models.SessionRegister, reg.Email, reg.Username)

	s, err := m.exchange(ctx, reg.Email, secret)
	if err != nil {
		return Session{}, err
	}

	m.record(models.SessionLogin, s.UserEmail, "after registration")
	m.logger.Info("registered and logged in", "user", s.UserEmail)
	m.notifyLogin(ctx, s)
	return s, nil
}

// Logout clears the persisted session. It never fails; storage errors are logged.
func (m *Manager) Logout() {
	prev := m.Current()
	m.clear()

	if prev.Authenticated() {
		m.record(models.SessionLogout, prev.UserEmail, "")
		m.logger.Info("logged out", "user", prev.UserEmail)
	}

	for _, h := range m.snapshot() {
		if h.OnLogout != nil {
			h.OnLogout()
		}
	}
}

// Current reads the persisted session without touching the network.
func (m *Manager) Current() Session {
	token, _, err := m.store.Get(KeyToken)
	if err != nil {
		m.logger.Warn("failed to read session token", "err", err)
		return Session{}
	}
	if token == "" {
		return Session{}
	}

	email, _, err := m.store.Get(KeyUserEmail)
	if err != nil {
		m.logger.Warn("failed to read session email", "err", err)
	}
	return newSession(token, email)
}

// Require returns the current session, or a [*RedirectError] when there is none or its token has expired.
func (m *Manager) Require() (Session, error) {
	s := m.Current()
	if !s.Authenticated() {
		return Session{}, &RedirectError{Path: LoginPath, Reason: shared.ErrNotAuthenticated}
	}
	if s.Expired(m.now()) {
		return Session{}, &RedirectError{Path: LoginPath, Reason: shared.ErrTokenExpired}
	}
	return s, nil
}

// Invalidate is the single place a rejected session is handled: it clears the session,
// notifies OnRedirect subscribers and returns the redirect for the caller to propagate.
func (m *Manager) Invalidate(reason error) error {
	prev := m.Current()
	m.clear()

	if prev.Authenticated() {
		detail := ""
		if reason != nil {
			detail = reason.Error()
		}
		m.record(models.SessionInvalidated, prev.UserEmail, detail)
		m.logger.Warn("session invalidated", "user", prev.UserEmail, "reason", reason)
	}

	redirect := &RedirectError{Path: LoginPath, Reason: reason}
	for _, h := range m.snapshot() {
		if h.OnRedirect != nil {
			h.OnRedirect(redirect)
		}
	}
	return redirect
}

// BearerToken returns the token to attach to a request.
//
// With required set, a missing or expired session goes through [Manager.Invalidate] and the redirect is returned.
// Otherwise an unusable session yields an empty token and no error.
func (m *Manager) BearerToken(required bool) (string, error) {
	s, err := m.Require()
	if err == nil {
		return s.Token, nil
	}
	if !required {
		return "", nil
	}

	var redirect *RedirectError
	if errors.As(err, &redirect) {
		return "", m.Invalidate(redirect.Reason)
	}
	return "", m.Invalidate(err)
}

// exchange requests a token and persists it.
func (m *Manager) exchange(ctx context.Context, identifier, secret string) (Session, error) {
	tok, err := m.auth.IssueToken(ctx, identifier, secret)
	if err != nil {
		return Session{}, classify(err)
	}
	if tok == nil || tok.AccessToken == "" {
		return Session{}, &AuthError{Kind: Unreachable, Message: "token response did not include an access token", Err: shared.ErrNetwork}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(KeyToken, tok.AccessToken); err != nil {
		return Session{}, fmt.Errorf("failed to persist session: %w", err)
	}
	if err := m.store.Set(KeyUserEmail, identifier); err != nil {
		m.clearLocked()
		return Session{}, fmt.Errorf("failed to persist session: %w", err)
	}

	return newSession(tok.AccessToken, identifier), nil
}

func (m *Manager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// clearLocked removes both keys. When removal fails the values are overwritten with
// empty strings, which [Manager.Current] treats as absent.
func (m *Manager) clearLocked() {
	err := m.store.Remove(KeyToken, KeyUserEmail)
	if err == nil {
		return
	}
	m.logger.Error("failed to remove session", "err", err)

	for _, key := range []string{KeyToken, KeyUserEmail} {
		if err := m.store.Set(key, ""); err != nil {
			m.logger.Error("failed to blank session key", "key", key, "err", err)
		}
	}
}

func (m *Manager) snapshot() []Hooks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Hooks(nil), m.hooks...)
}

func (m *Manager) notifyLogin(ctx context.Context, s Session) {
	for _, h := range m.snapshot() {
		if h.OnLogin != nil {
			h.OnLogin(ctx, s)
		}
	}
}

func (m *Manager) record(kind models.SessionEventKind, email, detail string) {
	if m.events == nil {
		return
	}
	if err := m.events.Record(kind, email, detail); err != nil {
		m.logger.Warn("failed to record session event", "kind", kind, "err", err)
	}
}

// classify maps a backend failure onto an [AuthError].
//
// Client errors carry the server's detail as the message; everything else is Unreachable.
func classify(err error) *AuthError {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		msg := apiErr.Detail
		if msg == "" {
			msg = "invalid credentials"
		}
		return &AuthError{Kind: InvalidCredentials, Message: msg, Err: err}
	}
	return &AuthError{Kind: Unreachable, Err: err}
}

func registrationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid registration"
	}
	switch fe := verrs[0]; fe.Field() {
	case "Email":
		return "a valid email address is required"
	case "Password":
		return "a password is required"
	case "Username":
		return "username must be at most 50 characters"
	default:
		return fmt.Sprintf("invalid %s", strings.ToLower(fe.Field()))
	}
}
