package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/marquee/internal/formatter"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/session"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/urfave/cli/v3"
)

// readPassword returns --password, falling back to the first line of the runner's input.
func (r *Runner) readPassword(cmd *cli.Command) (string, error) {
	if p := cmd.String("password"); p != "" {
		return p, nil
	}

	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: password (use --password, MARQUEE_PASSWORD or stdin)", shared.ErrMissingArgument)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AuthLogin exchanges credentials for a session token and stores it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password, err := r.readPassword(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email)

	s, err := r.session.Login(ctx, email, password)
	if err != nil {
		return describeAuthError("login", err)
	}

	return r.writePlain("✓ Signed in as %s\n", s.UserEmail)
}

// AuthRegister creates an account and signs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password, err := r.readPassword(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("registering", "email", email)

	s, err := r.session.Register(ctx, email, password, cmd.String("username"))
	if err != nil {
		return describeAuthError("registration", err)
	}

	return r.writePlain("✓ Registered and signed in as %s\n", s.UserEmail)
}

// describeAuthError keeps the server's message for rejected credentials.
func describeAuthError(op string, err error) error {
	var authErr *session.AuthError
	if !errors.As(err, &authErr) {
		return err
	}
	switch authErr.Kind {
	case session.InvalidCredentials:
		return fmt.Errorf("%s failed: %w", op, err)
	default:
		return fmt.Errorf("%s failed, server unreachable: %w", op, err)
	}
}

// AuthLogout forgets the stored session. It always succeeds.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	prev := r.session.Current()
	r.session.Logout()

	if !prev.Authenticated() {
		return r.writePlain("Not signed in\n")
	}
	return r.writePlain("✓ Signed out %s\n", prev.UserEmail)
}

type sessionStatus struct {
	Authenticated bool       `json:"authenticated"`
	UserEmail     string     `json:"user_email,omitempty"`
	Subject       string     `json:"subject,omitempty"`
	SignedInAt    *time.Time `json:"signed_in_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
	Backend       string     `json:"backend"`
	Server        string     `json:"server"`
}

// AuthStatus reports the stored session without contacting the server.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	s := r.session.Current()
	status := sessionStatus{
		Authenticated: s.Authenticated(),
		UserEmail:     s.UserEmail,
		Subject:       s.Subject,
		Expired:       s.Expired(time.Now()),
		Backend:       r.config.Session.Backend,
		Server:        r.client.BaseURL(),
	}
	if !s.ExpiresAt.IsZero() {
		status.ExpiresAt = &s.ExpiresAt
	}
	if s.Authenticated() {
		status.SignedInAt = r.signedInAt()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("Server: %s\n", status.Server)
	r.writePlain("Session storage: %s\n", status.Backend)
	if !status.Authenticated {
		return r.writePlain("Authentication: ✗ Not signed in\n")
	}

	r.writePlain("Authentication: ✓ Signed in as %s\n", status.UserEmail)
	if status.SignedInAt != nil {
		r.writePlain("Signed in at %s\n", status.SignedInAt.Local().Format(time.RFC1123))
	}
	if status.ExpiresAt != nil {
		if status.Expired {
			r.writePlain("Token expired at %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
		} else {
			r.writePlain("Token expires at %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
		}
	}
	return nil
}

// signedInAt reports when the token was stored, for backends that track write times.
func (r *Runner) signedInAt() *time.Time {
	tracked, ok := r.store.(interface {
		UpdatedAt(key string) (time.Time, error)
	})
	if !ok {
		return nil
	}

	at, err := tracked.UpdatedAt(session.KeyToken)
	if err != nil {
		r.logger.Debug("no token timestamp", "err", err)
		return nil
	}
	return &at
}

// AuthHistory lists recorded session events, newest first.
func (r *Runner) AuthHistory(ctx context.Context, cmd *cli.Command) error {
	if r.events == nil {
		return fmt.Errorf("%w: session history requires the sqlite session backend", shared.ErrUnavailable)
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if kind := cmd.String("kind"); kind != "" {
		criteria["kind"] = models.SessionEventKind(kind)
	}

	events, err := r.events.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(events, true)
	}

	if len(events) == 0 {
		return r.writePlain("No session events recorded\n")
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{e.Created.Local().Format("2006-01-02 15:04:05"), string(e.Kind), e.UserEmail, e.Detail})
	}
	return r.writeTable(func(rounded bool) string {
		return formatter.RenderTable([]string{"When", "Event", "User", "Detail"}, rows, nil, rounded)
	})
}
