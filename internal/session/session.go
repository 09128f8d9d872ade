package session

import (
	"context"
	"errors"
	"strings"

	"teller/internal/ledger"
)

// AuthError is a sign-in or registration rejected by the service, or a
// locally invalid credential form. The session is left untouched.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// Authenticator is the slice of the ledger service the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) error
}

// Manager owns the current session: either unauthenticated (empty fields) or
// authenticated (token + username). It is the only writer of both the
// in-memory state and the durable store.
type Manager struct {
	Store Store
	API   Authenticator

	token    string
	username string
}

// Restore initializes the session from the durable store. A persisted token
// is trusted optimistically; its validity surfaces on the first protected
// call, which forces a logout if it has expired.
func (m *Manager) Restore() error {
	if m.Store == nil {
		return nil
	}
	token, username, err := m.Store.Load()
	if err != nil {
		return err
	}
	m.token, m.username = token, username
	return nil
}

// Authenticated reports whether a session is held.
func (m *Manager) Authenticated() bool { return m.token != "" }

// Token returns the current bearer credential, or "" when unauthenticated.
// Wired into the ledger client as its token source.
func (m *Manager) Token() string { return m.token }

// Username returns the signed-in user, or "" when unauthenticated.
func (m *Manager) Username() string { return m.username }

// Login exchanges credentials for a session and persists it. On failure the
// session is unchanged and the error is an *AuthError.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return &AuthError{Message: "username and password are required"}
	}
	token, err := m.API.Login(ctx, username, password)
	if err != nil {
		return &AuthError{Message: authMessage(err, "login failed")}
	}
	m.token, m.username = token, username
	if m.Store != nil {
		if err := m.Store.Save(token, username); err != nil {
			// The session is live either way; persistence only affects
			// reload survival.
			return nil
		}
	}
	return nil
}

// Register creates a user. Success produces no session: the user signs in
// afterwards.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return &AuthError{Message: "username and password are required"}
	}
	if err := m.API.Register(ctx, username, password); err != nil {
		return &AuthError{Message: authMessage(err, "registration failed")}
	}
	return nil
}

// Logout clears the session and the durable store. Idempotent; safe to call
// repeatedly, including from forced-logout paths.
func (m *Manager) Logout() {
	m.token, m.username = "", ""
	if m.Store != nil {
		_ = m.Store.Clear()
	}
}

func authMessage(err error, fallback string) string {
	var api *ledger.APIError
	if errors.As(err, &api) && api.Message != "" {
		return api.Message
	}
	return fallback
}
