// Package auth owns the access-token lifecycle: reading the credential
// from the cookie jar, refreshing it through the OAuth exchange, and
// persisting the new grant back to the jar.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"boostysync/internal/boosty"
)

const (
	authCookieName     = "auth"
	clientIDCookieName = "_clientId"

	// refreshThreshold triggers a proactive refresh once the token has
	// less than a day of validity left.
	refreshThreshold = 24 * time.Hour
)

// State tracks the token lifecycle. Failed is terminal for the run; the
// next run starts again from Unknown.
type State int

const (
	StateUnknown State = iota
	StateValid
	StateExpired
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Error marks a failed refresh exchange. Callers treat it as fatal for
// the affected channel's crawl, not for the whole run.
type Error struct {
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("auth error: %v", e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// authCookie is the JSON payload of the "auth" cookie. ExpiresAt is in
// unix milliseconds.
type authCookie struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// Refresher performs the token refresh exchange.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken, clientID string) (*boosty.TokenGrant, error)
}

// Manager caches the access token for a run and refreshes it when
// expired or forced. All methods are safe for concurrent use; refreshes
// are single-flight behind the mutex.
type Manager struct {
	mu        sync.Mutex
	store     *Store
	refresher Refresher

	state    State
	cookie   *authCookie
	clientID string
}

// NewManager creates a token manager backed by the given cookie store.
func NewManager(store *Store, refresher Refresher) *Manager {
	return &Manager{store: store, refresher: refresher}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns a usable access token, refreshing it first when forced
// or when expiry is near. A refresh failure on an expired token moves
// the manager to Failed and every later call returns the same Error.
func (m *Manager) Token(ctx context.Context, forceRefresh bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateFailed {
		return "", &Error{Err: fmt.Errorf("token refresh already failed this run")}
	}

	if m.cookie == nil {
		if err := m.load(); err != nil {
			m.state = StateFailed
			return "", &Error{Err: err}
		}
	}

	untilExpiry := time.Until(time.UnixMilli(m.cookie.ExpiresAt))
	if !forceRefresh && untilExpiry >= refreshThreshold {
		m.state = StateValid
		return m.cookie.AccessToken, nil
	}

	if forceRefresh {
		log.Println("Forcing access token refresh...")
	} else if untilExpiry < 0 {
		m.state = StateExpired
		log.Println("Warning: access token expired, refreshing...")
	} else {
		log.Printf("Warning: access token expires in %.1f hours, refreshing...", untilExpiry.Hours())
	}

	if err := m.refresh(ctx); err != nil {
		if untilExpiry < 0 {
			m.state = StateFailed
			return "", &Error{Err: err}
		}
		// The old token still works; keep using it rather than losing
		// the whole run over a failed early refresh.
		log.Printf("Warning: access token refresh failed, keeping current token: %v", err)
		m.state = StateValid
		return m.cookie.AccessToken, nil
	}

	m.state = StateValid
	return m.cookie.AccessToken, nil
}

// load parses the auth and client-id cookies out of the jar.
func (m *Manager) load() error {
	raw, err := m.store.ReadCookie(authCookieName)
	if err != nil {
		return err
	}
	if raw == "" {
		return fmt.Errorf("required %q cookie not found in %s", authCookieName, m.store.Path())
	}

	var cookie authCookie
	if err := json.Unmarshal([]byte(raw), &cookie); err != nil {
		return fmt.Errorf("parse auth cookie: %w", err)
	}
	m.cookie = &cookie

	m.clientID, err = m.store.ReadCookie(clientIDCookieName)
	if err != nil {
		return err
	}
	if m.clientID == "" {
		// The exchange wants a device id; mint one for this run.
		m.clientID = uuid.NewString()
		log.Printf("Warning: no %q cookie found, using generated device id", clientIDCookieName)
	}
	return nil
}

// refresh performs the exchange and persists the new grant to the jar.
func (m *Manager) refresh(ctx context.Context) error {
	if m.cookie.RefreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}

	m.state = StateRefreshing
	grant, err := m.refresher.RefreshToken(ctx, m.cookie.RefreshToken, m.clientID)
	if err != nil {
		return err
	}

	next := &authCookie{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    grant.ExpiresAt,
	}
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode auth cookie: %w", err)
	}
	if err := m.store.WriteCookie(authCookieName, string(payload)); err != nil {
		return fmt.Errorf("persist refreshed token: %w", err)
	}

	m.cookie = next
	days := time.Until(time.UnixMilli(next.ExpiresAt)).Hours() / 24
	log.Printf("Access token refreshed successfully, expires in %.1f days", days)
	return nil
}
