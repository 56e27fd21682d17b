// Package auth owns the credential and session lifecycle: token storage and
// normalization, login/register/logout/refresh, and the cached user record.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskclient/internal/httpclient"
	"taskclient/internal/logger"
	"taskclient/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateAnonymous     State = "anonymous"
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	// StateInvalid is transient: a present credential failed verification
	// and is cleared immediately, landing back in StateAnonymous.
	StateInvalid State = "invalid"
)

// Manager is the session manager. The user record and the credential always
// change together: "authenticated" holds iff both are present.
type Manager struct {
	api        *httpclient.Client
	tokens     *TokenStore
	expiryHint time.Duration

	mu    sync.RWMutex
	user  *models.User
	state State

	refreshGroup singleflight.Group
}

func NewManager(api *httpclient.Client, tokens *TokenStore, expiryHint time.Duration) *Manager {
	m := &Manager{
		api:        api,
		tokens:     tokens,
		expiryHint: expiryHint,
		state:      StateAnonymous,
	}
	if _, ok := tokens.Get(); ok {
		m.state = StateLoading
	}
	return m
}

// Bootstrap verifies a credential left over from a previous run by fetching
// the current user. A failing verification clears the credential.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if _, ok := m.tokens.Get(); !ok {
		m.setSession(nil, StateAnonymous)
		return nil
	}
	m.setSession(nil, StateLoading)

	var user models.User
	if err := m.api.Get(ctx, "/api/auth/me", nil, &user); err != nil {
		logger.Warn("session: stored credential rejected", zap.Error(err))
		m.setSession(nil, StateInvalid)
		m.Logout()
		return err
	}
	m.setSession(&user, StateAuthenticated)
	logger.Info("session: restored", zap.String("username", user.Username))
	return nil
}

// Login authenticates and establishes the session. On failure the stored
// credential is left untouched and the error is surfaced with no retry.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, error) {
	return m.authenticate(ctx, "/api/auth/login", models.LoginRequest{
		Username: username,
		Password: password,
	})
}

// Register creates an account; the backend establishes a session in the same
// response, so the contract matches Login.
func (m *Manager) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	return m.authenticate(ctx, "/api/auth/register", models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
}

func (m *Manager) authenticate(ctx context.Context, path string, body any) (*models.User, error) {
	var resp models.AuthResponse
	if err := m.api.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("auth response missing token or user")
	}

	m.tokens.Set(resp.Token)
	m.setSession(resp.User, StateAuthenticated)
	logger.Info("session: authenticated", zap.String("username", resp.User.Username))
	return resp.User, nil
}

// Logout clears credential and user unconditionally. It never fails.
func (m *Manager) Logout() {
	m.tokens.Clear()
	m.setSession(nil, StateAnonymous)
	logger.Info("session: logged out")
}

// Refresh exchanges the current credential for a new one. Concurrent callers
// (typically multiple in-flight requests that all hit a 401) collapse into a
// single backend call and share its result. A failed refresh logs the
// session out.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	token, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		var resp models.AuthResponse
		if err := m.api.Post(ctx, "/api/auth/refresh", nil, &resp); err != nil {
			return "", err
		}
		if resp.Token == "" {
			return "", fmt.Errorf("refresh response missing token")
		}
		m.tokens.Set(resp.Token)
		logger.Debug("session: credential refreshed")
		return resp.Token, nil
	})
	if err != nil {
		logger.Warn("session: refresh failed, logging out", zap.Error(err))
		m.Logout()
		return "", err
	}
	return token.(string), nil
}

func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	_, hasToken := m.tokens.Get()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return hasToken && m.user != nil
}

// TokenExpiry reports when the current credential expires. JWT credentials
// carry an exp claim (read without signature verification, the backend stays
// authoritative); opaque ones fall back to the configured expiry hint.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	token, ok := m.tokens.Get()
	if !ok {
		return time.Time{}, false
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time, true
		}
	}
	if m.expiryHint > 0 {
		return time.Now().Add(m.expiryHint), true
	}
	return time.Time{}, false
}

func (m *Manager) setSession(user *models.User, state State) {
	m.mu.Lock()
	m.user = user
	m.state = state
	m.mu.Unlock()
}
