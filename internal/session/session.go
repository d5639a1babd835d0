package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"
	"github.com/noah-isme/learnhub-client/pkg/store"

	"github.com/noah-isme/learnhub-client/internal/models"
)

// State identifies who is logged in.
type State string

const (
	// StateUnknown holds before the restore attempt completes.
	StateUnknown       State = "unknown"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Durable keys. Written independently; a partial write (token present but
// user id absent) is treated as no session on restore.
const (
	keyToken    = "session:token"
	keyUserID   = "session:user_id"
	keyUserRole = "session:user_role"
)

type authGateway interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	FetchProfile(ctx context.Context, token string, userID int64) (*models.User, error)
	Logout(ctx context.Context, token string) error
}

// TransitionListener observes every entry into Authenticated or Anonymous.
type TransitionListener func(ctx context.Context, state State, user *models.User)

// Manager is the single authoritative holder of the current session. It owns
// the bearer token and the session keys in the durable store; nothing else
// writes them.
type Manager struct {
	gateway authGateway
	store   store.KeyValue
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	state     State
	token     string
	user      *models.User
	listeners []TransitionListener
}

// NewManager constructs a Manager in the Unknown state.
func NewManager(gateway authGateway, kv store.KeyValue, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		gateway: gateway,
		store:   kv,
		logger:  logger,
		now:     time.Now,
		state:   StateUnknown,
	}
}

// OnTransition registers a listener. Listeners run synchronously, in
// registration order, after the state has been updated.
func (m *Manager) OnTransition(fn TransitionListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Token returns the current bearer token, empty when not authenticated.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the authenticated user, nil when anonymous.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Restore resolves the Unknown state from durable storage. Any failure along
// the way (missing keys, corrupt user id, expired token, profile fetch
// error) clears the stored credentials and resolves to Anonymous; a broken
// stored session must never crash startup.
func (m *Manager) Restore(ctx context.Context) State {
	token, err := m.store.Get(ctx, keyToken)
	if err != nil {
		return m.resolveAnonymous(ctx, false, "no stored token")
	}

	rawID, err := m.store.Get(ctx, keyUserID)
	if err != nil {
		return m.resolveAnonymous(ctx, true, "stored token without user id")
	}

	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return m.resolveAnonymous(ctx, true, "corrupt stored user id")
	}

	if tokenExpired(token, m.now()) {
		return m.resolveAnonymous(ctx, true, "stored token expired")
	}

	user, err := m.gateway.FetchProfile(ctx, token, userID)
	if err != nil {
		m.logger.Info("stored session failed to resolve", zap.Error(err))
		return m.resolveAnonymous(ctx, true, "profile fetch failed")
	}

	m.transition(ctx, StateAuthenticated, token, user)
	return StateAuthenticated
}

// Login authenticates against the gateway and persists the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := m.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.persist(ctx, resp.Token, resp.User)
	user := resp.User
	m.transition(ctx, StateAuthenticated, resp.Token, &user)
	return &user, nil
}

// Logout terminates the session. The remote logout is best effort; local
// termination is guaranteed regardless of its outcome.
func (m *Manager) Logout(ctx context.Context) {
	token := m.Token()
	if token != "" {
		if err := m.gateway.Logout(ctx, token); err != nil {
			m.logger.Warn("remote logout failed", zap.Error(err))
		}
	}
	m.resolveAnonymous(ctx, true, "logout")
}

func (m *Manager) persist(ctx context.Context, token string, user models.User) {
	if err := m.store.Set(ctx, keyToken, token); err != nil {
		m.logger.Warn("failed to persist session token", zap.Error(err))
	}
	if err := m.store.Set(ctx, keyUserID, strconv.FormatInt(user.ID, 10)); err != nil {
		m.logger.Warn("failed to persist session user id", zap.Error(err))
	}
	if err := m.store.Set(ctx, keyUserRole, string(user.Role)); err != nil {
		m.logger.Warn("failed to persist session user role", zap.Error(err))
	}
}

func (m *Manager) resolveAnonymous(ctx context.Context, clear bool, reason string) State {
	if clear {
		m.clearCredentials(ctx)
	}
	m.logger.Debug("session resolved anonymous", zap.String("reason", reason))
	m.transition(ctx, StateAnonymous, "", nil)
	return StateAnonymous
}

func (m *Manager) clearCredentials(ctx context.Context) {
	for _, key := range []string{keyToken, keyUserID, keyUserRole} {
		if err := m.store.Remove(ctx, key); err != nil && !appErrors.Is(err, appErrors.ErrCacheMiss) {
			m.logger.Warn("failed to clear session key", zap.String("key", key), zap.Error(err))
		}
	}
}

func (m *Manager) transition(ctx context.Context, state State, token string, user *models.User) {
	m.mu.Lock()
	m.state = state
	m.token = token
	m.user = user
	listeners := make([]TransitionListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, state, user)
	}
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; an opaque or claimless token defers to the server.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
