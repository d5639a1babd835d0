package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"

	"github.com/noah-isme/learnhub-client/internal/models"
)

type fakeAuthGateway struct {
	loginResp    *models.LoginResponse
	loginErr     error
	profile      *models.User
	profileErr   error
	logoutErr    error
	profileCalls int
	logoutCalls  int
}

func (f *fakeAuthGateway) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeAuthGateway) FetchProfile(ctx context.Context, token string, userID int64) (*models.User, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeAuthGateway) Logout(ctx context.Context, token string) error {
	f.logoutCalls++
	return f.logoutErr
}

type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore {
	return &memStore{m: make(map[string]string)}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.m[key]
	if !ok {
		return "", appErrors.ErrCacheMiss
	}
	return value, nil
}

func (s *memStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "1", "exp": exp.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRestoreEmptyStoreResolvesAnonymous(t *testing.T) {
	gw := &fakeAuthGateway{}
	m := NewManager(gw, newMemStore(), nil)

	require.Equal(t, StateUnknown, m.State())
	state := m.Restore(context.Background())

	assert.Equal(t, StateAnonymous, state)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Zero(t, gw.profileCalls)
}

func TestRestorePartialWriteIsNoSession(t *testing.T) {
	kv := newMemStore()
	require.NoError(t, kv.Set(context.Background(), keyToken, "tok"))

	gw := &fakeAuthGateway{}
	m := NewManager(gw, kv, nil)

	assert.Equal(t, StateAnonymous, m.Restore(context.Background()))
	assert.Zero(t, gw.profileCalls)
	assert.Zero(t, kv.len())
}

func TestRestoreCorruptUserIDClearsCredentials(t *testing.T) {
	ctx := context.Background()
	kv := newMemStore()
	require.NoError(t, kv.Set(ctx, keyToken, "tok"))
	require.NoError(t, kv.Set(ctx, keyUserID, "not-a-number"))

	m := NewManager(&fakeAuthGateway{}, kv, nil)

	assert.Equal(t, StateAnonymous, m.Restore(ctx))
	assert.Zero(t, kv.len())
}

func TestRestoreExpiredTokenSkipsProfileFetch(t *testing.T) {
	ctx := context.Background()
	kv := newMemStore()
	require.NoError(t, kv.Set(ctx, keyToken, signedToken(t, time.Now().Add(-time.Hour))))
	require.NoError(t, kv.Set(ctx, keyUserID, "1"))

	gw := &fakeAuthGateway{profile: &models.User{ID: 1}}
	m := NewManager(gw, kv, nil)

	assert.Equal(t, StateAnonymous, m.Restore(ctx))
	assert.Zero(t, gw.profileCalls)
	assert.Zero(t, kv.len())
}

func TestRestoreProfileFailureResolvesAnonymous(t *testing.T) {
	ctx := context.Background()
	kv := newMemStore()
	require.NoError(t, kv.Set(ctx, keyToken, "opaque-token"))
	require.NoError(t, kv.Set(ctx, keyUserID, "9"))

	gw := &fakeAuthGateway{profileErr: appErrors.ErrNetworkUnavailable}
	m := NewManager(gw, kv, nil)

	assert.Equal(t, StateAnonymous, m.Restore(ctx))
	assert.Equal(t, 1, gw.profileCalls)
	assert.Zero(t, kv.len())
	assert.Empty(t, m.Token())
}

func TestRestoreSuccess(t *testing.T) {
	ctx := context.Background()
	kv := newMemStore()
	require.NoError(t, kv.Set(ctx, keyToken, signedToken(t, time.Now().Add(time.Hour))))
	require.NoError(t, kv.Set(ctx, keyUserID, "9"))

	user := &models.User{ID: 9, Name: "Ana", Role: models.RoleStudent}
	m := NewManager(&fakeAuthGateway{profile: user}, kv, nil)

	assert.Equal(t, StateAuthenticated, m.Restore(ctx))
	assert.Equal(t, StateAuthenticated, m.State())
	require.NotNil(t, m.User())
	assert.Equal(t, int64(9), m.User().ID)
	assert.NotEmpty(t, m.Token())
}

func TestLoginPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	kv := newMemStore()
	gw := &fakeAuthGateway{loginResp: &models.LoginResponse{
		Token: "issued-token",
		User:  models.User{ID: 4, Name: "Rui", Role: models.RoleStudent},
	}}
	m := NewManager(gw, kv, nil)

	var observed []State
	m.OnTransition(func(ctx context.Context, state State, user *models.User) {
		observed = append(observed, state)
	})

	user, err := m.Login(ctx, "rui@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), user.ID)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "issued-token", m.Token())
	assert.Equal(t, []State{StateAuthenticated}, observed)

	token, err := kv.Get(ctx, keyToken)
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token)

	id, err := kv.Get(ctx, keyUserID)
	require.NoError(t, err)
	assert.Equal(t, "4", id)

	role, err := kv.Get(ctx, keyUserRole)
	require.NoError(t, err)
	assert.Equal(t, "student", role)
}

func TestLoginFailurePropagates(t *testing.T) {
	gw := &fakeAuthGateway{loginErr: appErrors.Clone(appErrors.ErrUnauthorized, "")}
	m := NewManager(gw, newMemStore(), nil)

	_, err := m.Login(context.Background(), "a@b.com", "wrongpw")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	assert.Equal(t, StateUnknown, m.State())
}

func TestLogoutGuaranteesLocalTermination(t *testing.T) {
	ctx := context.Background()
	kv := newMemStore()
	gw := &fakeAuthGateway{
		loginResp: &models.LoginResponse{Token: "tok", User: models.User{ID: 1}},
		logoutErr: errors.New("server unreachable"),
	}
	m := NewManager(gw, kv, nil)

	_, err := m.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, 3, kv.len())

	var last State
	m.OnTransition(func(ctx context.Context, state State, user *models.User) {
		last = state
	})

	m.Logout(ctx)

	assert.Equal(t, 1, gw.logoutCalls)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Equal(t, StateAnonymous, last)
	assert.Zero(t, kv.len())
	assert.Empty(t, m.Token())
	assert.Nil(t, m.User())
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	assert.False(t, tokenExpired("opaque-bearer-value", now))
	assert.False(t, tokenExpired(signedToken(t, now.Add(time.Hour)), now))
	assert.True(t, tokenExpired(signedToken(t, now.Add(-time.Minute)), now))
}
