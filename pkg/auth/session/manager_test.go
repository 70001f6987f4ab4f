package session

import (
	"context"
	"testing"
	"time"

	"github.com/freshoils/freshoils-backend/pkg/config"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	if value, ok := f.data[key]; ok {
		return value, nil
	}
	return "", redislib.Nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) SessionKey(token string) string { return "fo:session:" + token }

func newTestManager(store *fakeStore) *Manager {
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)
}

func TestGenerateStoresUserID(t *testing.T) {
	store := newFakeStore()
	mgr := newTestManager(store)

	token, err := mgr.Generate(context.Background(), 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, "42", store.data["fo:session:"+token])

	_, err = mgr.Generate(context.Background(), 0)
	assert.Error(t, err)
}

func TestRotateRevokesOldToken(t *testing.T) {
	store := newFakeStore()
	mgr := newTestManager(store)

	token, err := mgr.Generate(context.Background(), 7)
	require.NoError(t, err)

	userID, newToken, err := mgr.Rotate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
	assert.NotEqual(t, token, newToken)

	_, _, err = mgr.Rotate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	userID, _, err = mgr.Rotate(context.Background(), newToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
}

func TestRotateUnknownToken(t *testing.T) {
	mgr := newTestManager(newFakeStore())

	_, _, err := mgr.Rotate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, _, err = mgr.Rotate(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevoke(t *testing.T) {
	store := newFakeStore()
	mgr := newTestManager(store)

	token, err := mgr.Generate(context.Background(), 9)
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(context.Background(), token))
	assert.Empty(t, store.data)
}
