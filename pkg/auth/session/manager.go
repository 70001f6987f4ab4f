package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freshoils/freshoils-backend/pkg/config"
	redisclient "github.com/freshoils/freshoils-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(token string) string
}

// Manager handles opaque refresh token creation, lookup, and rotation. Each
// token maps to the owning user id in Redis with the configured TTL.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Generate creates a refresh token bound to the provided user id.
func (m *Manager) Generate(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(token), strconv.FormatUint(uint64(userID), 10), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate resolves the provided refresh token to its user, revokes it, and
// issues a replacement. Unknown or expired tokens yield ErrInvalidRefreshToken.
func (m *Manager) Rotate(ctx context.Context, provided string) (uint, string, error) {
	if strings.TrimSpace(provided) == "" {
		return 0, "", ErrInvalidRefreshToken
	}

	key := m.keyer.SessionKey(provided)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return 0, "", wrapNotFound(err)
	}

	userID, err := strconv.ParseUint(stored, 10, 64)
	if err != nil || userID == 0 {
		return 0, "", ErrInvalidRefreshToken
	}

	newToken, err := m.Generate(ctx, uint(userID))
	if err != nil {
		return 0, "", err
	}

	if err := m.store.Del(ctx, key); err != nil {
		return 0, "", err
	}

	return uint(userID), newToken, nil
}

// Revoke deletes the refresh mapping for the provided token.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("refresh token is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(token))
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}
