package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// SessionManager owns the server-side session records in Redis: it is the
// only component that writes session keys. The opaque token lives in an
// HTTP-only cookie on the client; Redis maps it to a user id with a fixed
// TTL set at issuance.
type SessionManager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionManager creates a session manager with the given TTL.
func NewSessionManager(rdb *redis.Client, ttl time.Duration) *SessionManager {
	return &SessionManager{redis: rdb, ttl: ttl}
}

// Issue creates a new session bound to userID and returns the opaque token.
func (m *SessionManager) Issue(ctx context.Context, userID string) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	session := Session{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	key := sessionKeyPrefix + token
	if err := m.redis.Set(ctx, key, data, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session in redis: %w", err)
	}

	return token, nil
}

// Restore resolves a token to the bound user id. It fails open: a missing,
// expired, or corrupt session -- or an unreachable Redis -- yields ("",
// false) and the request proceeds as anonymous. Restore never returns an
// error to the caller.
func (m *SessionManager) Restore(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}

	data, err := m.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("session restore failed, treating as anonymous", slog.Any("error", err))
		return "", false
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		slog.Warn("corrupt session record, treating as anonymous", slog.Any("error", err))
		return "", false
	}

	return session.UserID, session.UserID != ""
}

// Destroy removes a session. Idempotent: deleting an already-gone token
// succeeds.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.redis.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("deleting session from redis: %w", err)
	}
	return nil
}

// Rebind points an existing session at userID without changing its expiry,
// so a just-completed profile takes effect on the very next request without
// forcing the client to re-authenticate. Rebinding a session that has
// meanwhile expired is a no-op; the next request simply comes in anonymous.
func (m *SessionManager) Rebind(ctx context.Context, token, userID string) error {
	if token == "" {
		return nil
	}

	session := Session{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	// XX: only write if the key still exists. KeepTTL preserves the
	// remaining lifetime from the original issuance.
	err = m.redis.SetArgs(ctx, sessionKeyPrefix+token, data, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rebinding session in redis: %w", err)
	}
	return nil
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
