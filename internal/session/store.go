package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tripdesk/internal/cache"
	"tripdesk/internal/model"
)

const (
	sessionKeyPrefix       = "session:"
	pendingVerifyKeyPrefix = "pending_verification:"

	// PendingVerificationTTL bounds how long a registered-but-unverified
	// marker survives. Independent of the session: the user may close the
	// tab before verifying.
	PendingVerificationTTL = 72 * time.Hour
)

// Store persists session records keyed by sid, plus the pending-verification
// markers that outlive a session.
type Store interface {
	Save(ctx context.Context, sid string, sess *model.Session, ttl time.Duration) error
	Get(ctx context.Context, sid string) (*model.Session, error)
	Delete(ctx context.Context, sid string) error

	MarkPendingVerification(ctx context.Context, email string) error
	ClearPendingVerification(ctx context.Context, email string) error
	IsPendingVerification(ctx context.Context, email string) (bool, error)
}

// RedisStore stores sessions as JSON records in Redis.
type RedisStore struct {
	cache *cache.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(cache *cache.Client) *RedisStore {
	return &RedisStore{cache: cache}
}

// Save writes the full session record under its sid with a TTL.
func (s *RedisStore) Save(ctx context.Context, sid string, sess *model.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.cache.Set(ctx, sessionKeyPrefix+sid, payload, ttl)
}

// Get returns the session for sid, or nil when none exists.
func (s *RedisStore) Get(ctx context.Context, sid string) (*model.Session, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+sid)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session record for sid.
func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+sid)
}

// MarkPendingVerification records that email registered but has not verified yet.
func (s *RedisStore) MarkPendingVerification(ctx context.Context, email string) error {
	return s.cache.Set(ctx, pendingVerifyKeyPrefix+email, []byte("1"), PendingVerificationTTL)
}

// ClearPendingVerification removes the marker for email.
func (s *RedisStore) ClearPendingVerification(ctx context.Context, email string) error {
	return s.cache.Delete(ctx, pendingVerifyKeyPrefix+email)
}

// IsPendingVerification reports whether email still awaits verification.
func (s *RedisStore) IsPendingVerification(ctx context.Context, email string) (bool, error) {
	data, err := s.cache.Get(ctx, pendingVerifyKeyPrefix+email)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}
