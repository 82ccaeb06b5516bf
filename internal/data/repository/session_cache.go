package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"boardroom-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "session:"

// cachedSessionRepository fronts a SessionRepository with Redis. Cache errors
// are logged and fall through to the inner repository.
type cachedSessionRepository struct {
	inner  SessionRepository
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// NewCachedSessionRepository returns inner unchanged when client is nil.
func NewCachedSessionRepository(inner SessionRepository, client redis.Cmdable, ttl time.Duration, log *zap.Logger) SessionRepository {
	if client == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cachedSessionRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		now:    time.Now,
		log:    log.With(zap.String("repository", "session_cache")),
	}
}

func (r *cachedSessionRepository) Create(ctx context.Context, session *entity.Session) error {
	return r.inner.Create(ctx, session)
}

func (r *cachedSessionRepository) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	key := sessionKeyPrefix + token

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var session entity.Session
		if jsonErr := json.Unmarshal(raw, &session); jsonErr == nil && session.ExpiresAt.After(r.now()) {
			return &session, nil
		}
	case !errors.Is(err, redis.Nil):
		r.log.Warn("Session cache read failed", zap.Error(err))
	}

	session, err := r.inner.FindValidSession(ctx, token)
	if err != nil || session == nil {
		return session, err
	}

	ttl := r.ttl
	if remaining := session.ExpiresAt.Sub(r.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl > 0 {
		if payload, err := json.Marshal(session); err == nil {
			if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
				r.log.Warn("Session cache write failed", zap.Error(err))
			}
		}
	}

	return session, nil
}

func (r *cachedSessionRepository) Revoke(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		r.log.Warn("Session cache delete failed", zap.Error(err))
	}
	return r.inner.Revoke(ctx, token)
}

// RevokeAllUserSessions cannot enumerate cached tokens; entries expire on their
// own within the cache TTL.
func (r *cachedSessionRepository) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	return r.inner.RevokeAllUserSessions(ctx, userID)
}

func (r *cachedSessionRepository) CleanExpiredSessions(ctx context.Context) error {
	return r.inner.CleanExpiredSessions(ctx)
}
