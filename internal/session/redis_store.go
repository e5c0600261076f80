// Package session persists listing form state between HTTP requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "listing-generator/internal/common/errors"
	"listing-generator/internal/listing"
)

const (
	DefaultKeyPrefix     = "listing:session:"
	DefaultTTL           = 24 * time.Hour
	DefaultSubmitLockTTL = 5 * time.Minute
)

type Options struct {
	KeyPrefix string
	// TTL is refreshed on every Save.
	TTL time.Duration
	// SubmitLockTTL caps how long a crashed replica can hold the guard.
	SubmitLockTTL time.Duration
}

// RedisStore implements listing.Store on top of Redis so the submit guard
// holds across server replicas.
type RedisStore struct {
	client redis.Cmdable
	opts   Options
}

var _ listing.Store = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, opts Options) *RedisStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SubmitLockTTL <= 0 {
		opts.SubmitLockTTL = DefaultSubmitLockTTL
	}
	return &RedisStore{client: client, opts: opts}
}

func (s *RedisStore) stateKey(id string) string {
	return s.opts.KeyPrefix + id
}

func (s *RedisStore) lockKey(id string) string {
	return s.opts.KeyPrefix + id + ":submit"
}

// Load returns a fresh State for unknown or expired sessions. A pending
// State whose submit guard is gone is returned as failed.
func (s *RedisStore) Load(ctx context.Context, id string) (listing.State, error) {
	raw, err := s.client.Get(ctx, s.stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return listing.NewState(), nil
	}
	if err != nil {
		return listing.State{}, apperrors.NewSessionStoreError("load", err)
	}

	var st listing.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return listing.State{}, apperrors.NewSessionStoreError("decode", err)
	}
	if st.Errors == nil {
		st.Errors = listing.NewErrorState()
	}
	if st.Status.Phase == "" {
		st.Status = listing.Idle()
	}

	// A pending state outlives its guard only when the replica running the
	// submission stopped before settling it.
	if st.Status.IsPending() {
		n, err := s.client.Exists(ctx, s.lockKey(id)).Result()
		if err != nil {
			return listing.State{}, apperrors.NewSessionStoreError("check submit guard", err)
		}
		if n == 0 {
			st = listing.AbandonSubmission(st)
		}
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, state listing.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return apperrors.NewSessionStoreError("encode", err)
	}
	if err := s.client.Set(ctx, s.stateKey(id), raw, s.opts.TTL).Err(); err != nil {
		return apperrors.NewSessionStoreError("save", err)
	}
	return nil
}

func (s *RedisStore) AcquireSubmit(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.lockKey(id), time.Now().UTC().Format(time.RFC3339Nano), s.opts.SubmitLockTTL).Result()
	if err != nil {
		return false, apperrors.NewSessionStoreError("acquire submit guard", err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseSubmit(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.lockKey(id)).Err(); err != nil {
		return apperrors.NewSessionStoreError("release submit guard", err)
	}
	return nil
}
