package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "fs:session"

type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore stores sessions as two string keys per session id. A zero ttl
// keeps keys until cleared.
func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: defaultKeyPrefix, ttl: ttl}
}

func (s *RedisStore) key(sid, name string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, sid, name)
}

func (s *RedisStore) Save(ctx context.Context, sid, token string, u user.User) error {
	if sid == "" {
		return ErrNoSessionID
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(sid, TokenKey), token, s.ttl)
		p.Set(ctx, s.key(sid, UserKey), raw, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sid string) (*Session, error) {
	if sid == "" {
		return nil, ErrNoSessionID
	}

	vals, err := s.rdb.MGet(ctx, s.key(sid, TokenKey), s.key(sid, UserKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	token, _ := vals[0].(string)
	rawUser, _ := vals[1].(string)
	if token == "" || rawUser == "" {
		return nil, nil
	}

	var u user.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}

	if s.ttl > 0 {
		// sliding expiry, like a tab that stays open
		s.rdb.Expire(ctx, s.key(sid, TokenKey), s.ttl)
		s.rdb.Expire(ctx, s.key(sid, UserKey), s.ttl)
	}
	return &Session{Token: token, User: u}, nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	if sid == "" {
		return ErrNoSessionID
	}
	if err := s.rdb.Del(ctx, s.key(sid, TokenKey), s.key(sid, UserKey)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
