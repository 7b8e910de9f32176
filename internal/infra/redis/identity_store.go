package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// identityKey is the fixed key the last-used student email lives under,
// mirroring the browser build's localStorage slot.
const identityKey = "quizrunner:student:email"

// IdentityStore persists the student email across process restarts so
// returning students get it prefilled.
type IdentityStore struct {
	client *redis.Client
}

func NewIdentityStore(client *redis.Client) *IdentityStore {
	return &IdentityStore{client: client}
}

func (s *IdentityStore) SaveEmail(ctx context.Context, email string) error {
	return s.client.Set(ctx, identityKey, email, 0).Err()
}

func (s *IdentityStore) LoadEmail(ctx context.Context) (string, error) {
	email, err := s.client.Get(ctx, identityKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return email, nil
}
