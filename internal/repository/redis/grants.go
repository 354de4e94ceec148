package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

var _ repository.GrantStore = (*redisGrantStore)(nil)

const grantKeyPrefix = "baywatch:grant:"

type redisGrantStore struct {
	client goredis.Cmdable
}

// NewRedisGrantStore creates a Redis-backed store of public viewing grants.
// Grants expire through the key TTL.
func NewRedisGrantStore(client goredis.Cmdable) repository.GrantStore {
	return &redisGrantStore{client: client}
}

// Issue stores the grant with SET NX so an existing token is never overwritten.
func (r *redisGrantStore) Issue(ctx context.Context, grant *domain.ShareGrant) error {
	ttl := time.Until(grant.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("redis: issue grant: already expired")
	}

	body, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("redis: marshal grant: %w", err)
	}

	ok, err := r.client.SetNX(ctx, grantKeyPrefix+grant.Token, body, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis: issue grant: %w", err)
	}
	if !ok {
		return fmt.Errorf("redis: issue grant: token collision")
	}
	return nil
}

func (r *redisGrantStore) Lookup(ctx context.Context, token string) (*domain.ShareGrant, error) {
	body, err := r.client.Get(ctx, grantKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("redis: lookup grant: %w", err)
	}

	var grant domain.ShareGrant
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, fmt.Errorf("redis: unmarshal grant: %w", err)
	}
	return &grant, nil
}
