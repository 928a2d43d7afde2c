package renewaltokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "authapi:renewal:"

type redisToken struct {
	AccountID string    `json:"accountId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// RedisRepository stores each token under its own key with a TTL equal to its
// validity, plus a per-account set used by DeleteByAccount.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client, prefix: defaultKeyPrefix, now: time.Now}
}

func (r *RedisRepository) tokenKey(token string) string {
	return r.prefix + "token:" + token
}

func (r *RedisRepository) accountKey(accountID string) string {
	return r.prefix + "account:" + accountID
}

func (r *RedisRepository) Create(ctx context.Context, accountID string, token string, validity time.Duration) error {
	now := r.now()
	data, err := json.Marshal(redisToken{AccountID: accountID, ExpiresAt: now.Add(validity), CreatedAt: now})
	if err != nil {
		return fmt.Errorf("failed to encode renewal token: %w", err)
	}

	set := r.client.SetNX(ctx, r.tokenKey(token), data, validity)
	if err := set.Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !set.Val() {
		return common.ErrorConflict
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, r.accountKey(accountID), token)
		pipe.Expire(ctx, r.accountKey(accountID), validity)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Consume(ctx context.Context, token string) (*models.RenewalToken, error) {
	data, err := r.client.GetDel(ctx, r.tokenKey(token)).Bytes()
	if err != nil {
		return nil, r.mapErr(err)
	}
	t, err := decodeToken(token, data)
	if err != nil {
		return nil, err
	}
	if err := r.client.SRem(ctx, r.accountKey(t.AccountID), token).Err(); err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return t, nil
}

func (r *RedisRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	tokens, err := r.client.SMembers(ctx, r.accountKey(accountID)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, r.tokenKey(t))
	}
	keys = append(keys, r.accountKey(accountID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) mapErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("redis error: %w", err)
}

func decodeToken(token string, data []byte) (*models.RenewalToken, error) {
	var rt redisToken
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, fmt.Errorf("failed to decode renewal token: %w", err)
	}
	return &models.RenewalToken{
		Token:     token,
		AccountID: rt.AccountID,
		ExpiresAt: rt.ExpiresAt,
		CreatedAt: rt.CreatedAt,
	}, nil
}

// Ping checks that the Redis server is reachable.
func (r *RedisRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
