package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/pkg/circuit"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/redis"
)

// cachedToken is what the cache keeps per token id. It holds the hash, never the secret.
type cachedToken struct {
	TokenID   uint      `json:"token_id"`
	UserID    uint      `json:"user_id"`
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *cachedToken) toModel() *model.PersonalAccessToken {
	return &model.PersonalAccessToken{
		ID:        c.TokenID,
		UserID:    c.UserID,
		Name:      c.Name,
		Token:     c.Hash,
		ExpiresAt: c.ExpiresAt,
	}
}

// TokenCache fronts token lookups by id. Entries are removed whenever the
// token is deleted, so a hit is only ever stale by the TTL on a failed delete.
// Reads and writes go through a breaker; deletes are always attempted.
type TokenCache struct {
	client  redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
}

func NewTokenCache(client redis.Client, ttl time.Duration) *TokenCache {
	if client == nil {
		client = redis.NewDisabledClient()
	}
	return &TokenCache{
		client:  client,
		ttl:     ttl,
		breaker: circuit.NewBreaker("token_cache", circuit.DefaultConfig(), logger.GetLogger()),
	}
}

func tokenCacheKey(id uint) string {
	return constants.CacheKeyToken + strconv.FormatUint(uint64(id), 10)
}

func (c *TokenCache) Enabled() bool {
	return c.client.IsEnabled() && c.ttl > 0
}

// Get returns the cached lookup for id. Errors count as a miss.
func (c *TokenCache) Get(ctx context.Context, id uint) (*model.PersonalAccessToken, bool) {
	if !c.Enabled() {
		return nil, false
	}
	var (
		data []byte
		ok   bool
	)
	err := c.breaker.Execute(func() error {
		var err error
		data, ok, err = c.client.Get(ctx, tokenCacheKey(id))
		return err
	})
	if err != nil || !ok {
		return nil, false
	}
	var entry cachedToken
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.WarnWithContext(ctx, "Discarding unreadable token cache entry").
			Uint("token_id", id).
			Err(err).
			Log()
		_ = c.client.Delete(ctx, tokenCacheKey(id))
		return nil, false
	}
	return entry.toModel(), true
}

// Put stores a lookup. The entry never outlives the token itself.
func (c *TokenCache) Put(ctx context.Context, token *model.PersonalAccessToken, now time.Time) {
	if !c.Enabled() {
		return
	}
	ttl := c.ttl
	if remaining := token.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(cachedToken{
		TokenID:   token.ID,
		UserID:    token.UserID,
		Name:      token.Name,
		Hash:      token.Token,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return
	}
	_ = c.breaker.Execute(func() error {
		return c.client.Set(ctx, tokenCacheKey(token.ID), data, ttl)
	})
}

// Invalidate drops the entries for ids.
func (c *TokenCache) Invalidate(ctx context.Context, ids ...uint) {
	if !c.client.IsEnabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, tokenCacheKey(id))
	}
	if err := c.client.Delete(ctx, keys...); err != nil {
		logger.ErrorWithContext(ctx, "Failed to invalidate cached tokens").
			Int("token_count", len(ids)).
			Err(err).
			Log()
	}
}
