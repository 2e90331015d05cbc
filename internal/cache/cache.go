package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenMetadata is the immutable part of an ERC20 that is worth caching.
type TokenMetadata struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Cache defines the interface for caching operations
type Cache interface {
	GetToken(ctx context.Context, key string) (*TokenMetadata, error)
	SetToken(ctx context.Context, key string, token *TokenMetadata, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings the server.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client without pinging it.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetToken returns nil, nil on a miss.
func (c *RedisCache) GetToken(ctx context.Context, key string) (*TokenMetadata, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var token TokenMetadata
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *RedisCache) SetToken(ctx context.Context, key string, token *TokenMetadata, ttl time.Duration) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// TokenCacheKey generates a cache key for token metadata on a chain
func TokenCacheKey(chainID int64, token string) string {
	return fmt.Sprintf("token:%d:%s", chainID, strings.ToLower(token))
}

// InMemoryCache implements Cache in process memory (for tests and single-node use)
type InMemoryCache struct {
	mu     sync.Mutex
	tokens map[string]*cachedToken
	now    func() time.Time
}

type cachedToken struct {
	token     TokenMetadata
	expiresAt time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		tokens: make(map[string]*cachedToken),
		now:    time.Now,
	}
}

func (c *InMemoryCache) GetToken(ctx context.Context, key string) (*TokenMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.tokens[key]; ok {
		if c.now().Before(cached.expiresAt) {
			token := cached.token
			return &token, nil
		}
		delete(c.tokens, key)
	}
	return nil, nil
}

func (c *InMemoryCache) SetToken(ctx context.Context, key string, token *TokenMetadata, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens[key] = &cachedToken{
		token:     *token,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
	return nil
}

func (c *InMemoryCache) Close() error { return nil }
