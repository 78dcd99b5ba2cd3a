package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const defaultTokenKey = "fieldservice:calendar:token"

// TokenStore persists the single calendar token across restarts.
type TokenStore interface {
	// Load returns nil, nil when no token has been saved.
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, token *oauth2.Token) error
	Clear(ctx context.Context) error
}

// RedisTokenStore keeps the token as JSON under one key.
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

// NewRedisTokenStore uses key, or a default when key is empty.
func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = defaultTokenKey
	}
	return &RedisTokenStore{client: client, key: key}
}

func (s *RedisTokenStore) Load(ctx context.Context) (*oauth2.Token, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load calendar token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode calendar token: %w", err)
	}
	return &token, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, raw, 0).Err()
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// MemoryTokenStore is used when Redis is not configured.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token *oauth2.Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return nil, nil
	}
	copied := *s.token
	return &copied, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.token = &copied
	return nil
}

func (s *MemoryTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	return nil
}
