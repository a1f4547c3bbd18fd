package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SetStore keeps small string sets per key. It backs presentation state
// such as the badges a user has already been shown.
type SetStore interface {
	Members(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, members ...string) error
	Close() error
}

// NewSetStore returns a set store for the configured provider
func NewSetStore(config *Config, logger *zap.Logger) (SetStore, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(config.Provider) {
	case "redis":
		client, err := newRedisClient(config)
		if err != nil {
			return nil, err
		}
		logger.Info("Redis set store initialized")
		return &redisSetStore{client: client}, nil
	case "memory", "":
		return NewMemorySetStore(), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", config.Provider)
	}
}

type memorySetStore struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

// NewMemorySetStore creates a process-local set store
func NewMemorySetStore() SetStore {
	return &memorySetStore{sets: make(map[string]map[string]struct{})}
}

func (s *memorySetStore) Members(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

func (s *memorySetStore) Add(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	if set == nil {
		set = make(map[string]struct{}, len(members))
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *memorySetStore) Close() error { return nil }

type redisSetStore struct {
	client *redis.Client
}

func (s *redisSetStore) Members(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *redisSetStore) Add(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	values := make([]interface{}, len(members))
	for i, m := range members {
		values[i] = m
	}
	return s.client.SAdd(ctx, key, values...).Err()
}

func (s *redisSetStore) Close() error {
	return s.client.Close()
}
