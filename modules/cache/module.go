package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

// Module provides the read cache as a mono module. When REDIS_ADDR is unset
// the module stays disabled and hands out a no-op cache.
type Module struct {
	client    *redis.Client
	cache     Service
	redisAddr string
	prefix    string
	ttl       time.Duration
}

var _ mono.Module = (*Module)(nil)

// NewModule creates a new cache module configured from the environment.
func NewModule() *Module {
	ttl := defaultTTL
	if raw := os.Getenv("REDIS_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			ttl = parsed
		}
	}
	return &Module{
		redisAddr: os.Getenv("REDIS_ADDR"),
		prefix:    "tasks:",
		ttl:       ttl,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start connects to Redis, or leaves the no-op cache in place when no address
// is configured.
func (m *Module) Start(ctx context.Context) error {
	if m.redisAddr == "" {
		m.cache = Noop{}
		log.Println("[cache] REDIS_ADDR not set, read cache disabled")
		return nil
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.cache = New(m.client, m.prefix, m.ttl)
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.redisAddr, m.prefix, m.ttl)
	return nil
}

// Stop closes the Redis connection if one was opened.
func (m *Module) Stop(_ context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("[cache] Redis connection closed")
	return nil
}

// Cache returns the active cache service. Safe to call before Start: callers
// get the no-op cache until a connection is established.
func (m *Module) Cache() Service {
	if m.cache == nil {
		return Noop{}
	}
	return m.cache
}
