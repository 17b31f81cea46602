package gateway

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Remembers webhook message ids, WhatsApp redelivers messages it considers unacknowledged
type Dedup interface {
	// True if the id wasn't seen before
	MarkSeen(ctx context.Context, id string) (bool, error)
	Close() error
}

func NewDedup(config *config.Config) Dedup {
	if config.Redis.IsEnabled() {
		return NewRedisDedup(config)
	}
	return NewLocalDedup(config.Gateway.DedupTTL)
}

// Shared by all gateway instances
type RedisDedup struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisDedup(config *config.Config) (self *RedisDedup) {
	self = new(RedisDedup)
	self.keyPrefix = "ingestor:webhook:"
	self.ttl = config.Gateway.DedupTTL
	self.client = redis.NewClient(&redis.Options{
		Addr:            net.JoinHostPort(config.Redis.Host, strconv.Itoa(int(config.Redis.Port))),
		Username:        config.Redis.User,
		Password:        config.Redis.Password,
		DB:              config.Redis.DB,
		MinIdleConns:    config.Redis.MinIdleConns,
		MaxIdleConns:    config.Redis.MaxIdleConns,
		ConnMaxIdleTime: config.Redis.ConnMaxIdleTime,
		ConnMaxLifetime: config.Redis.ConnMaxLifetime,
	})
	return
}

func (self *RedisDedup) MarkSeen(ctx context.Context, id string) (bool, error) {
	return self.client.SetNX(ctx, self.keyPrefix+id, "1", self.ttl).Result()
}

func (self *RedisDedup) Close() error {
	return self.client.Close()
}

// Per process, used when there's no redis
type LocalDedup struct {
	cache *cache.Cache
}

func NewLocalDedup(ttl time.Duration) (self *LocalDedup) {
	self = new(LocalDedup)
	self.cache = cache.New(ttl, 2*ttl)
	return
}

func (self *LocalDedup) MarkSeen(ctx context.Context, id string) (bool, error) {
	// Add fails if the key exists
	return self.cache.Add(id, struct{}{}, cache.DefaultExpiration) == nil, nil
}

func (self *LocalDedup) Close() error {
	return nil
}
