package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/hotel-quote-bot/internal/admission"
	appconfig "github.com/wolfman30/hotel-quote-bot/internal/config"
	"github.com/wolfman30/hotel-quote-bot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, using in-memory processed ids", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildProcessedIDs picks the Redis-backed cache when a client is available.
func BuildProcessedIDs(client *redis.Client, cfg *appconfig.Config) admission.ProcessedIDs {
	if client == nil {
		return admission.NewMemoryProcessedIDs(cfg.ProcessedCacheMax)
	}
	return admission.NewRedisProcessedIDs(client, "", cfg.ProcessedCacheMax, cfg.ConversationTTL)
}
