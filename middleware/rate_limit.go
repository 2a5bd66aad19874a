package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sirupsen/logrus"

	"groscales/config"
	"groscales/utils"
)

// SendRateLimiter caps ad hoc sends per user per minute. storage may be
// nil, in which case the limiter keeps counters in process memory.
func SendRateLimiter(max int, storage fiber.Storage, logger logrus.FieldLogger) fiber.Handler {
	if max < 1 {
		max = 1
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return sendRateLimitKey(CurrentUserID(c), c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			utils.LogEvent(logger, "rate_limit_hit", map[string]interface{}{
				"user_id":    CurrentUserID(c),
				"endpoint":   c.Path(),
				"ip":         c.IP(),
				"user_agent": c.Get("User-Agent"),
			})

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many messages sent. Please wait before sending again.",
				"retry_after": "1 minute",
			})
		},
		Storage: storage,
	})
}

func sendRateLimitKey(userID uint, ip string) string {
	if userID == 0 {
		return "rl:send:ip:" + ip
	}
	return fmt.Sprintf("rl:send:%d", userID)
}

// NewRateLimitStorage returns Redis-backed storage when Redis is enabled.
func NewRateLimitStorage(cfg config.RedisConfig) fiber.Storage {
	if cfg.Enabled {
		return NewRedisStorage(cfg)
	}
	return nil
}

// RedisStorage implements fiber.Storage for Redis
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(cfg config.RedisConfig) *RedisStorage {
	return &RedisStorage{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Get returns nil without error for a missing key, as fiber.Storage expects.
func (r *RedisStorage) Get(key string) ([]byte, error) {
	val, err := r.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return r.client.Set(context.Background(), key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

func (r *RedisStorage) Reset() error {
	return r.client.FlushDB(context.Background()).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
