package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"lingo_xp/internal/dto"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter sets the shared Redis client used by the limiters.
// A nil client makes RateLimit fall back to the in-process limiter and
// XPRateLimit fail open.
func InitRedisRateLimiter(client *redis.Client) {
	redisClient = client
}

// RedisRateLimit implements a simple fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<window_seconds>:<identifier>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		if !allowRedis(c, key, maxRequests, window, "X-RateLimit", c.FullPath()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{Message: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RateLimit uses Redis when configured and the in-process limiter otherwise
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	redisLimiter := RedisRateLimit(maxRequests, window)
	localLimiter := SimpleRateLimit(maxRequests, window)
	return func(c *gin.Context) {
		if redisClient != nil {
			redisLimiter(c)
			return
		}
		localLimiter(c)
	}
}

// allowRedis counts one hit on key and reports whether it is within max.
// Redis errors fail open.
func allowRedis(c *gin.Context, key string, max int, window time.Duration, headerPrefix, endpoint string) bool {
	ctx := context.Background()

	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		c.Header(headerPrefix+"-Error", "redis-error")
		return true
	}

	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}

	c.Header(headerPrefix+"-Limit", strconv.Itoa(max))
	c.Header(headerPrefix+"-Remaining", strconv.FormatInt(maxInt64(0, int64(max)-val), 10))

	if val > int64(max) {
		RLBlocked.WithLabelValues(endpoint).Inc()
		return false
	}

	RLRequests.WithLabelValues(endpoint).Inc()
	return true
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
