package middleware

import (
	"net/http"
	"strconv"
	"time"

	"lingo_xp/internal/dto"

	"github.com/gin-gonic/gin"
)

// XPRateLimit limits XP writes per user (not per IP) using Redis.
// Uses the user id set by JWT, so it must run after it.
func XPRateLimit(maxCalls int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "unauthorized"})
			return
		}

		key := "xp_rl:" + userID + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		if !allowRedis(c, key, maxCalls, window, "X-XPRateLimit", "xp:"+c.FullPath()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     "xp rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}
		c.Next()
	}
}
