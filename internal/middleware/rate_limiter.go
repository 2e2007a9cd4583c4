package middleware

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vgl-spec/soil-sub000/internal/apierror"
	"github.com/vgl-spec/soil-sub000/internal/infra"
)

const loginWindow = time.Minute

// LoginRateLimiter caps login attempts per client IP in fixed one-minute
// windows. Counters live in Redis so every instance shares them. A nil client
// or a limit <= 0 disables the limiter. Redis errors let the request through,
// and once br trips the limiter stops calling Redis until it recovers.
func LoginRateLimiter(rdb *redis.Client, limit int, br *infra.Breaker) gin.HandlerFunc {
	if rdb == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:login:%s", c.ClientIP())

		var (
			count int64
			ttl   time.Duration
		)
		err := br.Do(func() error {
			pipe := rdb.Pipeline()
			incr := pipe.Incr(ctx, key)
			ttlCmd := pipe.TTL(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
			count, ttl = incr.Val(), ttlCmd.Val()
			// A key without expiry would block the IP for good; (re)arm the
			// window on every request that finds it missing.
			if ttl < 0 {
				ttl = loginWindow
				return rdb.Expire(ctx, key, loginWindow).Err()
			}
			return nil
		})
		if err != nil {
			if !errors.Is(err, infra.ErrBreakerOpen) {
				log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("rate limiter: redis unavailable")
			}
			c.Next()
			return
		}

		if count > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("Too many login attempts. Try again in a minute."))
			return
		}
		c.Next()
	}
}
