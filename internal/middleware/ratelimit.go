package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/varsilias/ollama-studio/pkg/utils"
)

// tokenBucket refills rate tokens per second up to capacity and takes
// requested tokens atomically. Returns {allowed, remaining, retry_after}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'updated_at')
local tokens = tonumber(bucket[1])
local updated_at = tonumber(bucket[2])

if tokens == nil or updated_at == nil then
    tokens = capacity
    updated_at = now
end

local elapsed = math.max(0, now - updated_at)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
local retry_after = 0

if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
else
    retry_after = (requested - tokens) / rate
end

redis.call('HSET', key, 'tokens', tokens, 'updated_at', now)
redis.call('EXPIRE', key, 3600)

return {allowed, math.floor(tokens), math.ceil(retry_after)}
`)

// RateLimit limits generation requests per client IP with a Redis token
// bucket of capacity 2*qps. When Redis is unavailable requests pass through.
func RateLimit(rdb *redis.Client, qps int, logger *slog.Logger) func(http.Handler) http.Handler {
	capacity := 2 * qps
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rate_limit:" + remoteIP(r.RemoteAddr)
			now := float64(time.Now().UnixNano()) / 1e9

			res, err := tokenBucket.Run(r.Context(), rdb, []string{key}, capacity, qps, now, 1).Int64Slice()
			if err != nil || len(res) < 3 {
				logger.Warn("rate limiter unavailable, letting request through", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(capacity))
			if res[0] == 0 {
				w.Header().Set("Retry-After", strconv.FormatInt(res[2], 10))
				utils.Error(w, http.StatusTooManyRequests, "too many requests, slow down and try again")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			next.ServeHTTP(w, r)
		})
	}
}
