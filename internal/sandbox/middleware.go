package sandbox

import (
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/logging"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	ctxAccountID = "account_id"
	ctxToken     = "token"
)

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func abortMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// requireAccessToken admits requests carrying a valid, unexpired JWT issued
// by this server and stores the account id in the gin context.
func (s *Server) requireAccessToken(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		abortMessage(c, http.StatusUnauthorized, "missing bearer token")
		return
	}

	claims, err := s.issuer.Parse(token)
	if err != nil {
		s.logger.Debug(c.Request.Context(), "access token rejected", "error", err)
		abortMessage(c, http.StatusUnauthorized, "invalid access token")
		return
	}

	c.Set(ctxAccountID, claims.AccountID)
	c.Set(ctxToken, token)
	c.Next()
}

// rateLimiter throttles each access token separately. A rejected request is
// answered with 429 and the whole seconds until the next token is available.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func newRateLimiter(rps float64, burst int, now func() time.Time) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		limiters: map[string]*rate.Limiter{},
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      now,
	}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// retryAfter reports whether a request may pass now and, if not, how many
// seconds the caller should wait.
func (rl *rateLimiter) retryAfter(key string) (int64, bool) {
	now := rl.now()
	r := rl.get(key).ReserveN(now, 1)
	if !r.OK() {
		return 1, false
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return 0, true
	}
	r.CancelAt(now)
	return int64(math.Ceil(delay.Seconds())), false
}

func (rl *rateLimiter) middleware(c *gin.Context) {
	key := c.GetString(ctxToken)
	if wait, ok := rl.retryAfter(key); !ok {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"retryAfter": wait})
		return
	}
	c.Next()
}

// requestLogger logs one line per request after it completes.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
