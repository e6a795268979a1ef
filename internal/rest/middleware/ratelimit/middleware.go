package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/openkeyhub/governance/internal/rest/middleware/auth"
	"github.com/openkeyhub/governance/internal/rest/response"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/openkeyhub/governance/pkg/utils"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	errBlocked    = "temporarily blocked for repeated rate limit violations"
	errRateLimit  = "rate limit exceeded"
	headerRetryAt = "Retry-After"
)

type limiterState struct {
	mu           sync.Mutex
	limiter      *rate.Limiter
	strikes      int       // Consecutive rejected requests
	blockedUntil time.Time // Set once strikes reach the limit
}

// Middleware limits requests per principal, or per remote IP for anonymous callers.
// Clients that keep hitting the limit are blocked for a while.
type Middleware struct {
	limiters *utils.TTLMap[string, *limiterState]
	config   *config.API
	now      func() time.Time
	logger   *zap.Logger
}

// New creates the rate limiting middleware. Close releases its janitor.
func New(config *config.API, logger *zap.Logger) *Middleware {
	ttl := 2 * config.BlockDuration
	if config.RateLimit > 0 {
		if refill := time.Duration(float64(config.RateBurst) / config.RateLimit * float64(time.Second)); 2*refill > ttl {
			ttl = 2 * refill
		}
	}
	ttl = max(ttl, time.Minute)

	return &Middleware{
		limiters: utils.NewTTLMap[string, *limiterState](ttl),
		config:   config,
		now:      time.Now,
		logger:   logger.Named("rest_ratelimit"),
	}
}

// Close stops background eviction.
func (m *Middleware) Close() {
	m.limiters.Close()
}

// AsRESTMiddleware returns a bunrouter middleware handler. It must run after authentication.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		key := clientKey(req)
		if allowed, retryAfter, message := m.check(key); !allowed {
			if retryAfter > 0 {
				w.Header().Set(headerRetryAt, fmt.Sprintf("%.0f", math.Ceil(retryAfter.Seconds())))
			}
			return response.Problem(w, http.StatusTooManyRequests, response.CodeRateLimited, message)
		}
		return next(w, req)
	}
}

func clientKey(req bunrouter.Request) string {
	if principal := auth.Principal(req.Context()); principal != "" {
		return "principal:" + principal
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	return "ip:" + host
}

func (m *Middleware) check(key string) (bool, time.Duration, string) {
	state := m.limiters.GetOrCreate(key, func() *limiterState {
		return &limiterState{
			limiter: rate.NewLimiter(rate.Limit(m.config.RateLimit), m.config.RateBurst),
		}
	})

	state.mu.Lock()
	defer state.mu.Unlock()

	now := m.now()
	if now.Before(state.blockedUntil) {
		return false, state.blockedUntil.Sub(now), errBlocked
	}

	reservation := state.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return m.strike(state, key, now, 0)
	}

	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return m.strike(state, key, now, delay)
	}

	state.strikes = 0
	return true, 0, ""
}

// strike records a rejected request and blocks the client once the strike limit is reached.
func (m *Middleware) strike(state *limiterState, key string, now time.Time, delay time.Duration) (bool, time.Duration, string) {
	state.strikes++

	if m.config.StrikeLimit > 0 && state.strikes >= m.config.StrikeLimit {
		state.strikes = 0
		state.blockedUntil = now.Add(m.config.BlockDuration)

		m.logger.Debug("Client exceeded strike limit and is now blocked",
			zap.String("client", key),
			zap.Duration("blockDuration", m.config.BlockDuration))

		return false, m.config.BlockDuration, errBlocked
	}

	m.logger.Debug("Rate limit exceeded",
		zap.String("client", key),
		zap.Int("strikes", state.strikes))

	return false, delay, errRateLimit
}
