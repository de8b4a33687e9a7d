package httpx

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"
)

// RateLimitConfig allows Requests per Window with bursts up to Burst.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Limit returns the token refill rate.
func (c RateLimitConfig) Limit() rate.Limit {
	if c.Requests <= 0 || c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.Requests) / c.Window.Seconds())
}

var (
	// StrictLimit covers job triggers.
	StrictLimit = RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 5}
	// ModerateLimit covers authenticated reads.
	ModerateLimit = RateLimitConfig{Requests: 60, Window: time.Minute, Burst: 20}
	// LenientLimit covers health probes.
	LenientLimit = RateLimitConfig{Requests: 300, Window: time.Minute, Burst: 50}
	// PublicLimit covers static documentation.
	PublicLimit = RateLimitConfig{Requests: 1000, Window: time.Minute, Burst: 100}
)

// LoadRateLimitsFromEnv overrides the tiers from RATELIMIT_<TIER>_* variables.
// WINDOW_SEC is read in whole seconds.
func LoadRateLimitsFromEnv() error {
	tiers := []struct {
		name string
		cfg  *RateLimitConfig
	}{
		{"STRICT", &StrictLimit},
		{"MODERATE", &ModerateLimit},
		{"LENIENT", &LenientLimit},
		{"PUBLIC", &PublicLimit},
	}
	for _, t := range tiers {
		var raw struct {
			Requests  int `env:"REQUESTS"`
			WindowSec int `env:"WINDOW_SEC"`
			Burst     int `env:"BURST"`
		}
		if err := env.ParseWithOptions(&raw, env.Options{Prefix: "RATELIMIT_" + t.name + "_"}); err != nil {
			return fmt.Errorf("rate limit %s: %w", t.name, err)
		}
		if raw.Requests > 0 {
			t.cfg.Requests = raw.Requests
		}
		if raw.WindowSec > 0 {
			t.cfg.Window = time.Duration(raw.WindowSec) * time.Second
		}
		if raw.Burst > 0 {
			t.cfg.Burst = raw.Burst
		}
	}
	return nil
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiter hands out one token bucket per key and evicts idle ones.
type keyedLimiter struct {
	cfg RateLimitConfig

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	idle      time.Duration
}

func newKeyedLimiter(cfg RateLimitConfig) *keyedLimiter {
	idle := 10 * cfg.Window
	if idle < time.Minute {
		idle = time.Minute
	}
	return &keyedLimiter{
		cfg:       cfg,
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
		idle:      idle,
	}
}

func (k *keyedLimiter) get(key string, now time.Time) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	if now.Sub(k.lastSweep) > k.idle {
		for key, v := range k.visitors {
			if now.Sub(v.lastSeen) > k.idle {
				delete(k.visitors, key)
			}
		}
		k.lastSweep = now
	}

	v, ok := k.visitors[key]
	if !ok {
		burst := k.cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		v = &visitor{limiter: rate.NewLimiter(k.cfg.Limit(), burst)}
		k.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (k *keyedLimiter) middleware(keyFn func(*http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			lim := k.get(keyFn(r), now)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(k.cfg.Requests))
			res := lim.ReserveN(now, 1)
			if !res.OK() {
				tooMany(w, k.cfg.Window)
				return
			}
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)
				tooMany(w, delay)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tooMany(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
}

// RateLimitByIP limits requests per client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return newKeyedLimiter(cfg).middleware(func(r *http.Request) string {
		return "ip:" + GetRemoteIP(r)
	})
}

// RateLimitByUser limits requests per authenticated subject, falling back to
// the client address. Must run after AuthnMiddleware.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return newKeyedLimiter(cfg).middleware(func(r *http.Request) string {
		if sub, ok := r.Context().Value(CtxKeyUserID).(string); ok && sub != "" {
			return "user:" + sub
		}
		return "ip:" + GetRemoteIP(r)
	})
}
