package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// SecurityHeadersMiddleware sets the headers every API response carries.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// LoginThrottle limits failed login attempts per client IP and username.
type LoginThrottle struct {
	attempts        *cache.Cache
	locks           *cache.Cache
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
}

type ThrottleConfig struct {
	MaxAttempts     int           // Failures before lockout (default: 5)
	WindowDuration  time.Duration // Window for counting failures (default: 15m)
	LockoutDuration time.Duration // Lockout after max failures (default: 15m)
}

func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		MaxAttempts:     5,
		WindowDuration:  15 * time.Minute,
		LockoutDuration: 15 * time.Minute,
	}
}

func NewLoginThrottle(cfg ThrottleConfig) *LoginThrottle {
	defaults := DefaultThrottleConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = defaults.WindowDuration
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaults.LockoutDuration
	}

	return &LoginThrottle{
		attempts:        cache.New(cfg.WindowDuration, cfg.WindowDuration),
		locks:           cache.New(cfg.LockoutDuration, cfg.LockoutDuration),
		maxAttempts:     cfg.MaxAttempts,
		windowDuration:  cfg.WindowDuration,
		lockoutDuration: cfg.LockoutDuration,
	}
}

func throttleKey(ip, username string) string {
	return ip + ":" + username
}

// Allow reports whether a login attempt may proceed and, if not, for how long
// the lockout lasts.
func (t *LoginThrottle) Allow(ip, username string) (bool, time.Duration) {
	_, until, locked := t.locks.GetWithExpiration(throttleKey(ip, username))
	if !locked {
		return true, 0
	}
	return false, time.Until(until).Round(time.Second)
}

// RecordFailure counts a failed attempt and reports whether it triggered a lockout.
func (t *LoginThrottle) RecordFailure(ip, username string) bool {
	key := throttleKey(ip, username)
	if err := t.attempts.Add(key, 1, cache.DefaultExpiration); err != nil {
		if _, err := t.attempts.IncrementInt(key, 1); err != nil {
			t.attempts.Set(key, 1, cache.DefaultExpiration)
		}
	}

	count, _ := t.attempts.Get(key)
	if n, ok := count.(int); ok && n >= t.maxAttempts {
		t.locks.Set(key, true, cache.DefaultExpiration)
		t.attempts.Delete(key)
		return true
	}
	return false
}

// RecordSuccess clears the failure count.
func (t *LoginThrottle) RecordSuccess(ip, username string) {
	t.attempts.Delete(throttleKey(ip, username))
}
