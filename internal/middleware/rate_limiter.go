package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
)

// ── Fixed-window limiter ──────────────────────────────────────────────────────

// ventana tracks requests of one IP within the current window.
type ventana struct {
	count     int
	windowEnd time.Time
}

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	entradas map[string]*ventana
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{limit: limit, window: window, now: time.Now, entradas: make(map[string]*ventana)}
}

// Allow counts one request for key. When the limit is exceeded it returns
// false and the end of the current window.
func (l *Limiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.entradas[key]
	if !ok || now.After(v.windowEnd) {
		v = &ventana{windowEnd: now.Add(l.window)}
		l.entradas[key] = v
	}
	v.count++
	return v.count <= l.limit, v.windowEnd
}

// Purge drops expired windows and returns how many were removed.
func (l *Limiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for k, v := range l.entradas {
		if now.After(v.windowEnd) {
			delete(l.entradas, k)
			n++
		}
	}
	return n
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entradas)
}

// Middleware rejects requests over the limit with 429 and msg.
func (l *Limiter) Middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, hasta := l.Allow(c.ClientIP())
		if !ok {
			segundos := int(time.Until(hasta).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(segundos))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// ── Shared limiters ───────────────────────────────────────────────────────────

var (
	loginLimiter = NewLimiter(20, time.Minute)
	apiLimiters  []*Limiter
	apiMu        sync.Mutex
)

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return loginLimiter.Middleware("Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter returns a general-purpose per-IP limiter.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := NewLimiter(limit, window)
	apiMu.Lock()
	apiLimiters = append(apiLimiters, l)
	apiMu.Unlock()
	return l.Middleware("Demasiadas solicitudes. Intente nuevamente en un momento.")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically removes expired windows so IPs that never return do not pile up.

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		purgedLogin := loginLimiter.Purge()

		purgedAPI := 0
		apiMu.Lock()
		for _, l := range apiLimiters {
			purgedAPI += l.Purge()
		}
		apiMu.Unlock()

		if purgedLogin > 0 || purgedAPI > 0 {
			log.Debug().
				Int("login_entries_purged", purgedLogin).
				Int("api_entries_purged", purgedAPI).
				Int("login_entries_remaining", loginLimiter.Len()).
				Msg("rate limiter maps purged")
		}
	}
}
