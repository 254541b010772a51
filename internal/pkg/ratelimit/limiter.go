package ratelimit

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Result reports the outcome of a limiter check.
type Result struct {
	Allowed bool
	// Cap that tripped when Allowed is false: "window" or "daily".
	Exceeded string
}

// Limiter enforces fixed-window request caps per caller identity: a
// short-window cap (e.g. 60/minute) and an independent daily cap. Counters
// live in a go-cache instance whose guarded increments keep concurrent
// bursts from the same identity from undercounting. Counters reset at
// window boundaries because the bucket timestamp is part of the key.
type Limiter struct {
	counters  *gocache.Cache
	perWindow int64
	window    time.Duration
	perDay    int64
	now       func() time.Time
}

type Option func(*Limiter)

// WithClock overrides the time source, used by tests to cross window
// boundaries deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(perWindow int, window time.Duration, perDay int, opts ...Option) *Limiter {
	l := &Limiter{
		// Expired counters are garbage; sweep them out periodically.
		counters:  gocache.New(gocache.NoExpiration, 10*time.Minute),
		perWindow: int64(perWindow),
		window:    window,
		perDay:    int64(perDay),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Allow records one request for identity and reports whether it is within
// both caps. The counter is incremented even when the request will later
// fail downstream; only the check itself decides admission.
func (l *Limiter) Allow(identity string) Result {
	now := l.now().UTC()

	windowKey := fmt.Sprintf("w:%s:%d", identity, now.Unix()/int64(l.window.Seconds()))
	if n := l.increment(windowKey, 2*l.window); n > l.perWindow {
		return Result{Exceeded: "window"}
	}

	dayKey := fmt.Sprintf("d:%s:%s", identity, now.Format("2006-01-02"))
	if n := l.increment(dayKey, 48*time.Hour); n > l.perDay {
		return Result{Exceeded: "daily"}
	}

	return Result{Allowed: true}
}

// increment bumps the counter at key, creating it with the given lifetime
// on first use. Add/IncrementInt64 both take the cache lock, so the
// create-then-increment race between two goroutines resolves to exactly one
// creation and the loser retrying the increment.
func (l *Limiter) increment(key string, ttl time.Duration) int64 {
	for {
		if n, err := l.counters.IncrementInt64(key, 1); err == nil {
			return n
		}
		if err := l.counters.Add(key, int64(1), ttl); err == nil {
			return 1
		}
	}
}
