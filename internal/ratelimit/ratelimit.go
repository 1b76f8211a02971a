package ratelimit

import (
	"context"
	mathrand "math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hxcodewarrior/ctripcrawler/internal/proxy"
)

// Limiter throttles outbound requests. Every call to Wait blocks for a token
// from the bucket and then for a random delay inside the configured range,
// which keeps the request pattern irregular enough to lower the ban risk.
type Limiter struct {
	delayMin time.Duration
	delayMax time.Duration
	bucket   *rate.Limiter
	proxies  *proxy.Manager

	mu       sync.Mutex
	rnd      *mathrand.Rand
	requests int
}

// NewLimiter creates a limiter. requestsPerSecond bounds the steady-state
// rate; delayMin/delayMax add per-request jitter on top. proxies may be nil.
func NewLimiter(requestsPerSecond float64, delayMin, delayMax time.Duration, proxies *proxy.Manager) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Limiter{
		delayMin: delayMin,
		delayMax: delayMax,
		bucket:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		proxies:  proxies,
		rnd:      mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks until the next request may be issued or the context is done
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}

	delay := l.jitter()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Proxy returns a random proxy for the next request, or nil when rotation
// is not configured
func (l *Limiter) Proxy() *proxy.Info {
	if l.proxies == nil || l.proxies.Size() == 0 {
		return nil
	}
	return l.proxies.Random()
}

// Requests returns how many waits have completed so far
func (l *Limiter) Requests() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requests
}

func (l *Limiter) jitter() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests++
	if l.delayMax <= l.delayMin {
		return l.delayMin
	}
	return l.delayMin + time.Duration(l.rnd.Int63n(int64(l.delayMax-l.delayMin)))
}
