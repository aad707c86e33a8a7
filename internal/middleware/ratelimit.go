package middleware

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a peer exceeds its request budget.
var ErrRateLimited = errors.New("too many requests, try again later")

// RateLimiter keeps a token bucket per peer address for a set of procedures.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*peerLimiter

	rate       rate.Limit
	burst      int
	procedures map[string]bool
	metrics    *Metrics
	now        func() time.Time
}

type peerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter limits each peer to perSecond calls with the given burst on the
// listed procedures. Other procedures pass through.
func NewRateLimiter(perSecond float64, burst int, procedures ...string) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		limiters:   make(map[string]*peerLimiter),
		rate:       rate.Limit(perSecond),
		burst:      burst,
		procedures: make(map[string]bool, len(procedures)),
		now:        time.Now,
	}
	for _, p := range procedures {
		rl.procedures[p] = true
	}
	return rl
}

// WithMetrics counts rejections on m.
func (rl *RateLimiter) WithMetrics(m *Metrics) *RateLimiter {
	rl.metrics = m
	return rl
}

// Allow reports whether peer may make another call now.
func (rl *RateLimiter) Allow(peer string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	pl, ok := rl.limiters[peer]
	if !ok {
		pl = &peerLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[peer] = pl
	}
	pl.lastSeen = now
	return pl.limiter.AllowN(now, 1)
}

// Cleanup drops peers idle for longer than maxIdle and returns how many were removed.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	removed := 0
	for peer, pl := range rl.limiters {
		if pl.lastSeen.Before(cutoff) {
			delete(rl.limiters, peer)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(maxIdle)
		}
	}
}

// Interceptor rejects calls over budget with CodeResourceExhausted.
func (rl *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			if !rl.procedures[procedure] {
				return next(ctx, req)
			}
			if !rl.Allow(peerHost(req.Peer().Addr)) {
				if rl.metrics != nil {
					rl.metrics.Rejected.WithLabelValues(procedure).Inc()
				}
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}

// peerHost strips the port so every connection from one host shares a bucket.
func peerHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
