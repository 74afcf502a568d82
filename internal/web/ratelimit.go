// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package web

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Default login limiter values.
const (
	// DefaultLoginRate is the sustained number of login attempts per second
	// allowed for one client.
	DefaultLoginRate = 1.0

	// DefaultLoginBurst is the number of attempts a client may make at once.
	DefaultLoginBurst = 5

	// DefaultLimiterCleanupInterval is how often idle clients are dropped.
	DefaultLimiterCleanupInterval = 5 * time.Minute

	// DefaultLimiterMaxIdle is how long a client may stay silent before its
	// bucket is dropped.
	DefaultLimiterMaxIdle = 30 * time.Minute
)

// LoginLimiterConfig configures a LoginLimiter.
type LoginLimiterConfig struct {
	// Rate is the sustained attempts per second. Defaults to DefaultLoginRate
	// if zero or negative.
	Rate float64

	// Burst is the bucket size. Defaults to DefaultLoginBurst if zero or negative.
	Burst int

	// CleanupInterval defaults to DefaultLimiterCleanupInterval if zero.
	CleanupInterval time.Duration

	// MaxIdle defaults to DefaultLimiterMaxIdle if zero.
	MaxIdle time.Duration
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter throttles login attempts per client key (the remote IP).
// It is safe for concurrent use.
//
// A background goroutine drops idle clients. Call Close to stop it.
type LoginLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
	maxIdle time.Duration
	now     func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup

	clientGauge prometheus.Gauge
}

// NewLoginLimiter creates a limiter and starts its cleanup goroutine.
// When reg is non-nil a gauge of tracked clients is registered with it.
func NewLoginLimiter(cfg LoginLimiterConfig, reg prometheus.Registerer) *LoginLimiter {
	limit := cfg.Rate
	if limit <= 0 {
		limit = DefaultLoginRate
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultLoginBurst
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = DefaultLimiterCleanupInterval
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = DefaultLimiterMaxIdle
	}

	l := &LoginLimiter{
		clients:  make(map[string]*clientBucket),
		limit:    rate.Limit(limit),
		burst:    burst,
		maxIdle:  maxIdle,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	if reg != nil {
		l.clientGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventra_login_limiter_clients",
			Help: "Current number of clients tracked by the login limiter",
		})
		reg.MustRegister(l.clientGauge)
	}

	l.wg.Add(1)
	go l.cleanupLoop(interval)

	return l
}

// Allow consumes one attempt for key. When the attempt is refused it
// returns the wait until the next one would be accepted.
func (l *LoginLimiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.clients[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = bucket
	}
	bucket.lastSeen = now

	reservation := bucket.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// ClientCount returns the number of tracked clients.
func (l *LoginLimiter) ClientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Cleanup drops clients not seen within maxIdle.
func (l *LoginLimiter) Cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := l.now().Add(-maxIdle)
	for key, bucket := range l.clients {
		if bucket.lastSeen.Before(threshold) {
			delete(l.clients, key)
		}
	}

	if l.clientGauge != nil {
		l.clientGauge.Set(float64(len(l.clients)))
	}
}

func (l *LoginLimiter) cleanupLoop(interval time.Duration) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.Cleanup(l.maxIdle)
		}
	}
}

// Close stops the cleanup goroutine. It blocks until the goroutine exits.
func (l *LoginLimiter) Close() {
	close(l.stopChan)
	l.wg.Wait()
}
