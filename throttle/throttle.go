// Package throttle implements the token-bucket request limiter (spec
// §4.4): one bucket per key (typically a connection's remote endpoint),
// lazily refilled on each check, with an optional lockout window once a
// key's denial count crosses a threshold.
//
// Grounded on the teacher's sharded-map concurrency pattern (one mutex per
// bucket rather than a single global lock) and hk-driven periodic sweep.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package throttle

import (
	"sync"
	"time"

	"github.com/nalix-net/nalix/uid/xoshiro256"
)

// Config parameterizes the limiter.
type Config struct {
	MaxTokens       int
	RefillInterval  time.Duration
	TokensPerRefill int
	LockoutDuration time.Duration
	// DenialsBeforeLockout is the consecutive-denial count within one
	// RefillInterval window that triggers a lockout. Zero disables
	// lockout entirely.
	DenialsBeforeLockout int
}

// Decision is Check's result.
type Decision struct {
	Allowed      bool
	RetryAfterMs int64
	Remaining    int
}

type bucket struct {
	mu           sync.Mutex
	tokens       int
	lastRefill   time.Time
	denials      int
	blockedUntil time.Time
	jitter       *xoshiro256.Source
}

// Limiter is a sharded map of per-key token buckets.
type Limiter struct {
	cfg  Config
	mu   sync.RWMutex
	keys map[string]*bucket
}

// New builds a Limiter from cfg.
func New(cfg Config) *Limiter {
	return &Limiter{cfg: cfg, keys: make(map[string]*bucket)}
}

func (l *Limiter) bucketFor(key string) *bucket {
	l.mu.RLock()
	b, ok := l.keys[key]
	l.mu.RUnlock()
	if ok {
		return b
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.keys[key]; ok {
		return b
	}
	b = &bucket{tokens: l.cfg.MaxTokens, lastRefill: time.Now()}
	l.keys[key] = b
	return b
}

// Check applies the lazy-refill algorithm and returns Allowed plus, when
// denied, a retry-after hint and remaining credit.
func (l *Limiter) Check(key string) Decision {
	b := l.bucketFor(key)
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.blockedUntil.IsZero() && now.Before(b.blockedUntil) {
		return Decision{Allowed: false, RetryAfterMs: b.blockedUntil.Sub(now).Milliseconds()}
	}

	elapsed := now.Sub(b.lastRefill)
	if refills := int(elapsed / l.cfg.RefillInterval); refills > 0 {
		b.tokens += refills * l.cfg.TokensPerRefill
		if b.tokens > l.cfg.MaxTokens {
			b.tokens = l.cfg.MaxTokens
		}
		b.lastRefill = now
		b.denials = 0
	}

	if b.tokens > 0 {
		b.tokens--
		return Decision{Allowed: true, Remaining: b.tokens}
	}

	sinceRefill := now.Sub(b.lastRefill)
	retryAfter := l.cfg.RefillInterval - (sinceRefill % l.cfg.RefillInterval)

	b.denials++
	if l.cfg.DenialsBeforeLockout > 0 && b.denials >= l.cfg.DenialsBeforeLockout {
		if b.jitter == nil {
			b.jitter = xoshiro256.NewSource(xoshiro256.Hash(uint64(now.UnixNano())))
		}
		jitterMs := b.jitter.Jitter(int64(l.cfg.LockoutDuration / time.Millisecond / 4))
		b.blockedUntil = now.Add(l.cfg.LockoutDuration + time.Duration(jitterMs)*time.Millisecond)
		retryAfter = b.blockedUntil.Sub(now)
	}
	return Decision{Allowed: false, RetryAfterMs: retryAfter.Milliseconds()}
}

// Sweep removes keys whose bucket is full and unblocked, intended for
// periodic registration via hk.Reg so the map doesn't grow unbounded with
// one-shot clients.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for k, b := range l.keys {
		b.mu.Lock()
		idle := b.tokens == l.cfg.MaxTokens && (b.blockedUntil.IsZero() || now.After(b.blockedUntil))
		b.mu.Unlock()
		if idle {
			delete(l.keys, k)
		}
	}
}
