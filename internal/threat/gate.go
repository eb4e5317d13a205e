// Package threat classifies the risk of an inbound login attempt from
// the recent failure density of its origin IP. Counters live in Redis
// with a rolling window; classification has no side effects.
package threat

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Tier is the coarse risk classification of an origin.
type Tier uint8

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "Low"
	case TierMedium:
		return "Medium"
	case TierHigh:
		return "High"
	case TierCritical:
		return "Critical"
	}
	return "Unknown"
}

// Blocking reports whether the tier requires refusing login outright.
func (t Tier) Blocking() bool {
	return t >= TierHigh
}

// Failure counts at which the tier escalates. Monotonic by
// construction: more failures never yield a lower tier.
const (
	mediumThreshold   = 5
	highThreshold     = 10
	criticalThreshold = 20
)

// DefaultWindow is the trailing period over which failures count.
const DefaultWindow = 15 * time.Minute

// Gate classifies login attempts and accumulates failure evidence.
type Gate interface {
	// Classify returns the risk tier for the origin IP.
	Classify(ctx context.Context, ip string) Tier
	// RecordFailure notes one failed login attempt from the origin.
	RecordFailure(ctx context.Context, ip string) error
}

// ErrGateUnavailable indicates the counter backend is unreachable.
var ErrGateUnavailable = errors.New("threat counter backend unavailable")

// RedisGate counts per-IP failures with INCR and a window-length TTL
// set on the first failure, so the counter self-resets.
//
// When the backend cannot be read the gate fails closed to TierMedium:
// logins proceed (Medium does not block), but the gate never silently
// reports Low while blind.
type RedisGate struct {
	redis  redis.UniversalClient
	window time.Duration
	log    zerolog.Logger
}

// NewRedisGate wires a gate over an established Redis client. window
// defaults to DefaultWindow when zero.
func NewRedisGate(client redis.UniversalClient, window time.Duration, log zerolog.Logger) *RedisGate {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisGate{redis: client, window: window, log: log}
}

func (g *RedisGate) key(ip string) string {
	return "threat:ip:" + ip
}

// Classify maps the current window's failure count onto a tier.
func (g *RedisGate) Classify(ctx context.Context, ip string) Tier {
	if ip == "" {
		return TierMedium
	}

	count, err := g.redis.Get(ctx, g.key(ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return TierLow
		}
		g.log.Warn().Err(err).Str("ip", ip).Msg("threat counter read failed, failing closed to Medium")
		return TierMedium
	}

	switch {
	case count >= criticalThreshold:
		return TierCritical
	case count >= highThreshold:
		return TierHigh
	case count >= mediumThreshold:
		return TierMedium
	}
	return TierLow
}

// RecordFailure increments the origin's counter, starting the rolling
// window on the first failure.
func (g *RedisGate) RecordFailure(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}

	count, err := g.redis.Incr(ctx, g.key(ip)).Result()
	if err != nil {
		return errors.Join(ErrGateUnavailable, err)
	}
	if count == 1 {
		if err := g.redis.Expire(ctx, g.key(ip), g.window).Err(); err != nil {
			return errors.Join(ErrGateUnavailable, err)
		}
	}
	return nil
}
