package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitConfig configures per-client throttling of segmentation
// requests. Zero limits are not enforced.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// RateLimiter tracks segmentation requests and uploaded bytes per client.
type RateLimiter struct {
	mu     sync.Mutex
	limits RateLimitConfig
	now    func() time.Time
	usage  map[string]*ClientUsage
}

// ClientUsage is one client's counters. Each window counts from its own
// start; the day window resets at local midnight.
type ClientUsage struct {
	MinuteStart time.Time
	HourStart   time.Time
	DayStart    time.Time

	RequestsThisMinute int
	RequestsThisHour   int
	RequestsToday      int
	BytesToday         int64
}

// NewRateLimiter returns a limiter enforcing limits.
func NewRateLimiter(limits RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limits: limits,
		now:    time.Now,
		usage:  make(map[string]*ClientUsage),
	}
}

// Allow records one request of size bytes from client, or returns a
// *RateLimitError or *QuotaExceededError without recording it.
func (rl *RateLimiter) Allow(client string, size int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u, ok := rl.usage[client]
	if !ok {
		u = &ClientUsage{MinuteStart: now, HourStart: now, DayStart: startOfDay(now)}
		rl.usage[client] = u
	}
	u.roll(now)

	if err := rl.checkWindows(u, now); err != nil {
		return err
	}
	if err := rl.checkQuotas(u, size); err != nil {
		return err
	}

	u.RequestsThisMinute++
	u.RequestsThisHour++
	u.RequestsToday++
	u.BytesToday += size
	return nil
}

// Usage returns a copy of client's counters. Unknown clients get zeros.
func (rl *RateLimiter) Usage(client string) ClientUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if u, ok := rl.usage[client]; ok {
		return *u
	}
	return ClientUsage{}
}

func (u *ClientUsage) roll(now time.Time) {
	if now.Sub(u.MinuteStart) >= time.Minute {
		u.MinuteStart = now
		u.RequestsThisMinute = 0
	}
	if now.Sub(u.HourStart) >= time.Hour {
		u.HourStart = now
		u.RequestsThisHour = 0
	}
	if day := startOfDay(now); day.After(u.DayStart) {
		u.DayStart = day
		u.RequestsToday = 0
		u.BytesToday = 0
	}
}

func (rl *RateLimiter) checkWindows(u *ClientUsage, now time.Time) error {
	if limit := rl.limits.RequestsPerMinute; limit > 0 && u.RequestsThisMinute >= limit {
		return &RateLimitError{Type: "minute", Limit: limit, RetryAfter: u.MinuteStart.Add(time.Minute).Sub(now)}
	}
	if limit := rl.limits.RequestsPerHour; limit > 0 && u.RequestsThisHour >= limit {
		return &RateLimitError{Type: "hour", Limit: limit, RetryAfter: u.HourStart.Add(time.Hour).Sub(now)}
	}
	return nil
}

func (rl *RateLimiter) checkQuotas(u *ClientUsage, size int64) error {
	resets := u.DayStart.AddDate(0, 0, 1)
	if limit := rl.limits.MaxRequestsPerDay; limit > 0 && u.RequestsToday >= limit {
		return &QuotaExceededError{Type: "requests", Limit: int64(limit), Used: int64(u.RequestsToday), Resets: resets}
	}
	if limit := rl.limits.MaxDataPerDay; limit > 0 && u.BytesToday+size > limit {
		return &QuotaExceededError{Type: "data", Limit: limit, Used: u.BytesToday, Resets: resets}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RateLimitError reports a request over the per-minute or per-hour limit.
type RateLimitError struct {
	Type       string // "minute" or "hour"
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError reports a request over a daily quota.
type QuotaExceededError struct {
	Type   string // "requests" or "data"
	Limit  int64
	Used   int64
	Resets time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
