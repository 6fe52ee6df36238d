package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rateLimitProblemType  = "https://auth.studyflow.example.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// RateLimitStore is the sliding-window attempt log backing the limiter.
// Implementations must tolerate concurrent callers; the Redis repository is
// the production one.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}

// IdentifierFunc derives the subject a rule counts against, typically the
// client IP for anonymous auth endpoints. Returning false skips the rule.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule is one sliding-window limit. Name becomes part of the
// storage key, so login and password-reset rules sharing an IP still count
// independently.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter evaluates rules against a shared attempt store.
type RateLimiter struct {
	store  RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// ProblemDetails is the RFC 9457 payload returned on a blocked request.
type ProblemDetails struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance"`
	RetryAfter int            `json:"retry_after"`
	TraceID    string         `json:"trace_id,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// windowStatus is the outcome of checking one rule for one request.
type windowStatus struct {
	rule       RateLimitRule
	allowed    bool
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

// NewRateLimiter builds a limiter over the given store. A nil logger is
// replaced with a no-op one.
func NewRateLimiter(store RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{store: store, logger: logger, now: time.Now}
}

// WithClock substitutes the time source, used by tests to pin the window.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier scopes a rule to the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// RateLimit enforces the given rules on every request. Rules with no
// identifier, a non-positive limit, or a non-positive window are dropped up
// front. A store failure lets the request through: losing rate limiting is
// preferable to losing login during a Redis outage.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	active := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		active = append(active, rule)
	}

	return func(c *gin.Context) {
		if len(active) == 0 || rl.store == nil {
			c.Next()
			return
		}

		now := rl.now()
		var reported *windowStatus

		for _, rule := range active {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			status, err := rl.check(c.Request.Context(), rule, identifier, now)
			if err != nil {
				rl.logger.Warn("rate limit check failed",
					zap.String("rule", rule.Name),
					zap.String("identifier", identifier),
					zap.Error(err))
				continue
			}

			if reported == nil || status.stricterThan(*reported) {
				snapshot := status
				reported = &snapshot
			}

			if !status.allowed {
				rl.writeHeaders(c, status)
				rl.reject(c, status)
				return
			}
		}

		if reported != nil {
			rl.writeHeaders(c, *reported)
		}

		c.Next()
	}
}

// check trims and counts the window, then either blocks or records the
// attempt. Blocked requests are not recorded, so a locked-out caller cannot
// push their own reset time further out.
func (rl *RateLimiter) check(ctx context.Context, rule RateLimitRule, identifier string, now time.Time) (windowStatus, error) {
	key := fmt.Sprintf("%s:%s", rule.Name, identifier)

	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return windowStatus{}, err
	}
	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return windowStatus{}, err
	}
	oldest, hasAttempts, err := rl.store.OldestAttempt(ctx, key, rule.Window, now)
	if err != nil {
		return windowStatus{}, err
	}

	reset := now.Add(rule.Window)
	if hasAttempts {
		reset = oldest.Add(rule.Window)
	}

	status := windowStatus{rule: rule, reset: reset}

	if count >= rule.Limit {
		status.retryAfter = max(reset.Sub(now), 0)
		return status, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return windowStatus{}, err
	}
	if !hasAttempts {
		status.reset = now.Add(rule.Window)
	}

	status.allowed = true
	status.remaining = max(rule.Limit-count-1, 0)
	status.retryAfter = max(status.reset.Sub(now), 0)

	return status, nil
}

// stricterThan reports whether this status should win the response headers
// when several rules matched. A blocking result always wins; among equals,
// the one with fewer attempts left or the earlier reset does.
func (s windowStatus) stricterThan(other windowStatus) bool {
	if !s.allowed && other.allowed {
		return true
	}
	if s.allowed != other.allowed {
		return false
	}
	if s.remaining != other.remaining {
		return s.remaining < other.remaining
	}
	return s.reset.Before(other.reset)
}

func (s windowStatus) retryAfterSeconds() int {
	return max(int(math.Ceil(s.retryAfter.Seconds())), 0)
}

func (rl *RateLimiter) writeHeaders(c *gin.Context, status windowStatus) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(status.rule.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(status.remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(status.reset.Unix(), 10))
	if !status.allowed {
		headers.Set("Retry-After", strconv.Itoa(status.retryAfterSeconds()))
	}
}

func (rl *RateLimiter) reject(c *gin.Context, status windowStatus) {
	seconds := status.retryAfterSeconds()

	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", seconds),
		Instance:   instance,
		RetryAfter: seconds,
		TraceID:    GetTraceID(c),
	})
}
