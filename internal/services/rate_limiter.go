package services

import (
	"context"
	"sync"
	"time"

	"github.com/instantverify/verify-api/internal/logging"
	"go.uber.org/zap"
)

// RateLimiter implements a token bucket rate limiter
type RateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
	logger     *logging.SafeLogger
}

// NewRateLimiter creates a new token bucket rate limiter
func NewRateLimiter(maxTokens int, refillRate time.Duration, logger *logging.SafeLogger) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
		logger:     logger,
	}
}

// Allow checks if a request should be allowed based on rate limiting
func (rl *RateLimiter) Allow(ctx context.Context, operation string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	// Refill tokens based on time elapsed
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)

	tokensToAdd := int(elapsed / rl.refillRate)
	if tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}

	rl.logger.Warn("rate limiter rejected request",
		zap.String("operation", operation),
		zap.Int("max_tokens", rl.maxTokens))
	return false
}

// GetStatus returns the current and maximum token counts
func (rl *RateLimiter) GetStatus() (int, int) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return rl.tokens, rl.maxTokens
}

// SubmissionLimiter rate-limits verification submissions: a global token
// bucket protects the provider gateways, and a per-user cooldown stops rapid
// resubmission of the same documents.
type SubmissionLimiter struct {
	globalLimiter  *RateLimiter
	perUser        sync.Map // map[string]time.Time of last submission
	cooldown       time.Duration
	logger         *logging.SafeLogger
}

// NewSubmissionLimiter creates a submission limiter allowing
// maxRequestsPerMinute submissions globally and one submission per user per
// cooldown window.
func NewSubmissionLimiter(maxRequestsPerMinute int, cooldown time.Duration, logger *logging.SafeLogger) *SubmissionLimiter {
	refillRate := time.Minute / time.Duration(maxRequestsPerMinute)

	return &SubmissionLimiter{
		globalLimiter: NewRateLimiter(maxRequestsPerMinute, refillRate, logger),
		cooldown:      cooldown,
		logger:        logger,
	}
}

// Allow reports whether the user may submit now. The second return value is a
// client-presentable rejection reason.
func (m *SubmissionLimiter) Allow(ctx context.Context, userID string) (bool, string) {
	if last, ok := m.perUser.Load(userID); ok {
		if lastTime, ok := last.(time.Time); ok && time.Since(lastTime) < m.cooldown {
			m.logger.Warn("submission rejected by per-user cooldown",
				zap.String("user_id", userID))
			return false, "too many submissions, wait before retrying"
		}
	}

	if !m.globalLimiter.Allow(ctx, "submit_verification") {
		return false, "service at capacity, try again later"
	}

	m.perUser.Store(userID, time.Now())
	return true, ""
}

// CleanupOldEntries removes stale per-user entries
func (m *SubmissionLimiter) CleanupOldEntries(olderThan time.Duration) {
	cutoff := time.Now().Add(-olderThan)

	m.perUser.Range(func(key, value interface{}) bool {
		if lastTime, ok := value.(time.Time); ok && lastTime.Before(cutoff) {
			m.perUser.Delete(key)
		}
		return true
	})
}
