package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/instantverify/verify-api/internal/logging"
	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/observability"
	"github.com/instantverify/verify-api/internal/redisclient"
	"github.com/instantverify/verify-api/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProgressService serves polling reads over the step store with a short-TTL
// Redis cache, and publishes step events on the request's pub/sub channel.
// The cache is optional: with a nil Redis client every read goes to the store
// and events are not published.
type ProgressService struct {
	store StepStore
	cache *redisclient.Client
	ttl   time.Duration
}

// NewProgressService creates a progress service. cache may be nil.
func NewProgressService(store StepStore, cache *redisclient.Client, ttl time.Duration) *ProgressService {
	return &ProgressService{
		store: store,
		cache: cache,
		ttl:   ttl,
	}
}

func progressCacheKey(requestID string) string {
	return fmt.Sprintf("verification:%s:progress", requestID)
}

// EventChannel is the pub/sub channel carrying a request's step events
func EventChannel(requestID string) string {
	return fmt.Sprintf("verification:%s:events", requestID)
}

// GetProgress returns the request's progress view, serving from cache when a
// fresh entry exists.
func (p *ProgressService) GetProgress(ctx context.Context, requestID string) (*models.ProgressResponse, error) {
	key := progressCacheKey(requestID)

	if p.cache != nil {
		_, span := utils.TraceCacheGet(ctx, key)
		cached, err := p.cache.Get(ctx, key).Result()
		span.End()

		if err == nil {
			var response models.ProgressResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				observability.CacheHits.WithLabelValues("progress_hit").Inc()
				return &response, nil
			}
			// Corrupt entry; fall through to the store
			p.cache.Del(ctx, key)
		} else if err != redis.Nil {
			logging.Logger.Warn("progress cache read failed",
				zap.String("request_id", requestID),
				zap.Error(err))
		}
		observability.CacheHits.WithLabelValues("progress_miss").Inc()
	}

	request, err := p.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	steps, err := p.store.ListSteps(ctx, requestID)
	if err != nil {
		return nil, err
	}

	response := &models.ProgressResponse{
		RequestID:       requestID,
		Status:          request.Status,
		ProgressPercent: models.ProgressPercent(steps),
		Steps:           stepProgressView(steps),
	}

	if p.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			_, span := utils.TraceCacheSet(ctx, key, p.ttl)
			if err := p.cache.Set(ctx, key, payload, p.ttl).Err(); err != nil {
				logging.Logger.Warn("progress cache write failed",
					zap.String("request_id", requestID),
					zap.Error(err))
			}
			span.End()
		}
	}

	return response, nil
}

// StepChanged invalidates the cached progress view and publishes the
// transition on the request's event channel. Publishing is best-effort.
func (p *ProgressService) StepChanged(ctx context.Context, requestID string, step *models.VerificationStep, status models.RequestStatus) {
	if p.cache == nil {
		return
	}

	if err := p.cache.Del(ctx, progressCacheKey(requestID)).Err(); err != nil {
		logging.Logger.Warn("progress cache invalidation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
	}

	event := models.StepEvent{
		RequestID:   requestID,
		Step:        step.Name,
		StepStatus:  step.Status,
		Status:      status,
		Description: step.Description,
		Timestamp:   time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := p.cache.Publish(ctx, EventChannel(requestID), payload).Err(); err != nil {
		logging.Logger.Warn("step event publish failed",
			zap.String("request_id", requestID),
			zap.String("step", step.Name),
			zap.Error(err))
	}
}

// stepProgressView projects steps into their client-facing form
func stepProgressView(steps []models.VerificationStep) []models.StepProgress {
	out := make([]models.StepProgress, 0, len(steps))
	for _, step := range steps {
		out = append(out, models.StepProgress{
			Name:        step.Name,
			Status:      step.Status,
			Description: step.Description,
		})
	}
	return out
}
