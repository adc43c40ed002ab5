package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/instantverify/verify-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStepStore is an in-memory StepStore used in tests and local tooling.
// All operations take the store lock, so a step transition and its aggregate
// recomputation are atomic with respect to readers.
type MemoryStepStore struct {
	mu       sync.RWMutex
	requests map[string]*models.VerificationRequest
	steps    map[string][]models.VerificationStep
}

// NewMemoryStepStore creates an empty in-memory step store
func NewMemoryStepStore() *MemoryStepStore {
	return &MemoryStepStore{
		requests: make(map[string]*models.VerificationRequest),
		steps:    make(map[string][]models.VerificationStep),
	}
}

func (s *MemoryStepStore) CreateRequest(ctx context.Context, request *models.VerificationRequest) error {
	defs, err := models.StepsForType(request.Type)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[request.ID]; exists {
		return models.ErrDuplicateInitialization
	}

	now := time.Now()
	request.Status = models.RequestStatusPending
	request.Version = 1
	request.CreatedAt = now
	request.UpdatedAt = now

	stored := *request
	s.requests[request.ID] = &stored

	steps := make([]models.VerificationStep, 0, len(defs))
	for i, def := range defs {
		steps = append(steps, models.VerificationStep{
			ID:          primitive.NewObjectID(),
			RequestID:   request.ID,
			Name:        def.Name,
			Order:       i + 1,
			Status:      models.StepStatusPending,
			Description: def.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	s.steps[request.ID] = steps

	return nil
}

func (s *MemoryStepStore) GetRequest(ctx context.Context, requestID string) (*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[requestID]
	if !ok {
		return nil, models.ErrRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (s *MemoryStepStore) ListSteps(ctx context.Context, requestID string) ([]models.VerificationStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps, ok := s.steps[requestID]
	if !ok {
		return nil, models.ErrRequestNotFound
	}

	out := make([]models.VerificationStep, len(steps))
	copy(out, steps)
	return out, nil
}

func (s *MemoryStepStore) UpdateStep(ctx context.Context, requestID, stepName string, status models.StepStatus, description string) (*models.VerificationStep, models.RequestStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.steps[requestID]
	if !ok {
		return nil, "", models.ErrRequestNotFound
	}

	var updated *models.VerificationStep
	for i := range steps {
		if steps[i].Name == stepName {
			steps[i].Status = status
			if description != "" {
				steps[i].Description = description
			}
			steps[i].UpdatedAt = time.Now()
			copied := steps[i]
			updated = &copied
			break
		}
	}
	if updated == nil {
		return nil, "", models.ErrStepNotFound
	}

	request := s.requests[requestID]
	aggregate := models.AggregateStatus(steps)
	if aggregate != request.Status {
		request.Status = aggregate
		request.Version++
		request.UpdatedAt = time.Now()
	}

	return updated, aggregate, nil
}

func (s *MemoryStepStore) ListUserRequests(ctx context.Context, userID string, limit int64) ([]models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.VerificationRequest
	for _, request := range s.requests {
		if request.UserID == userID {
			out = append(out, *request)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
