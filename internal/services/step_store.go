package services

import (
	"context"

	"github.com/instantverify/verify-api/internal/models"
)

// StepStore persists verification requests and their step sets, and keeps the
// request's aggregate status consistent with its steps.
//
// Implementations must guarantee that UpdateStep applies the step transition
// and the aggregate recomputation as one logical change: a reader never
// observes a step status that contradicts the stored request status by more
// than one in-flight transition.
type StepStore interface {
	// CreateRequest inserts the request and initializes its step set from
	// the catalog, all steps pending. It returns
	// models.ErrDuplicateInitialization when the request already exists and
	// models.ErrUnknownVerificationType for types without a catalog entry.
	CreateRequest(ctx context.Context, request *models.VerificationRequest) error

	// GetRequest returns the request or models.ErrRequestNotFound.
	GetRequest(ctx context.Context, requestID string) (*models.VerificationRequest, error)

	// ListSteps returns the request's steps in catalog order. It returns
	// models.ErrRequestNotFound when the request does not exist.
	ListSteps(ctx context.Context, requestID string) ([]models.VerificationStep, error)

	// UpdateStep transitions one step and recomputes the request's aggregate
	// status. It returns the updated step and the new aggregate status, or
	// models.ErrStepNotFound when the named step is not part of the
	// request's step set.
	UpdateStep(ctx context.Context, requestID, stepName string, status models.StepStatus, description string) (*models.VerificationStep, models.RequestStatus, error)

	// ListUserRequests returns the user's requests, newest first.
	ListUserRequests(ctx context.Context, userID string, limit int64) ([]models.VerificationRequest, error)
}
