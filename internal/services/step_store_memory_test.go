package services

import (
	"context"
	"testing"

	"github.com/instantverify/verify-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(id string, verificationType models.VerificationType) *models.VerificationRequest {
	return &models.VerificationRequest{
		ID:     id,
		UserID: "user-1",
		Type:   verificationType,
		Documents: models.VerificationDocuments{
			AadhaarNumber: "234123412346",
			OTP:           "123456",
			Name:          "Rahul Sharma",
			DateOfBirth:   "1990-04-12",
		},
	}
}

func TestMemoryStepStoreCreateRequest(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()

	err := store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP))
	require.NoError(t, err)

	request, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, request.Status)
	assert.Equal(t, int32(1), request.Version)

	steps, err := store.ListSteps(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, steps, 6)
	for i, step := range steps {
		assert.Equal(t, i+1, step.Order)
		assert.Equal(t, models.StepStatusPending, step.Status)
	}
}

func TestMemoryStepStoreCreateRequestDuplicate(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP)))

	err := store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP))
	assert.ErrorIs(t, err, models.ErrDuplicateInitialization)
}

func TestMemoryStepStoreCreateRequestUnknownType(t *testing.T) {
	store := NewMemoryStepStore()

	err := store.CreateRequest(context.Background(), newTestRequest("req-1", models.VerificationType("PASSPORT")))
	assert.ErrorIs(t, err, models.ErrUnknownVerificationType)
}

func TestMemoryStepStoreUpdateStep(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP)))

	step, aggregate, err := store.UpdateStep(ctx, "req-1", models.StepDocumentUpload, models.StepStatusProcessing, "")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusProcessing, step.Status)
	assert.Equal(t, models.RequestStatusProcessing, aggregate)

	request, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusProcessing, request.Status)
	assert.Equal(t, int32(2), request.Version)
}

func TestMemoryStepStoreUpdateStepFailureWinsAggregate(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP)))

	_, _, err := store.UpdateStep(ctx, "req-1", models.StepDocumentUpload, models.StepStatusCompleted, "")
	require.NoError(t, err)

	_, aggregate, err := store.UpdateStep(ctx, "req-1", models.StepOTPVerification, models.StepStatusFailed, "OTP expired")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusFailed, aggregate)

	steps, err := store.ListSteps(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "OTP expired", steps[1].Description)
}

func TestMemoryStepStoreUpdateStepAllCompleted(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP)))

	steps, err := store.ListSteps(ctx, "req-1")
	require.NoError(t, err)

	var aggregate models.RequestStatus
	for _, step := range steps {
		_, aggregate, err = store.UpdateStep(ctx, "req-1", step.Name, models.StepStatusCompleted, "")
		require.NoError(t, err)
	}
	assert.Equal(t, models.RequestStatusCompleted, aggregate)
}

func TestMemoryStepStoreUpdateStepUnknownStep(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP)))

	// License Verification is not part of the AADHAAR_OTP pipeline
	_, _, err := store.UpdateStep(ctx, "req-1", models.StepLicenseVerification, models.StepStatusCompleted, "")
	assert.ErrorIs(t, err, models.ErrStepNotFound)
}

func TestMemoryStepStoreUnknownRequest(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()

	_, err := store.GetRequest(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrRequestNotFound)

	_, err = store.ListSteps(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrRequestNotFound)

	_, _, err = store.UpdateStep(ctx, "missing", models.StepDocumentUpload, models.StepStatusProcessing, "")
	assert.ErrorIs(t, err, models.ErrRequestNotFound)
}

func TestMemoryStepStoreListUserRequests(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()

	first := newTestRequest("req-1", models.TypeAadhaarOTP)
	require.NoError(t, store.CreateRequest(ctx, first))

	second := newTestRequest("req-2", models.TypeDLAadhaarOTP)
	require.NoError(t, store.CreateRequest(ctx, second))

	other := newTestRequest("req-3", models.TypeAadhaarOTP)
	other.UserID = "user-2"
	require.NoError(t, store.CreateRequest(ctx, other))

	requests, err := store.ListUserRequests(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	for _, request := range requests {
		assert.Equal(t, "user-1", request.UserID)
	}
}
