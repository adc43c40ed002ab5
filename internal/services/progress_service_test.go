package services

import (
	"context"
	"testing"
	"time"

	"github.com/instantverify/verify-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressServiceGetProgress(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP)))

	service := NewProgressService(store, nil, 5*time.Second)

	progress, err := service.GetProgress(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", progress.RequestID)
	assert.Equal(t, models.RequestStatusPending, progress.Status)
	assert.Equal(t, 0, progress.ProgressPercent)
	require.Len(t, progress.Steps, 6)
	assert.Equal(t, models.StepDocumentUpload, progress.Steps[0].Name)
}

func TestProgressServiceGetProgressReflectsTransitions(t *testing.T) {
	store := NewMemoryStepStore()
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, newTestRequest("req-1", models.TypeAadhaarOTP)))

	service := NewProgressService(store, nil, 5*time.Second)

	_, _, err := store.UpdateStep(ctx, "req-1", models.StepDocumentUpload, models.StepStatusCompleted, "")
	require.NoError(t, err)
	_, _, err = store.UpdateStep(ctx, "req-1", models.StepOTPVerification, models.StepStatusCompleted, "")
	require.NoError(t, err)
	_, _, err = store.UpdateStep(ctx, "req-1", models.StepUIDAIVerification, models.StepStatusProcessing, "")
	require.NoError(t, err)

	progress, err := service.GetProgress(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusProcessing, progress.Status)
	assert.Equal(t, 33, progress.ProgressPercent)
}

func TestProgressServiceGetProgressUnknownRequest(t *testing.T) {
	service := NewProgressService(NewMemoryStepStore(), nil, 5*time.Second)

	_, err := service.GetProgress(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrRequestNotFound)
}

func TestProgressServiceStepChangedWithoutCache(t *testing.T) {
	service := NewProgressService(NewMemoryStepStore(), nil, 5*time.Second)

	// Must not panic with a nil cache
	service.StepChanged(context.Background(), "req-1", &models.VerificationStep{
		Name:   models.StepDocumentUpload,
		Status: models.StepStatusCompleted,
	}, models.RequestStatusProcessing)
}

func TestEventChannel(t *testing.T) {
	assert.Equal(t, "verification:req-42:events", EventChannel("req-42"))
}
