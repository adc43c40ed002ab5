package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/instantverify/verify-api/internal/logging"
	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/observability"
	"github.com/instantverify/verify-api/internal/services"
	"github.com/instantverify/verify-api/internal/utils"
	"go.uber.org/zap"
)

// Enqueuer schedules a pipeline run for an accepted request
type Enqueuer interface {
	Enqueue(job services.OrchestrationJob) error
}

// SubmissionLimiter gates submissions per user
type SubmissionLimiter interface {
	Allow(ctx context.Context, userID string) (bool, string)
}

// VerificationHandler serves the verification endpoints
type VerificationHandler struct {
	store    services.StepStore
	credits  services.CreditLedger
	reports  services.ReportStore
	progress *services.ProgressService
	queue    Enqueuer
	limiter  SubmissionLimiter
}

// NewVerificationHandler creates a verification handler. limiter may be nil.
func NewVerificationHandler(store services.StepStore, credits services.CreditLedger, reports services.ReportStore, progress *services.ProgressService, queue Enqueuer, limiter SubmissionLimiter) *VerificationHandler {
	return &VerificationHandler{
		store:    store,
		credits:  credits,
		reports:  reports,
		progress: progress,
		queue:    queue,
		limiter:  limiter,
	}
}

// SubmitVerification godoc
// @Summary Submit a verification request
// @Description Accepts documents for identity verification, deducts one credit and schedules the pipeline. Processing is asynchronous; poll the progress endpoint for updates.
// @Tags verification
// @Accept json
// @Produce json
// @Param request body models.SubmitVerificationRequest true "Verification request"
// @Success 202 {object} models.SubmitVerificationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse "Insufficient credits"
// @Failure 503 {object} ErrorResponse "Queue at capacity"
// @Router /verifications [post]
func (h *VerificationHandler) SubmitVerification(c *gin.Context) {
	ctx := c.Request.Context()

	var body models.SubmitVerificationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	logger := observability.Logger().With(
		zap.String("user_id", body.UserID),
		zap.String("type", string(body.Type)),
		zap.String("aadhaar", observability.MaskAadhaar(body.Documents.AadhaarNumber)),
	)

	if _, err := models.StepsForType(body.Type); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unsupported verification type: " + string(body.Type)})
		return
	}

	if h.limiter != nil {
		if allowed, reason := h.limiter.Allow(ctx, body.UserID); !allowed {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: reason})
			return
		}
	}

	balance, err := h.credits.Deduct(ctx, body.UserID)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientCredits) {
			c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "Insufficient credits"})
			return
		}
		logger.Error("credit deduction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process submission"})
		return
	}

	request := &models.VerificationRequest{
		ID:        utils.GenerateUUID(),
		UserID:    body.UserID,
		Type:      body.Type,
		Documents: body.Documents,
	}

	if err := h.store.CreateRequest(ctx, request); err != nil {
		h.refund(c, body.UserID)
		logger.Error("failed to create verification request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process submission"})
		return
	}

	if err := h.queue.Enqueue(services.OrchestrationJob{RequestID: request.ID, UserID: request.UserID}); err != nil {
		h.refund(c, body.UserID)
		logger.Warn("verification queue rejected job", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Service at capacity, try again later"})
		return
	}

	utils.LogVerificationSubmitted(request.ID, request.UserID, string(request.Type))
	utils.LogCreditDeduction(request.ID, request.UserID, balance)
	observability.VerificationSubmissions.WithLabelValues(string(request.Type)).Inc()

	steps, err := h.store.ListSteps(ctx, request.ID)
	if err != nil {
		// The request was accepted; return it without the step detail
		logger.Warn("failed to list steps after submission", zap.Error(err))
	}

	logger.Info("verification submitted", zap.String("request_id", request.ID))
	c.JSON(http.StatusAccepted, models.SubmitVerificationResponse{
		RequestID: request.ID,
		Status:    models.AggregateStatus(steps),
		Steps:     stepProgressList(steps),
	})
}

func (h *VerificationHandler) refund(c *gin.Context, userID string) {
	if _, err := h.credits.Refund(c.Request.Context(), userID); err != nil {
		logging.Logger.Error("credit refund failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// GetVerification godoc
// @Summary Get a verification request
// @Description Returns the request with its full step detail
// @Tags verification
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} RequestDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /verifications/{id} [get]
func (h *VerificationHandler) GetVerification(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.Param("id")

	request, err := h.store.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Verification request not found"})
			return
		}
		logging.Logger.Error("failed to load request", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load verification request"})
		return
	}

	steps, err := h.store.ListSteps(ctx, requestID)
	if err != nil {
		logging.Logger.Error("failed to load steps", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load verification request"})
		return
	}

	c.JSON(http.StatusOK, RequestDetailResponse{
		RequestID: request.ID,
		UserID:    request.UserID,
		Type:      request.Type,
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
		UpdatedAt: request.UpdatedAt,
		Steps:     stepProgressList(steps),
	})
}

// GetProgress godoc
// @Summary Get verification progress
// @Description Returns the request's aggregate status, completion percentage and per-step statuses. Served from a short-lived cache.
// @Tags verification
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.ProgressResponse
// @Failure 404 {object} ErrorResponse
// @Router /verifications/{id}/progress [get]
func (h *VerificationHandler) GetProgress(c *gin.Context) {
	requestID := c.Param("id")

	progress, err := h.progress.GetProgress(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, models.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Verification request not found"})
			return
		}
		logging.Logger.Error("failed to load progress", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load progress"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetReport godoc
// @Summary Get the verification report
// @Description Returns the final report of a finished verification
// @Tags verification
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.Report
// @Failure 404 {object} ErrorResponse
// @Router /verifications/{id}/report [get]
func (h *VerificationHandler) GetReport(c *gin.Context) {
	requestID := c.Param("id")

	report, err := h.reports.GetReport(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, models.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Report not available"})
			return
		}
		logging.Logger.Error("failed to load report", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ListUserVerifications godoc
// @Summary List a user's verification requests
// @Tags verification
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} RequestListResponse
// @Router /users/{user_id}/verifications [get]
func (h *VerificationHandler) ListUserVerifications(c *gin.Context) {
	userID := c.Param("user_id")

	requests, err := h.store.ListUserRequests(c.Request.Context(), userID, 50)
	if err != nil {
		logging.Logger.Error("failed to list user requests", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list verification requests"})
		return
	}

	summaries := make([]RequestSummary, 0, len(requests))
	for _, request := range requests {
		summaries = append(summaries, RequestSummary{
			RequestID: request.ID,
			Type:      request.Type,
			Status:    request.Status,
			CreatedAt: request.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, RequestListResponse{UserID: userID, Requests: summaries})
}

// GetCreditBalance godoc
// @Summary Get a user's credit balance
// @Tags credits
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} models.CreditBalanceResponse
// @Router /credits/{user_id} [get]
func (h *VerificationHandler) GetCreditBalance(c *gin.Context) {
	userID := c.Param("user_id")

	balance, err := h.credits.Balance(c.Request.Context(), userID)
	if err != nil {
		logging.Logger.Error("failed to load credit balance", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load credit balance"})
		return
	}

	c.JSON(http.StatusOK, models.CreditBalanceResponse{UserID: userID, Balance: balance})
}

// stepProgressList projects steps into their client-facing view
func stepProgressList(steps []models.VerificationStep) []models.StepProgress {
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
