package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/providers"
	"github.com/instantverify/verify-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncQueue struct {
	orchestrator *services.Orchestrator
	err          error
}

// Enqueue runs the pipeline inline so tests observe final state immediately
func (q *syncQueue) Enqueue(job services.OrchestrationJob) error {
	if q.err != nil {
		return q.err
	}
	return q.orchestrator.Run(context.Background(), job.RequestID)
}

type handlerFixture struct {
	store   *services.MemoryStepStore
	credits *services.MemoryCreditLedger
	reports *services.MemoryReportStore
	queue   *syncQueue
	router  *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := services.NewMemoryStepStore()
	credits := services.NewMemoryCreditLedger()
	reports := services.NewMemoryReportStore()

	sandbox := providers.NewSandbox()
	verifiers := &providers.Verifiers{ID: sandbox, License: sandbox, Face: sandbox, Criminal: sandbox}
	orchestrator := services.NewOrchestrator(store, verifiers, reports, nil, 0.8, time.Minute)
	queue := &syncQueue{orchestrator: orchestrator}

	progress := services.NewProgressService(store, nil, 5*time.Second)
	handler := NewVerificationHandler(store, credits, reports, progress, queue, nil)

	router := gin.New()
	v1 := router.Group("/v1")
	{
		v1.POST("/verifications", handler.SubmitVerification)
		v1.GET("/verifications/:id", handler.GetVerification)
		v1.GET("/verifications/:id/progress", handler.GetProgress)
		v1.GET("/verifications/:id/report", handler.GetReport)
		v1.GET("/users/:user_id/verifications", handler.ListUserVerifications)
		v1.GET("/credits/:user_id", handler.GetCreditBalance)
	}

	return &handlerFixture{
		store:   store,
		credits: credits,
		reports: reports,
		queue:   queue,
		router:  router,
	}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func submissionBody() models.SubmitVerificationRequest {
	return models.SubmitVerificationRequest{
		UserID: "user-1",
		Type:   models.TypeAadhaarOTP,
		Documents: models.VerificationDocuments{
			AadhaarNumber:    "234123412346",
			OTP:              "123456",
			Name:             "Rahul Sharma",
			DateOfBirth:      "1990-04-12",
			DocumentPhotoURL: "https://cdn.example/doc.jpg",
			LivePhotoURL:     "https://cdn.example/live.jpg",
		},
	}
}

func TestSubmitVerification(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.credits.Grant(context.Background(), "user-1", 5)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/v1/verifications", submissionBody())
	require.Equal(t, http.StatusAccepted, w.Code)

	var response models.SubmitVerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.RequestID)
	assert.Len(t, response.Steps, 6)

	// The response status reflects the listed step snapshot; the inline
	// queue finished the pipeline before the steps were read back
	assert.Equal(t, models.RequestStatusCompleted, response.Status)

	// The inline queue already ran the pipeline to completion
	request, err := f.store.GetRequest(context.Background(), response.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, request.Status)

	balance, err := f.credits.Balance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), balance)
}

func TestSubmitVerificationInsufficientCredits(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/v1/verifications", submissionBody())
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestSubmitVerificationUnknownType(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.credits.Grant(context.Background(), "user-1", 5)
	require.NoError(t, err)

	body := submissionBody()
	body.Type = models.TypeVoterID
	w := f.do(t, http.MethodPost, "/v1/verifications", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No credit was taken for the rejected submission
	balance, err := f.credits.Balance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance)
}

func TestSubmitVerificationMissingBody(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/v1/verifications", map[string]string{"user_id": "user-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitVerificationQueueFullRefunds(t *testing.T) {
	f := newHandlerFixture(t)
	f.queue.err = errors.New("verification queue is full")
	_, err := f.credits.Grant(context.Background(), "user-1", 1)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/v1/verifications", submissionBody())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	balance, err := f.credits.Balance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance)
}

func TestGetVerification(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.credits.Grant(context.Background(), "user-1", 1)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/v1/verifications", submissionBody())
	require.Equal(t, http.StatusAccepted, w.Code)
	var submitted models.SubmitVerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))

	w = f.do(t, http.MethodGet, "/v1/verifications/"+submitted.RequestID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail RequestDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, submitted.RequestID, detail.RequestID)
	assert.Equal(t, models.TypeAadhaarOTP, detail.Type)
	assert.Len(t, detail.Steps, 6)
}

func TestGetVerificationNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/v1/verifications/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProgress(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.credits.Grant(context.Background(), "user-1", 1)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/v1/verifications", submissionBody())
	require.Equal(t, http.StatusAccepted, w.Code)
	var submitted models.SubmitVerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))

	w = f.do(t, http.MethodGet, "/v1/verifications/"+submitted.RequestID+"/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var progress models.ProgressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, models.RequestStatusCompleted, progress.Status)
	assert.Equal(t, 100, progress.ProgressPercent)
}

func TestGetProgressNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/v1/verifications/missing/progress", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.credits.Grant(context.Background(), "user-1", 1)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/v1/verifications", submissionBody())
	require.Equal(t, http.StatusAccepted, w.Code)
	var submitted models.SubmitVerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))

	w = f.do(t, http.MethodGet, "/v1/verifications/"+submitted.RequestID+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, models.RequestStatusCompleted, report.Status)
	assert.Len(t, report.Steps, 6)
}

func TestGetReportNotFoundForFailedVerification(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.credits.Grant(context.Background(), "user-1", 1)
	require.NoError(t, err)

	body := submissionBody()
	body.Documents.OTP = "000000"
	w := f.do(t, http.MethodPost, "/v1/verifications", body)
	require.Equal(t, http.StatusAccepted, w.Code)
	var submitted models.SubmitVerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))

	// Pipeline halted before report generation
	w = f.do(t, http.MethodGet, "/v1/verifications/"+submitted.RequestID+"/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUserVerifications(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.credits.Grant(context.Background(), "user-1", 3)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodPost, "/v1/verifications", submissionBody())
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	w := f.do(t, http.MethodGet, "/v1/users/user-1/verifications", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list RequestListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, "user-1", list.UserID)
	assert.Len(t, list.Requests, 2)
}

func TestGetCreditBalance(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.credits.Grant(context.Background(), "user-1", 7)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/v1/credits/user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var balance models.CreditBalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &balance))
	assert.Equal(t, int64(7), balance.Balance)
}

func TestHealthCheckWithoutBackends(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/health", NewHealthHandler(nil).HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
}
