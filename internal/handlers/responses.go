package handlers

import (
	"time"

	"github.com/instantverify/verify-api/internal/models"
)

// ErrorResponse is the error body returned by all endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequestDetailResponse is the full view of a verification request
type RequestDetailResponse struct {
	RequestID string                  `json:"request_id"`
	UserID    string                  `json:"user_id"`
	Type      models.VerificationType `json:"type"`
	Status    models.RequestStatus    `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Steps     []models.StepProgress   `json:"steps"`
}

// RequestListResponse is the paginated list of a user's requests
type RequestListResponse struct {
	UserID   string           `json:"user_id"`
	Requests []RequestSummary `json:"requests"`
}

// RequestSummary is one request in a list view
type RequestSummary struct {
	RequestID string                  `json:"request_id"`
	Type      models.VerificationType `json:"type"`
	Status    models.RequestStatus    `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
