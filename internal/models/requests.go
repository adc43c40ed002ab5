package models

import "time"

// SubmitVerificationRequest is the request body for submitting a verification
type SubmitVerificationRequest struct {
	UserID    string                `json:"user_id" binding:"required"`
	Type      VerificationType      `json:"type" binding:"required"`
	Documents VerificationDocuments `json:"documents" binding:"required"`
}

// SubmitVerificationResponse is returned after a verification is accepted
type SubmitVerificationResponse struct {
	RequestID string         `json:"request_id"`
	Status    RequestStatus  `json:"status"`
	Steps     []StepProgress `json:"steps"`
}

// StepProgress is the read-only view of one step exposed to polling clients
type StepProgress struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Description string     `json:"description,omitempty"`
}

// ProgressResponse is the progress view of a verification request
type ProgressResponse struct {
	RequestID       string         `json:"request_id"`
	Status          RequestStatus  `json:"status"`
	ProgressPercent int            `json:"progress_percent"`
	Steps           []StepProgress `json:"steps"`
}

// StepEvent is published on the request's pub/sub channel after every step
// transition
type StepEvent struct {
	RequestID   string        `json:"request_id"`
	Step        string        `json:"step"`
	StepStatus  StepStatus    `json:"step_status"`
	Status      RequestStatus `json:"status"`
	Description string        `json:"description,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// CreditBalanceResponse is the credit balance view for one user
type CreditBalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}
