package models

import "errors"

// Error constants for verification operations
var (
	ErrUnknownVerificationType = errors.New("unknown verification type")
	ErrRequestNotFound         = errors.New("verification request not found")
	ErrStepNotFound            = errors.New("verification step not found")
	ErrDuplicateInitialization = errors.New("steps already initialized for request")
	ErrInsufficientCredits     = errors.New("insufficient credits")
	ErrReportNotFound          = errors.New("verification report not found")
)
