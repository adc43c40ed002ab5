package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/instantverify/verify-api/internal/config"
	"github.com/instantverify/verify-api/internal/models"
)

// ErrInvalidFormat indicates the input could not be sent to the provider
// because it fails basic format checks.
var ErrInvalidFormat = errors.New("invalid input format")

// ProviderError wraps a failure of the external provider itself, as opposed
// to a definitive negative verification result.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s returned status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a verification call. Verified reports the
// provider's decision; a false Verified with a nil error is a definitive
// negative answer, not a failure to answer.
type Result struct {
	Verified bool              `json:"verified"`
	Message  string            `json:"message,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

// FaceMatchResult carries the similarity score between two photographs.
type FaceMatchResult struct {
	Confidence float64 `json:"confidence"`
}

// Identity is the demographic tuple used for record lookups.
type Identity struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	FatherName  string `json:"father_name,omitempty"`
}

// IDProvider verifies Aadhaar-based identity claims against UIDAI
type IDProvider interface {
	// VerifyOTP validates the OTP issued against an Aadhaar number
	VerifyOTP(ctx context.Context, aadhaarNumber, otp string) (Result, error)
	// VerifyID checks the declared identity against UIDAI records
	VerifyID(ctx context.Context, aadhaarNumber string, identity Identity) (Result, error)
}

// LicenseProvider verifies driving licenses against the transport registry
type LicenseProvider interface {
	VerifyLicense(ctx context.Context, licenseNumber, dateOfBirth string) (Result, error)
}

// FaceMatchProvider compares a document photograph with a live capture
type FaceMatchProvider interface {
	MatchFaces(ctx context.Context, documentPhotoURL, livePhotoURL string) (FaceMatchResult, error)
}

// CriminalRecordsProvider searches court and police record sources
type CriminalRecordsProvider interface {
	CheckRecords(ctx context.Context, identity Identity) ([]models.CriminalRecordEntry, error)
}

// Verifiers bundles the external verification capabilities used by the
// orchestrator.
type Verifiers struct {
	ID       IDProvider
	License  LicenseProvider
	Face     FaceMatchProvider
	Criminal CriminalRecordsProvider
}

// New builds the verifier set for the configured provider mode.
func New(cfg *config.Config) *Verifiers {
	if cfg.ProviderMode == "live" {
		client := newAPIClient(cfg.ProviderAPIKey, cfg.ProviderTimeout)
		return &Verifiers{
			ID:       &liveIDProvider{client: client, baseURL: cfg.UIDAIBaseURL},
			License:  &liveLicenseProvider{client: client, baseURL: cfg.LicenseBaseURL},
			Face:     &liveFaceMatchProvider{client: client, baseURL: cfg.FaceMatchBaseURL},
			Criminal: &liveCriminalProvider{client: client, baseURL: cfg.CriminalBaseURL},
		}
	}

	sandbox := NewSandbox()
	return &Verifiers{
		ID:       sandbox,
		License:  sandbox,
		Face:     sandbox,
		Criminal: sandbox,
	}
}
