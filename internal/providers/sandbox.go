package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/observability"
	"github.com/instantverify/verify-api/internal/utils"
)

// Sandbox is a deterministic in-process verifier used in development and
// tests. Outcomes are derived from the inputs themselves, so a given
// document set always produces the same pipeline behavior:
//
//	OTP "000000"                  expired OTP (negative result)
//	OTP "999999"                  provider outage (error)
//	Aadhaar ending in "0000"      demographic mismatch at UIDAI
//	License ending in "0000"      license not found
//	photo URL contains "mismatch" low face-match confidence
//	name contains "offender"      one criminal record hit
type Sandbox struct{}

// NewSandbox returns the deterministic sandbox verifier
func NewSandbox() *Sandbox {
	return &Sandbox{}
}

func (s *Sandbox) VerifyOTP(ctx context.Context, aadhaarNumber, otp string) (Result, error) {
	if !utils.ValidateAadhaar(aadhaarNumber) {
		return Result{}, ErrInvalidFormat
	}
	if !utils.ValidateOTP(otp) {
		return Result{}, ErrInvalidFormat
	}

	switch otp {
	case "000000":
		return Result{Verified: false, Message: "OTP expired"}, nil
	case "999999":
		return Result{}, &ProviderError{Provider: "uidai", Err: errors.New("otp service unavailable")}
	}

	return Result{
		Verified: true,
		Message:  "OTP verified",
		Details:  map[string]string{"aadhaar": observability.MaskAadhaar(aadhaarNumber)},
	}, nil
}

func (s *Sandbox) VerifyID(ctx context.Context, aadhaarNumber string, identity Identity) (Result, error) {
	if !utils.ValidateAadhaar(aadhaarNumber) {
		return Result{}, ErrInvalidFormat
	}

	if strings.HasSuffix(aadhaarNumber, "0000") {
		return Result{Verified: false, Message: "Aadhaar details do not match UIDAI records"}, nil
	}

	return Result{
		Verified: true,
		Message:  "Identity confirmed by UIDAI",
		Details: map[string]string{
			"name_match": "true",
			"dob_match":  "true",
		},
	}, nil
}

func (s *Sandbox) VerifyLicense(ctx context.Context, licenseNumber, dateOfBirth string) (Result, error) {
	if !utils.ValidateDrivingLicense(licenseNumber) {
		return Result{}, ErrInvalidFormat
	}

	if strings.HasSuffix(licenseNumber, "0000") {
		return Result{Verified: false, Message: "License not found in transport registry"}, nil
	}

	return Result{
		Verified: true,
		Message:  "License verified",
		Details:  map[string]string{"license_status": "ACTIVE"},
	}, nil
}

func (s *Sandbox) MatchFaces(ctx context.Context, documentPhotoURL, livePhotoURL string) (FaceMatchResult, error) {
	if documentPhotoURL == "" || livePhotoURL == "" {
		return FaceMatchResult{}, ErrInvalidFormat
	}

	if strings.Contains(documentPhotoURL, "mismatch") || strings.Contains(livePhotoURL, "mismatch") {
		return FaceMatchResult{Confidence: 0.31}, nil
	}
	if documentPhotoURL == livePhotoURL {
		return FaceMatchResult{Confidence: 0.99}, nil
	}
	return FaceMatchResult{Confidence: 0.92}, nil
}

func (s *Sandbox) CheckRecords(ctx context.Context, identity Identity) ([]models.CriminalRecordEntry, error) {
	if identity.Name == "" {
		return nil, ErrInvalidFormat
	}

	if strings.Contains(strings.ToLower(identity.Name), "offender") {
		return []models.CriminalRecordEntry{
			{
				Source:      "district_court",
				CaseNumber:  "CC/4821/2019",
				Description: "Case under IPC section 420 pending before district court",
				Year:        2019,
			},
		}, nil
	}

	return []models.CriminalRecordEntry{}, nil
}
