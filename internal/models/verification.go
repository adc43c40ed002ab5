package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationType identifies the pipeline a request runs through
type VerificationType string

// Supported verification types
const (
	TypeAadhaarOTP      VerificationType = "AADHAAR_OTP"
	TypeDLAadhaarOTP    VerificationType = "DL_AADHAAR_OTP"
	TypeVoterAadhaarOTP VerificationType = "VOTER_AADHAAR_OTP"
	TypeDrivingLicense  VerificationType = "DRIVING_LICENSE"
	TypeVoterID         VerificationType = "VOTER_ID"
)

// RequestStatus is the aggregate status of a verification request.
// It is always derived from the request's step statuses and never set
// independently.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusFailed     RequestStatus = "failed"
)

// StepStatus is the status of a single verification step
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusProcessing StepStatus = "processing"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
	StepStatusWarning    StepStatus = "warning"
)

// Step names, fixed by the catalog
const (
	StepDocumentUpload      = "Document Upload"
	StepOTPVerification     = "OTP Verification"
	StepLicenseVerification = "License Verification"
	StepUIDAIVerification   = "UIDAI Verification"
	StepFaceMatch           = "Face Match"
	StepCriminalRecords     = "Criminal Records"
	StepReportGeneration    = "Report Generation"
)

// VerificationDocuments holds the documents and biometrics captured at
// submission time. Photo fields are opaque object-storage URLs.
type VerificationDocuments struct {
	AadhaarNumber    string `bson:"aadhaar_number,omitempty" json:"aadhaar_number,omitempty"`
	LicenseNumber    string `bson:"license_number,omitempty" json:"license_number,omitempty"`
	VoterID          string `bson:"voter_id,omitempty" json:"voter_id,omitempty"`
	OTP              string `bson:"otp,omitempty" json:"otp,omitempty"`
	Name             string `bson:"name,omitempty" json:"name,omitempty"`
	DateOfBirth      string `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	FatherName       string `bson:"father_name,omitempty" json:"father_name,omitempty"`
	Phone            string `bson:"phone,omitempty" json:"phone,omitempty"`
	DocumentPhotoURL string `bson:"document_photo_url,omitempty" json:"document_photo_url,omitempty"`
	LivePhotoURL     string `bson:"live_photo_url,omitempty" json:"live_photo_url,omitempty"`
}

// VerificationRequest is one user-initiated identity check. Requests are
// append-only: they are never deleted, only transitioned.
type VerificationRequest struct {
	ID        string                `bson:"_id" json:"id"`
	UserID    string                `bson:"user_id" json:"user_id"`
	Type      VerificationType      `bson:"type" json:"type"`
	Status    RequestStatus         `bson:"status" json:"status"`
	Documents VerificationDocuments `bson:"documents" json:"documents"`
	Version   int32                 `bson:"version" json:"-"`
	CreatedAt time.Time             `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time             `bson:"updated_at" json:"updated_at"`
}

// VerificationStep is one named stage of a request's pipeline. The step set
// for a request is fixed at initialization time by the catalog; steps are
// never added or removed afterwards.
type VerificationStep struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID   string             `bson:"request_id" json:"request_id"`
	Name        string             `bson:"name" json:"name"`
	Order       int                `bson:"order" json:"order"`
	Status      StepStatus         `bson:"status" json:"status"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
