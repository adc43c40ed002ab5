package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsForType_AadhaarOTP(t *testing.T) {
	steps, err := StepsForType(TypeAadhaarOTP)
	require.NoError(t, err)
	require.Len(t, steps, 6)

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}

	assert.Equal(t, []string{
		StepDocumentUpload,
		StepOTPVerification,
		StepUIDAIVerification,
		StepFaceMatch,
		StepCriminalRecords,
		StepReportGeneration,
	}, names)

	for _, s := range steps {
		assert.NotEmpty(t, s.Description, "step %q has no description", s.Name)
	}
}

func TestStepsForType_DLAadhaarOTP(t *testing.T) {
	steps, err := StepsForType(TypeDLAadhaarOTP)
	require.NoError(t, err)
	require.Len(t, steps, 7)

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}

	// License Verification sits between OTP and UIDAI verification
	assert.Equal(t, []string{
		StepDocumentUpload,
		StepOTPVerification,
		StepLicenseVerification,
		StepUIDAIVerification,
		StepFaceMatch,
		StepCriminalRecords,
		StepReportGeneration,
	}, names)
}

func TestStepsForType_UnknownType(t *testing.T) {
	for _, vt := range []VerificationType{TypeVoterAadhaarOTP, TypeDrivingLicense, TypeVoterID, VerificationType("BOGUS")} {
		_, err := StepsForType(vt)
		assert.ErrorIs(t, err, ErrUnknownVerificationType, "type %s", vt)
	}
}

func TestStepsForType_ReturnsCopy(t *testing.T) {
	steps, err := StepsForType(TypeAadhaarOTP)
	require.NoError(t, err)

	steps[0].Name = "tampered"

	again, err := StepsForType(TypeAadhaarOTP)
	require.NoError(t, err)
	assert.Equal(t, StepDocumentUpload, again[0].Name)
}
