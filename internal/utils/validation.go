package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/instantverify/verify-api/internal/models"
)

// Verhoeff checksum tables, used by UIDAI for the Aadhaar check digit
var (
	verhoeffD = [10][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
		{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
		{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
		{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
		{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
		{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
		{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
		{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
		{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
	}
	verhoeffP = [8][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
		{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
		{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
		{9, 4, 5, 3, 1, 2, 6, 8, 7, 0},
		{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
		{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
		{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
	}
)

var (
	nonDigitRe = regexp.MustCompile(`\D`)
	// State code, RTO code, year of issue, serial number
	drivingLicenseRe = regexp.MustCompile(`^[A-Z]{2}[0-9]{2} ?(19|20)[0-9]{2}[0-9]{7}$`)
	// EPIC number: three letters followed by seven digits
	voterIDRe = regexp.MustCompile(`^[A-Z]{3}[0-9]{7}$`)
	otpRe     = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidateAadhaar validates an Aadhaar number: 12 digits, first digit 2-9,
// valid Verhoeff check digit.
func ValidateAadhaar(aadhaar string) bool {
	aadhaar = nonDigitRe.ReplaceAllString(aadhaar, "")

	if len(aadhaar) != 12 {
		return false
	}
	if aadhaar[0] == '0' || aadhaar[0] == '1' {
		return false
	}

	c := 0
	for i := 0; i < len(aadhaar); i++ {
		digit := int(aadhaar[len(aadhaar)-1-i] - '0')
		c = verhoeffD[c][verhoeffP[i%8][digit]]
	}
	return c == 0
}

// ValidateDrivingLicense validates an Indian driving licence number
func ValidateDrivingLicense(license string) bool {
	return drivingLicenseRe.MatchString(strings.ToUpper(strings.TrimSpace(license)))
}

// ValidateVoterID validates a voter EPIC number
func ValidateVoterID(voterID string) bool {
	return voterIDRe.MatchString(strings.ToUpper(strings.TrimSpace(voterID)))
}

// ValidateOTP validates a 6-digit one-time password
func ValidateOTP(otp string) bool {
	return otpRe.MatchString(otp)
}

// ValidateDocuments checks that the documents submitted for a verification
// type carry every field its pipeline needs. It backs the Document Upload
// step: a returned error fails the step with the error's message.
func ValidateDocuments(verificationType models.VerificationType, docs models.VerificationDocuments) error {
	var missing []string

	requireField := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	requireField("name", docs.Name)
	requireField("date_of_birth", docs.DateOfBirth)
	requireField("document_photo_url", docs.DocumentPhotoURL)
	requireField("live_photo_url", docs.LivePhotoURL)

	switch verificationType {
	case models.TypeAadhaarOTP:
		requireField("aadhaar_number", docs.AadhaarNumber)
		requireField("otp", docs.OTP)
	case models.TypeDLAadhaarOTP:
		requireField("aadhaar_number", docs.AadhaarNumber)
		requireField("otp", docs.OTP)
		requireField("license_number", docs.LicenseNumber)
	default:
		return models.ErrUnknownVerificationType
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	if !ValidateAadhaar(docs.AadhaarNumber) {
		return fmt.Errorf("invalid Aadhaar number")
	}
	if !ValidateOTP(docs.OTP) {
		return fmt.Errorf("invalid OTP: must be 6 digits")
	}
	if verificationType == models.TypeDLAadhaarOTP && !ValidateDrivingLicense(docs.LicenseNumber) {
		return fmt.Errorf("invalid driving licence number")
	}

	// The phone is optional, but when given it must be a deliverable mobile
	// number
	if docs.Phone != "" {
		if _, err := ParsePhoneNumber(docs.Phone); err != nil {
			return fmt.Errorf("invalid phone number")
		}
	}

	return nil
}
