package observability

import (
	"strings"

	"github.com/instantverify/verify-api/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskAadhaar masks an Aadhaar number for logging, keeping the last 4 digits
func MaskAadhaar(aadhaar string) string {
	if len(aadhaar) != 12 {
		return "XXXX-XXXX-XXXX"
	}
	return "XXXX-XXXX-" + aadhaar[8:]
}

// MaskPhone masks a phone number for logging, keeping the last 4 digits
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// MaskSensitiveData masks sensitive fields in a map
func MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	sensitiveFields := []string{"aadhaar_number", "license_number", "voter_id", "otp", "phone", "father_name", "date_of_birth"}
	masked := make(map[string]interface{})

	for k, v := range data {
		if contains(sensitiveFields, k) {
			masked[k] = "********"
		} else {
			masked[k] = v
		}
	}

	return masked
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
