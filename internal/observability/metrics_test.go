package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsExist(t *testing.T) {
	assert.NotNil(t, RequestDuration)
	assert.NotNil(t, ActiveConnections)
	assert.NotNil(t, VerificationSubmissions)
	assert.NotNil(t, VerificationOutcomes)
	assert.NotNil(t, StepTransitions)
	assert.NotNil(t, ProviderCalls)
	assert.NotNil(t, ProviderLatency)
	assert.NotNil(t, QueueDepth)
	assert.NotNil(t, CacheHits)
	assert.NotNil(t, CreditDeductions)
}

func TestMetricsAcceptLabels(t *testing.T) {
	// Recording must not panic for the label sets used in the codebase
	RequestDuration.WithLabelValues("/v1/verifications", "POST", "202").Observe(0.5)
	VerificationSubmissions.WithLabelValues("AADHAAR_OTP").Inc()
	VerificationOutcomes.WithLabelValues("AADHAAR_OTP", "completed").Inc()
	StepTransitions.WithLabelValues("OTP Verification", "completed").Inc()
	ProviderCalls.WithLabelValues("uidai", "success").Inc()
	ProviderLatency.WithLabelValues("uidai").Observe(0.12)
	QueueDepth.Set(3)
	CacheHits.WithLabelValues("progress_hit").Inc()
	CreditDeductions.WithLabelValues("success").Inc()

	ActiveConnections.Inc()
	ActiveConnections.Dec()
}

func TestMaskAadhaar(t *testing.T) {
	assert.Equal(t, "XXXX-XXXX-2346", MaskAadhaar("234123412346"))
	assert.Equal(t, "XXXX-XXXX-XXXX", MaskAadhaar("1234"))
	assert.Equal(t, "XXXX-XXXX-XXXX", MaskAadhaar(""))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********3210", MaskPhone("+919876543210"))
	assert.Equal(t, "***", MaskPhone("123"))
}

func TestMaskSensitiveData(t *testing.T) {
	masked := MaskSensitiveData(map[string]interface{}{
		"aadhaar_number": "234123412346",
		"otp":            "123456",
		"request_id":     "req-1",
	})

	assert.Equal(t, "********", masked["aadhaar_number"])
	assert.Equal(t, "********", masked["otp"])
	assert.Equal(t, "req-1", masked["request_id"])
}
