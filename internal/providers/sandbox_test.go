package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/instantverify/verify-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAadhaar = "234123412346"

func TestSandboxVerifyOTP(t *testing.T) {
	s := NewSandbox()
	ctx := context.Background()

	t.Run("valid otp verifies", func(t *testing.T) {
		result, err := s.VerifyOTP(ctx, validAadhaar, "123456")
		require.NoError(t, err)
		assert.True(t, result.Verified)
	})

	t.Run("expired otp is a negative result, not an error", func(t *testing.T) {
		result, err := s.VerifyOTP(ctx, validAadhaar, "000000")
		require.NoError(t, err)
		assert.False(t, result.Verified)
		assert.Equal(t, "OTP expired", result.Message)
	})

	t.Run("outage otp returns provider error", func(t *testing.T) {
		_, err := s.VerifyOTP(ctx, validAadhaar, "999999")
		require.Error(t, err)

		var provErr *ProviderError
		require.True(t, errors.As(err, &provErr))
		assert.Equal(t, "uidai", provErr.Provider)
	})

	t.Run("malformed aadhaar rejected", func(t *testing.T) {
		_, err := s.VerifyOTP(ctx, "123", "123456")
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("malformed otp rejected", func(t *testing.T) {
		_, err := s.VerifyOTP(ctx, validAadhaar, "12ab56")
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestSandboxVerifyID(t *testing.T) {
	s := NewSandbox()
	ctx := context.Background()
	identity := Identity{Name: "Rahul Sharma", DateOfBirth: "1990-04-12"}

	t.Run("matching identity verifies", func(t *testing.T) {
		result, err := s.VerifyID(ctx, validAadhaar, identity)
		require.NoError(t, err)
		assert.True(t, result.Verified)
	})

	t.Run("aadhaar ending 0000 fails demographic match", func(t *testing.T) {
		result, err := s.VerifyID(ctx, mismatchAadhaar(t), identity)
		require.NoError(t, err)
		assert.False(t, result.Verified)
	})
}

// mismatchAadhaar finds a checksum-valid Aadhaar number ending in 0000.
// Varying a single digit cycles the Verhoeff checksum through all ten
// values, so exactly one candidate below is valid.
func mismatchAadhaar(t *testing.T) string {
	t.Helper()
	for d := byte('0'); d <= '9'; d++ {
		candidate := "2341234" + string(d) + "0000"
		if utils.ValidateAadhaar(candidate) {
			return candidate
		}
	}
	t.Fatal("no checksum-valid aadhaar ending in 0000 found")
	return ""
}

func TestSandboxVerifyLicense(t *testing.T) {
	s := NewSandbox()
	ctx := context.Background()

	t.Run("valid license verifies", func(t *testing.T) {
		result, err := s.VerifyLicense(ctx, "MH12 20151234567", "1990-04-12")
		require.NoError(t, err)
		assert.True(t, result.Verified)
	})

	t.Run("license ending 0000 not found", func(t *testing.T) {
		result, err := s.VerifyLicense(ctx, "MH12 20151230000", "1990-04-12")
		require.NoError(t, err)
		assert.False(t, result.Verified)
	})

	t.Run("malformed license rejected", func(t *testing.T) {
		_, err := s.VerifyLicense(ctx, "NOT-A-LICENSE", "1990-04-12")
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestSandboxMatchFaces(t *testing.T) {
	s := NewSandbox()
	ctx := context.Background()

	t.Run("distinct photos score high", func(t *testing.T) {
		result, err := s.MatchFaces(ctx, "https://cdn.example/doc.jpg", "https://cdn.example/live.jpg")
		require.NoError(t, err)
		assert.InDelta(t, 0.92, result.Confidence, 0.001)
	})

	t.Run("identical photos score highest", func(t *testing.T) {
		result, err := s.MatchFaces(ctx, "https://cdn.example/doc.jpg", "https://cdn.example/doc.jpg")
		require.NoError(t, err)
		assert.InDelta(t, 0.99, result.Confidence, 0.001)
	})

	t.Run("mismatch marker scores below threshold", func(t *testing.T) {
		result, err := s.MatchFaces(ctx, "https://cdn.example/doc-mismatch.jpg", "https://cdn.example/live.jpg")
		require.NoError(t, err)
		assert.InDelta(t, 0.31, result.Confidence, 0.001)
	})

	t.Run("missing photo rejected", func(t *testing.T) {
		_, err := s.MatchFaces(ctx, "", "https://cdn.example/live.jpg")
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestSandboxCheckRecords(t *testing.T) {
	s := NewSandbox()
	ctx := context.Background()

	t.Run("clean name has no records", func(t *testing.T) {
		records, err := s.CheckRecords(ctx, Identity{Name: "Rahul Sharma", DateOfBirth: "1990-04-12"})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("flagged name returns a record", func(t *testing.T) {
		records, err := s.CheckRecords(ctx, Identity{Name: "Test Offender", DateOfBirth: "1990-04-12"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "district_court", records[0].Source)
		assert.Equal(t, 2019, records[0].Year)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := s.CheckRecords(ctx, Identity{})
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}
