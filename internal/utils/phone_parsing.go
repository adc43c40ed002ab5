package utils

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneComponents represents the parsed components of a phone number
type PhoneComponents struct {
	CountryCode string `json:"country_code"`
	National    string `json:"national"`
	Full        string `json:"full"`
}

// ParsePhoneNumber parses and validates a mobile number, defaulting to the
// Indian country code when none is given. OTP delivery targets must parse
// cleanly before a verification is accepted.
func ParsePhoneNumber(phoneString string) (*PhoneComponents, error) {
	cleanPhone := strings.TrimSpace(phoneString)

	if !strings.HasPrefix(cleanPhone, "+") {
		if strings.HasPrefix(cleanPhone, "91") && len(cleanPhone) > 10 {
			cleanPhone = "+" + cleanPhone
		} else {
			// Assume an Indian number
			cleanPhone = "+91" + cleanPhone
		}
	}

	num, err := phonenumbers.Parse(cleanPhone, "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	if !phonenumbers.IsValidNumber(num) {
		return nil, fmt.Errorf("invalid phone number: %s", phoneString)
	}

	countryCode := fmt.Sprintf("%d", num.GetCountryCode())
	national := phonenumbers.GetNationalSignificantNumber(num)

	return &PhoneComponents{
		CountryCode: countryCode,
		National:    national,
		Full:        "+" + countryCode + national,
	}, nil
}
