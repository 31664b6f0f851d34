package domain

import (
	"fmt"
	"strings"
)

// NormalizePhone strips every non-digit character from a phone number
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidPhone reports whether the number normalizes to a valid
// Kazakhstani phone number (exactly 11 digits)
func IsValidPhone(phone string) bool {
	return len(NormalizePhone(phone)) == 11
}

// FormatPhone renders an 11-digit number as +C (CCC) CCC-CC-CC.
// Numbers that do not normalize to 11 digits are returned as-is.
func FormatPhone(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) != 11 {
		return phone
	}
	return fmt.Sprintf("+%s (%s) %s-%s-%s",
		digits[0:1], digits[1:4], digits[4:7], digits[7:9], digits[9:11])
}

// NormalizeSMSCode strips non-digits from user-entered code input
func NormalizeSMSCode(code string) string {
	return NormalizePhone(code)
}

// IsValidSMSCode reports whether the input normalizes to exactly 6 digits
func IsValidSMSCode(code string) bool {
	return len(NormalizeSMSCode(code)) == 6
}

// FormatSMSCode renders a 6-digit code as NNN-NNN for display
func FormatSMSCode(code string) string {
	digits := NormalizeSMSCode(code)
	if len(digits) != 6 {
		return code
	}
	return digits[0:3] + "-" + digits[3:6]
}
