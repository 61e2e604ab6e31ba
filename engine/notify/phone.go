package notify

import (
	"strings"

	"github.com/devclub/formsheets/pkg/format"
)

// FormatPhone converts a captured phone number to the international form
// the messaging API expects. Numbers already starting with '+' pass through
// untouched; anything else becomes '+' + countryCode + digits. It returns ""
// when the input carries no digits.
func FormatPhone(phone, countryCode string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	digits := format.Digits(phone)
	if digits == "" {
		return ""
	}
	return "+" + format.Digits(countryCode) + digits
}
