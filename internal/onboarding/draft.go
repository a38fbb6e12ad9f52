package onboarding

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/heartbridge/heartbridge/internal/profile"
)

const (
	phoneDigits = 10
	codeDigits  = 4
	minNameLen  = 2
)

// Draft is what the user has typed so far. Phone and Code hold digits only.
type Draft struct {
	Role       profile.Role
	ParentName string
	ChildName  string
	Phone      string
	Code       string
}

// FormattedPhone renders the phone digits as (555) 123-4567, filling in
// progressively as digits arrive.
func (d Draft) FormattedPhone() string {
	return formatPhone(d.Phone)
}

func formatPhone(digits string) string {
	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 6:
		return "(" + digits[:3] + ") " + digits[3:]
	default:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	}
}

func digitsOnly(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == limit {
			break
		}
		if r < utf8.RuneSelf && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validName(s string) bool {
	return utf8.RuneCountInString(s) >= minNameLen
}
