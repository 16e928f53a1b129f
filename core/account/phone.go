package account

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidPhone = errors.New("invalid phone number")

	// DefaultPhoneRegion is assumed for numbers submitted with a leading 0
	// instead of an international prefix. Overridden from config at startup.
	DefaultPhoneRegion = "+234"

	// fixed-length national significant number patterns per country calling code
	phonePatterns = map[string]*regexp.Regexp{
		"+234": regexp.MustCompile(`^[1-9]\d{9}$`), // Nigeria: 10 digits
		"+254": regexp.MustCompile(`^[17]\d{8}$`),  // Kenya: 9 digits
		"+255": regexp.MustCompile(`^[67]\d{8}$`),  // Tanzania: 9 digits
		"+233": regexp.MustCompile(`^[2-5]\d{8}$`), // Ghana: 9 digits
		"+44":  regexp.MustCompile(`^7\d{9}$`),     // UK mobile: 10 digits
		"+1":   regexp.MustCompile(`^[2-9]\d{9}$`), // NANP: 10 digits
	}

	phoneJunk = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// NormalizePhone validates `raw` against the per-country fixed-length digit
// patterns and returns it in E.164 form. A leading 0 is replaced with
// DefaultPhoneRegion ("08123456789" -> "+2348123456789").
func NormalizePhone(raw string) (string, error) {
	s := phoneJunk.Replace(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrInvalidPhone
	}

	if strings.HasPrefix(s, "0") {
		s = DefaultPhoneRegion + s[1:]
	}
	if !strings.HasPrefix(s, "+") {
		return "", ErrInvalidPhone
	}

	for prefix, pattern := range phonePatterns {
		if strings.HasPrefix(s, prefix) {
			if pattern.MatchString(s[len(prefix):]) {
				return s, nil
			}
			return "", ErrInvalidPhone
		}
	}
	return "", ErrInvalidPhone
}

// ValidPhone reports whether `raw` normalizes to a supported number.
func ValidPhone(raw string) bool {
	_, err := NormalizePhone(raw)
	return err == nil
}
