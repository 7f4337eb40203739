package validate

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidMobile is returned for numbers that are not valid Indian
// mobile numbers.
var ErrInvalidMobile = errors.New("invalid mobile number")

// mobilePattern matches ten-digit Indian mobile numbers, which start with
// 6-9. Promoted admins use this number as their login username.
var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// MobileNumber validates a mobile number and returns it in the canonical
// ten-digit form. A leading +91, 91, or 0 and interior spaces or dashes are
// tolerated on input.
func MobileNumber(mobile string) (string, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return "", ErrEmpty
	}

	mobile = strings.NewReplacer(" ", "", "-", "").Replace(mobile)
	switch {
	case strings.HasPrefix(mobile, "+91") && len(mobile) == 13:
		mobile = mobile[3:]
	case strings.HasPrefix(mobile, "91") && len(mobile) == 12:
		mobile = mobile[2:]
	case strings.HasPrefix(mobile, "0") && len(mobile) == 11:
		mobile = mobile[1:]
	}

	if !mobilePattern.MatchString(mobile) {
		return "", ErrInvalidMobile
	}
	return mobile, nil
}
