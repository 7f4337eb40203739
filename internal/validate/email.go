package validate

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidEmail is returned for malformed email addresses.
var ErrInvalidEmail = errors.New("invalid email format")

// emailPattern accepts the common address shapes admins actually enter.
// Deliverability is the mail server's concern, not this check's.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validates an email address and returns it trimmed and lowercased.
// Admin contact emails are stored in the normalized form so lookups and
// duplicate checks compare like with like. Length limits follow RFC 5321.
func Email(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmpty
	}
	if len(email) > 254 {
		return "", ErrStringTooLong
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "", ErrInvalidEmail
	}
	if len(local) > 64 || len(domain) > 255 {
		return "", ErrStringTooLong
	}
	// A bare hostname is almost always a typo for a real address.
	if !strings.Contains(domain, ".") {
		return "", ErrInvalidEmail
	}

	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}
