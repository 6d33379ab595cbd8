// Package inputval checks request input before it reaches the stores.
package inputval

import (
	"net/mail"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsValidEmail reports whether s is a bare address (no display name) with a
// well-formed local part and domain. Single-label domains are accepted.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	local, domain := s[:at], s[at+1:]
	return dotAtom(local) && dotAtom(domain)
}

// dotAtom rejects leading, trailing and doubled dots.
func dotAtom(s string) bool {
	return s != "" &&
		!strings.HasPrefix(s, ".") &&
		!strings.HasSuffix(s, ".") &&
		!strings.Contains(s, "..")
}

// IsValidObjectID reports whether s (trimmed) is a 24-character hex id.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

var officerTypeRe = regexp.MustCompile(`^[a-z][a-z0-9-]{0,39}$`)

// IsValidOfficerType reports whether s is a lowercase category slug such as
// police, medical or search-and-rescue. Categories are open ended; only the
// shape is checked.
func IsValidOfficerType(s string) bool {
	return officerTypeRe.MatchString(s)
}

// IsValidPhone accepts digits with the usual separators and an optional
// leading plus, between 3 and 20 digits.
func IsValidPhone(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 3 && digits <= 20
}
