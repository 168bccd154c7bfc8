// Package email normalizes and validates recipient addresses before they
// enter the issuance pipeline.
package email

import (
	"regexp"
	"strings"
)

// shape accepts the simple local@domain.tld form: a non-empty local part,
// an @, and a domain containing at least one dot. Deliverability is the
// mail transport's concern; this only rejects obviously malformed input.
var shape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Normalize trims surrounding whitespace and lower-cases the address.
// Addresses are stored and compared in this form.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Valid reports whether addr has the expected two-part shape.
func Valid(addr string) bool {
	return shape.MatchString(addr)
}
