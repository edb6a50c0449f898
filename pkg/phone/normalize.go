// Package phone provides phone number normalization helpers used by the
// dedupe pass and the import pipeline.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// NormalizeE164 formats a phone number to E.164. If parsing fails or the
// number is not valid for the default region, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// CanonicalKey reduces a phone number to the key used for duplicate
// grouping: the E.164 form when the number parses, otherwise the digits of
// the raw input. "555-1111", "555 1111" and "5551111" all map to the same
// key; an input with no digits maps to "".
func CanonicalKey(input string) string {
	normalized := NormalizeE164(input)

	var b strings.Builder
	for _, r := range normalized {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
