// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "TH"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// SearchForms returns the alternative spellings a stored phone number may use
// for a search term that looks like a phone number: E.164 and the national
// digits. It returns nil when the term is not a valid number.
func SearchForms(term, region string) []string {
	trimmed := strings.TrimSpace(term)
	if !looksLikePhone(trimmed) {
		return nil
	}

	number, err := parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return nil
	}

	e164 := phonenumbers.Format(number, phonenumbers.E164)
	national := digitsOnly(phonenumbers.Format(number, phonenumbers.NATIONAL))
	if national == "" || national == e164 {
		return []string{e164}
	}
	return []string{e164, national}
}

func parse(input, region string) (*phonenumbers.PhoneNumber, error) {
	if region == "" {
		region = defaultRegion
	}
	return phonenumbers.Parse(input, strings.ToUpper(region))
}

func looksLikePhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 6
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
