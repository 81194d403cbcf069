// Package phone normalizes free-form phone numbers into a canonical
// international form and validates them against per-country mobile rules.
package phone

import (
	"fmt"
	"strings"
)

// Reason identifies why a phone number failed validation.
type Reason string

// Validation failure reasons.
const (
	ReasonEmpty   Reason = "empty"   // blank or whitespace-only input
	ReasonLength  Reason = "length"  // outside the 7-15 digit international shape
	ReasonCountry Reason = "country" // violates the detected country's rules
	ReasonPattern Reason = "pattern" // degenerate digit pattern (leading zero, all-repeated)
)

// ValidationError reports a rejected phone number. It is always recoverable
// per-record: batch callers collect it, they never abort on it.
type ValidationError struct {
	Reason Reason
	Raw    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("phone: invalid number %q (%s)", e.Raw, e.Reason)
}

// CountryRule selects the validation rule set applied after the generic
// international shape check.
type CountryRule int

// Country rule sets, in detection priority order.
const (
	RuleGeneric CountryRule = iota
	RulePakistan
	RuleNorthAmerica
	RuleUK
	RuleUAE
)

func (r CountryRule) String() string {
	switch r {
	case RulePakistan:
		return "PK"
	case RuleNorthAmerica:
		return "NA"
	case RuleUK:
		return "UK"
	case RuleUAE:
		return "UAE"
	default:
		return "generic"
	}
}

// pkMobilePrefixes are the two-digit prefixes of valid Pakistani mobile
// numbers (first two significant digits after the country/trunk prefix).
var pkMobilePrefixes = map[string]bool{
	"30": true, "31": true, "32": true, "33": true, "34": true, "35": true, "36": true, "37": true,
	"40": true, "41": true, "42": true, "43": true, "44": true, "45": true, "46": true, "47": true,
	"50": true, "51": true, "52": true, "53": true, "54": true, "55": true, "56": true, "57": true,
	"60": true, "61": true, "62": true, "63": true, "64": true, "65": true, "66": true, "67": true,
	"70": true, "71": true, "72": true, "73": true, "74": true, "75": true, "76": true, "77": true,
	"90": true, "91": true, "92": true, "93": true, "94": true, "95": true, "96": true, "97": true,
}

// DetectRule classifies a digit string (non-digits already stripped, any "00"
// exit code already folded away) into a country rule set. Pakistan is checked
// first so that "92..." never reaches the UK or North America branches.
func DetectRule(digits string) CountryRule {
	switch {
	case strings.HasPrefix(digits, "92"),
		strings.HasPrefix(digits, "0") && len(digits) == 11:
		return RulePakistan
	case strings.HasPrefix(digits, "1"):
		return RuleNorthAmerica
	case strings.HasPrefix(digits, "44"):
		return RuleUK
	case strings.HasPrefix(digits, "971"):
		return RuleUAE
	default:
		return RuleGeneric
	}
}

// Normalize parses a free-form phone string into canonical form:
//   - strips everything but digits and a leading "+"
//   - folds a leading "00" international exit code into "+"
//   - applies the generic 7-15 digit shape check
//   - applies the detected country's refinement
//
// The canonical result keeps "+" when the input was international, keeps
// trunk-zero local forms verbatim, and prefixes "+" onto bare international
// digit strings longer than ten digits. Normalize is pure and idempotent:
// Normalize(Normalize(x)) == Normalize(x) for every valid x.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Reason: ReasonEmpty, Raw: raw}
	}

	international := strings.HasPrefix(trimmed, "+")
	digits := stripNonDigits(trimmed)

	// "0092..." and "+92..." are the same number. Country codes never start
	// with zero, so "000..." is not an exit-code form.
	if !international && strings.HasPrefix(digits, "00") && len(digits) > 2 && digits[2] != '0' {
		digits = digits[2:]
		international = true
	}

	if len(digits) < 7 || len(digits) > 15 {
		return "", &ValidationError{Reason: ReasonLength, Raw: raw}
	}
	if international && strings.HasPrefix(digits, "0") {
		return "", &ValidationError{Reason: ReasonPattern, Raw: raw}
	}

	rule := DetectRule(digits)
	if err := validate(rule, digits, raw); err != nil {
		return "", err
	}

	// Local numbers may not start with zero outside the Pakistani trunk form.
	if rule != RulePakistan && strings.HasPrefix(digits, "0") {
		return "", &ValidationError{Reason: ReasonPattern, Raw: raw}
	}

	switch {
	case international:
		return "+" + digits, nil
	case len(digits) > 10 && !strings.HasPrefix(digits, "0"):
		return "+" + digits, nil
	default:
		return digits, nil
	}
}

// validate applies the country-specific refinement for the detected rule.
func validate(rule CountryRule, digits, raw string) error {
	switch rule {
	case RulePakistan:
		return validatePakistan(digits, raw)
	case RuleNorthAmerica:
		if len(digits) != 11 {
			return &ValidationError{Reason: ReasonCountry, Raw: raw}
		}
	case RuleUK:
		sig := strings.TrimPrefix(digits, "44")
		if len(sig) < 9 || len(sig) > 10 {
			return &ValidationError{Reason: ReasonCountry, Raw: raw}
		}
	case RuleUAE:
		sig := strings.TrimPrefix(digits, "971")
		if len(sig) != 9 {
			return &ValidationError{Reason: ReasonCountry, Raw: raw}
		}
	case RuleGeneric:
		// The 7-15 digit shape check already passed.
	}
	return nil
}

// validatePakistan checks the ten significant digits of a Pakistani mobile
// number: the leading pair must be a known mobile prefix, and degenerate
// all-zero or all-repeated strings are rejected.
func validatePakistan(digits, raw string) error {
	var sig string
	switch {
	case strings.HasPrefix(digits, "92") && len(digits) == 12:
		sig = digits[2:]
	case strings.HasPrefix(digits, "0") && len(digits) == 11:
		sig = digits[1:]
	case len(digits) == 10:
		sig = digits
	default:
		return &ValidationError{Reason: ReasonCountry, Raw: raw}
	}

	if !pkMobilePrefixes[sig[:2]] {
		return &ValidationError{Reason: ReasonCountry, Raw: raw}
	}
	if allSameDigit(sig) || allZero(sig) {
		return &ValidationError{Reason: ReasonPattern, Raw: raw}
	}
	return nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}

func allZero(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' {
			return false
		}
	}
	return len(s) > 0
}
