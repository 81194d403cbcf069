package phone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t"} {
		_, err := Normalize(raw)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, ReasonEmpty, verr.Reason)
	}
}

func TestNormalize_Length(t *testing.T) {
	_, err := Normalize("123456") // 6 digits
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonLength, verr.Reason)

	_, err = Normalize("+9234567890123456") // 16 digits
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonLength, verr.Reason)
}

func TestNormalize_Pakistan(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"international with spaces", "+92 334 7600608", "+923347600608"},
		{"double zero exit code", "0092-334-7600608", "+923347600608"},
		{"bare country code", "923347600608", "+923347600608"},
		{"trunk zero local", "0334-7600608", "03347600608"},
		{"ten significant digits", "3347600608", "3347600608"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_PakistanInvalid(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason Reason
	}{
		{"all zeros", "0000000000", ReasonPattern},
		{"repeated digit trunk", "0331111111", ReasonPattern},
		{"repeated significant digits", "+923333333333", ReasonPattern},
		{"bad mobile prefix", "+922812345678", ReasonCountry},
		{"landline prefix", "02112345678", ReasonCountry},
		{"too short for country code", "+92345678", ReasonCountry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "expected rejection for %q", tt.raw)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestNormalize_NorthAmerica(t *testing.T) {
	got, err := Normalize("+1-555-123-4567")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", got)

	got, err = Normalize("1 (555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", got)

	// Ten digits under a NA prefix is not a full NANP number.
	_, err = Normalize("+1555123456")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonCountry, verr.Reason)
}

func TestNormalize_UK(t *testing.T) {
	got, err := Normalize("+44 20 7946 0958")
	require.NoError(t, err)
	assert.Equal(t, "+442079460958", got)

	// Nine significant digits is the short UK form.
	got, err = Normalize("+44 207 946 095")
	require.NoError(t, err)
	assert.Equal(t, "+44207946095", got)

	_, err = Normalize("+44 20 7946") // too few significant digits
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonCountry, verr.Reason)
}

func TestNormalize_UAE(t *testing.T) {
	got, err := Normalize("+971 50 123 4567")
	require.NoError(t, err)
	assert.Equal(t, "+971501234567", got)

	_, err = Normalize("+971 50 123 456") // 8 significant digits
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonCountry, verr.Reason)
}

func TestNormalize_Generic(t *testing.T) {
	got, err := Normalize("864123456")
	require.NoError(t, err)
	assert.Equal(t, "864123456", got)

	got, err = Normalize("+86 137 1234 5678")
	require.NoError(t, err)
	assert.Equal(t, "+8613712345678", got)
}

func TestNormalize_LeadingZeroRejected(t *testing.T) {
	// Only the Pakistani 11-digit trunk form may start with zero.
	for _, raw := range []string{"0501234567", "00000000", "0861234567"} {
		_, err := Normalize(raw)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "expected rejection for %q", raw)
		assert.Equal(t, ReasonPattern, verr.Reason)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"+92 334 7600608",
		"0092-334-7600608",
		"03347600608",
		"+1-555-123-4567",
		"15551234567",
		"+44 20 7946 0958",
		"+971 50 123 4567",
		"864123456",
		"+8613712345678",
	}
	for _, raw := range inputs {
		first, err := Normalize(raw)
		require.NoError(t, err, "first pass for %q", raw)
		second, err := Normalize(first)
		require.NoError(t, err, "second pass for %q", raw)
		assert.Equal(t, first, second, "normalize must be idempotent for %q", raw)
	}
}

func TestNormalize_EquivalentFormsCollapse(t *testing.T) {
	want := "+923347600608"
	for _, raw := range []string{"+92 334 7600608", "0092-334-7600608", "+92-334-7600608", "923347600608"} {
		got, err := Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", raw)
	}
}

func TestDetectRule(t *testing.T) {
	tests := []struct {
		digits string
		want   CountryRule
	}{
		{"923347600608", RulePakistan},
		{"03347600608", RulePakistan},
		{"15551234567", RuleNorthAmerica},
		{"442079460958", RuleUK},
		{"971501234567", RuleUAE},
		{"8613712345678", RuleGeneric},
		{"3347600608", RuleGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectRule(tt.digits), "digits %s", tt.digits)
	}
}

func TestValidationError_Unwraps(t *testing.T) {
	_, err := Normalize("")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Contains(t, err.Error(), "empty")
}
