package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  aadhaar  ", "ration_card  ", "  land_record"},
			expected: []string{"aadhaar", "ration_card", "land_record"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"aadhaar", "bank_passbook", "aadhaar", "ration_card", "bank_passbook"},
			expected: []string{"aadhaar", "bank_passbook", "ration_card"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"aadhaar", "", "  ", "ration_card"},
			expected: []string{"aadhaar", "ration_card"},
		},
		{
			name:     "keeps case-distinct values",
			input:    []string{"Aadhaar", "aadhaar"},
			expected: []string{"Aadhaar", "aadhaar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeFold(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "folds case and collapses whitespace",
			input:    []string{"  Farmer ", "FARMER", "Fisher   Folk"},
			expected: []string{"farmer", "fisher folk"},
		},
		{
			name:     "drops blank values",
			input:    []string{" ", "", "weaver"},
			expected: []string{"weaver"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeFold(tt.input))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "small farmer", Fold("  Small\tFARMER "))
	assert.Equal(t, "", Fold("   "))
	// Full-width letters normalize under NFKC.
	assert.Equal(t, "bpl", Fold("ＢＰＬ"))
	assert.True(t, EqualFold("Karnataka", " KARNATAKA"))
	assert.False(t, EqualFold("Karnataka", "Kerala"))
}

func TestCasing(t *testing.T) {
	assert.Equal(t, "RAMESH KUMAR", Upper(" ramesh   kumar"))
	assert.Equal(t, "ramesh kumar", Lower("RAMESH  KUMAR "))
	assert.Equal(t, "Ramesh Kumar", Title("ramesh kumar"))
}
