package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForSheet(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "collapses blank line runs",
			input:    "Overview\n\n\n\nSteps",
			expected: "Overview\nSteps",
		},
		{
			name:     "collapses horizontal whitespace",
			input:    "uses   deep \t learning",
			expected: "uses deep learning",
		},
		{
			name:     "converts dash bullets",
			input:    "Steps:\n- first\n  - second",
			expected: "Steps:\n• first\n• second",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "  summary text \n",
			expected: "summary text",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatForSheet(tc.input))
		})
	}
}

func TestFormatForSheetIdempotent(t *testing.T) {
	input := "1. **Methodology Overview**\nThe study uses a two-stage pipeline.\n• Stage 1: pretraining\n• Stage 2: finetuning"

	once := FormatForSheet(input)
	twice := FormatForSheet(once)
	assert.Equal(t, once, twice)
}

func TestFormatForSheetTruncation(t *testing.T) {
	input := strings.Repeat("a", MaxCellLength+500)

	result := FormatForSheet(input)

	assert.True(t, strings.HasSuffix(result, TruncationMarker))
	assert.LessOrEqual(t, len([]rune(result)), MaxCellLength+len([]rune(TruncationMarker)))
}

func TestFormatForSheetUnderCapUntouchedLength(t *testing.T) {
	input := strings.Repeat("b", MaxCellLength)

	result := FormatForSheet(input)

	assert.Equal(t, input, result)
	assert.NotContains(t, result, TruncationMarker)
}
