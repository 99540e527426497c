package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterPrintable(t *testing.T) {
	testCases := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "plain ascii passes through",
			input:    []byte("BT /F1 12 Tf (Hello) Tj ET"),
			expected: "BT /F1 12 Tf (Hello) Tj ET",
		},
		{
			name:     "control bytes dropped",
			input:    []byte("abc\x00\x01\x02def"),
			expected: "abcdef",
		},
		{
			name:     "whitespace preserved",
			input:    []byte("line one\nline two\ttabbed\r"),
			expected: "line one\nline two\ttabbed\r",
		},
		{
			name:     "unicode text preserved",
			input:    []byte("résumé café"),
			expected: "résumé café",
		},
		{
			name:     "invalid utf8 bytes dropped",
			input:    []byte{'a', 0xff, 0xfe, 'b'},
			expected: "ab",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, string(filterPrintable(tc.input)))
		})
	}
}

func TestExtractorNames(t *testing.T) {
	assert.Equal(t, "plaintext", PlainTextExtractor{}.Name())
	assert.Equal(t, "contentstream", ContentStreamExtractor{}.Name())
}

func TestPlainTextExtractorRejectsMissingFile(t *testing.T) {
	_, err := PlainTextExtractor{}.ExtractText("does-not-exist.pdf")
	assert.Error(t, err)
}
