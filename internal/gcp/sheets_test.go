package gcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpreadsheetIDFromURL(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{
			name:     "standard sharing url",
			url:      "https://docs.google.com/spreadsheets/d/1aBcD_eF-9xyz123/edit#gid=0",
			expected: "1aBcD_eF-9xyz123",
		},
		{
			name:     "url without fragment",
			url:      "https://docs.google.com/spreadsheets/d/abc123",
			expected: "abc123",
		},
		{
			name:    "not a sheets url",
			url:     "https://example.com/spreadsheet",
			wantErr: true,
		},
		{
			name:    "empty",
			url:     "",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := SpreadsheetIDFromURL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}
}

func TestToCellValues(t *testing.T) {
	values := [][]string{
		{"a", "b"},
		{"c"},
	}
	cells := toCellValues(values)
	require.Len(t, cells, 2)
	assert.Equal(t, []interface{}{"a", "b"}, cells[0])
	assert.Equal(t, []interface{}{"c"}, cells[1])
}
