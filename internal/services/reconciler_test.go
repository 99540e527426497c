package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/Lllllllleong/paperflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rangeName string
	values    [][]string
	err       error
}

func (s *fakeStore) Read(ctx context.Context, rangeName string) ([][]string, error) {
	return s.values, s.err
}

func (s *fakeStore) Write(ctx context.Context, rangeName string, values [][]string) (int, error) {
	s.rangeName = rangeName
	s.values = values
	if s.err != nil {
		return 0, s.err
	}
	count := 0
	for _, row := range values {
		count += len(row)
	}
	return count, nil
}

func TestLoadBuildsTableFromRange(t *testing.T) {
	store := &fakeStore{values: [][]string{
		{"title", models.ColPDFID},
		{"Paper A", "a1b2c3d4"},
	}}

	r := NewReconciler(store, ReconcilerConfig{Worksheet: "Papers"})
	table, err := r.Load(context.Background(), "A1:Z1000")
	require.NoError(t, err)

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "a1b2c3d4", table.Get(0, models.ColPDFID))
}

func TestLoadSurfacesStoreFailure(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("permission denied")}

	r := NewReconciler(store, ReconcilerConfig{})
	_, err := r.Load(context.Background(), "A1:Z1000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sheet1!A1:Z1000")
}

func TestLoadRejectsEmptySheet(t *testing.T) {
	store := &fakeStore{values: [][]string{{"title", "link"}}}

	r := NewReconciler(store, ReconcilerConfig{})
	_, err := r.Load(context.Background(), "A1:Z1000")
	require.Error(t, err)
}

func TestMergeByPDFID(t *testing.T) {
	table := models.NewTable([][]string{
		{"title", models.ColPDFID},
		{"Paper A", "a1b2c3d4"},
		{"Paper B", ""},
		{"Paper C", "deadbeef"},
	})
	summaries := map[string]string{
		"a1b2c3d4": "summary for A",
		"ffffffff": "summary for a paper not in the sheet",
	}

	r := NewReconciler(&fakeStore{}, ReconcilerConfig{})
	merged := r.Merge(table, summaries)

	assert.Equal(t, 1, merged)
	assert.Equal(t, "summary for A", table.Get(0, models.ColMethodology))
	assert.Equal(t, "", table.Get(1, models.ColMethodology))
	assert.Equal(t, "", table.Get(2, models.ColMethodology))
}

func TestMergeEmptyMapIsNoOp(t *testing.T) {
	table := models.NewTable([][]string{
		{"title", models.ColPDFID, models.ColMethodology},
		{"Paper A", "a1b2c3d4", "existing summary"},
	})

	r := NewReconciler(&fakeStore{}, ReconcilerConfig{})
	merged := r.Merge(table, map[string]string{})

	assert.Equal(t, 0, merged)
	assert.Equal(t, "existing summary", table.Get(0, models.ColMethodology))
}

func TestMergeCreatesMethodologyColumn(t *testing.T) {
	table := models.NewTable([][]string{
		{"title", models.ColPDFID},
		{"Paper A", "a1b2c3d4"},
	})

	r := NewReconciler(&fakeStore{}, ReconcilerConfig{})
	r.Merge(table, map[string]string{})

	assert.True(t, table.HasColumn(models.ColMethodology))
}

func TestWriteBackRangeAndSanitization(t *testing.T) {
	table := models.NewTable([][]string{
		{"title", models.ColPDFID, models.ColMethodology},
		{"Paper A", "a1b2c3d4", "line one\nline two\r\nline three"},
	})

	store := &fakeStore{}
	r := NewReconciler(store, ReconcilerConfig{Worksheet: "Papers"})
	cells, err := r.WriteBack(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 6, cells)
	assert.Equal(t, "Papers!A1:C2", store.rangeName)
	assert.Equal(t, "line one line two  line three", store.values[1][2])
}

func TestWriteBackDefaultWorksheet(t *testing.T) {
	table := models.NewTable([][]string{
		{"title"},
		{"Paper A"},
	})

	store := &fakeStore{}
	r := NewReconciler(store, ReconcilerConfig{})
	_, err := r.WriteBack(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1!A1:A2", store.rangeName)
}

func TestColumnLetter(t *testing.T) {
	testCases := []struct {
		n        int
		expected string
	}{
		{1, "A"},
		{2, "B"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
		{0, "A"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, columnLetter(tc.n), "columnLetter(%d)", tc.n)
	}
}
