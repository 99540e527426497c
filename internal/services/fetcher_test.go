package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lllllllleong/paperflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T) *FetcherFunction {
	t.Helper()
	f := NewFetcher(FetcherConfig{
		StorageDir: t.TempDir(),
		RowDelay:   time.Millisecond,
	}, nil)
	ids := []string{"aaaa1111", "bbbb2222", "cccc3333"}
	f.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	return f
}

func TestProcessDownloadsClassifiedPDF(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 test content"))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	table := models.NewTable([][]string{
		{"title", "link"},
		{"Paper A", server.URL + "/paper.pdf"},
	})

	stats := f.Process(context.Background(), table)

	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, browserUserAgent, gotUserAgent)

	assert.Equal(t, models.AvailabilityYes, table.Get(0, models.ColPDFAvailable))
	assert.Equal(t, "aaaa1111", table.Get(0, models.ColPDFID))

	path := table.Get(0, models.ColPDFPath)
	assert.Equal(t, filepath.Join(f.config.StorageDir, "aaaa1111.pdf"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test content", string(content))
}

func TestProcessMarksFailedDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := newTestFetcher(t)
	table := models.NewTable([][]string{
		{"title", "link"},
		{"Paper A", server.URL + "/missing.pdf"},
	})

	stats := f.Process(context.Background(), table)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, models.AvailabilityFailed, table.Get(0, models.ColPDFAvailable))
	assert.Equal(t, "", table.Get(0, models.ColPDFID))
	assert.Equal(t, "", table.Get(0, models.ColPDFPath))
}

func TestProcessSkipsNonPDFAndBlankLinks(t *testing.T) {
	f := newTestFetcher(t)
	table := models.NewTable([][]string{
		{"title", "link"},
		{"Paper A", "https://example.com/landing-page"},
		{"Paper B", "   "},
	})

	stats := f.Process(context.Background(), table)

	assert.Equal(t, 1, stats.NonPDF)
	assert.Equal(t, 0, stats.Downloaded)
	assert.Equal(t, models.AvailabilityNo, table.Get(0, models.ColPDFAvailable))
	assert.Equal(t, models.AvailabilityNo, table.Get(1, models.ColPDFAvailable))
}

func TestProcessLeavesStoredRowsUntouched(t *testing.T) {
	f := newTestFetcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.config.StorageDir, "deadbeef.pdf"), []byte("%PDF"), 0o644))

	table := models.NewTable([][]string{
		{"title", "link", models.ColPDFAvailable, models.ColPDFID, models.ColPDFPath},
		{"Paper A", "https://example.com/paper.pdf", models.AvailabilityYes, "deadbeef", "papers_pdf_id/deadbeef.pdf"},
	})

	stats := f.Process(context.Background(), table)

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, models.AvailabilityYes, table.Get(0, models.ColPDFAvailable))
	assert.Equal(t, "deadbeef", table.Get(0, models.ColPDFID))
	assert.Equal(t, "papers_pdf_id/deadbeef.pdf", table.Get(0, models.ColPDFPath))
}

func TestProcessRedownloadsWhenBlobMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 fresh copy"))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	table := models.NewTable([][]string{
		{"title", "link", models.ColPDFAvailable, models.ColPDFID, models.ColPDFPath},
		{"Paper A", server.URL + "/paper.pdf", models.AvailabilityYes, "deadbeef", "papers_pdf_id/deadbeef.pdf"},
	})

	stats := f.Process(context.Background(), table)

	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, "aaaa1111", table.Get(0, models.ColPDFID))
}

func TestProcessWithoutLinkColumn(t *testing.T) {
	f := newTestFetcher(t)
	table := models.NewTable([][]string{
		{"title"},
		{"Paper A"},
	})

	stats := f.Process(context.Background(), table)

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Downloaded+stats.Failed+stats.NonPDF+stats.Skipped)
	assert.False(t, table.HasColumn(models.ColPDFAvailable))
}

func TestFetchRemovesPartialFileOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		_, _ = w.Write([]byte("short"))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), server.URL+"/paper.pdf", "aaaa1111")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(f.config.StorageDir, "aaaa1111.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}
