package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lllllllleong/paperflow/internal/idgen"
	"github.com/Lllllllleong/paperflow/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// browserUserAgent mimics a desktop browser; several publisher sites refuse
// the default Go client identity.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const downloadChunkSize = 8192

// FetcherConfig holds all configuration for the fetch pass.
type FetcherConfig struct {
	StorageDir string
	LinkColumn string
	Timeout    time.Duration
	RowDelay   time.Duration
}

// FetchStats summarizes one fetch pass.
type FetchStats struct {
	Total      int
	Downloaded int
	Failed     int
	Skipped    int
	NonPDF     int
}

// FetcherFunction classifies each row's link and downloads classified PDFs
// into ID-named files under the storage directory.
type FetcherFunction struct {
	client      *http.Client
	registry    *Registry
	knownHashes map[string]string
	newID       func() string
	config      FetcherConfig
}

// NewFetcher creates a fetcher. The registry is optional; without it the
// fetch pass still works, it just records nothing.
func NewFetcher(config FetcherConfig, registry *Registry) *FetcherFunction {
	if config.StorageDir == "" {
		config.StorageDir = "papers_pdf_id"
	}
	if config.LinkColumn == "" {
		config.LinkColumn = "link"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RowDelay == 0 {
		config.RowDelay = time.Second
	}
	return &FetcherFunction{
		client:      &http.Client{Timeout: config.Timeout},
		registry:    registry,
		knownHashes: make(map[string]string),
		newID:       idgen.New,
		config:      config,
	}
}

// SeedHashes primes the duplicate-content index, typically from
// Registry.KnownHashes at run start.
func (f *FetcherFunction) SeedHashes(hashes map[string]string) {
	for hash, id := range hashes {
		f.knownHashes[hash] = id
	}
}

// Process runs the fetch pass over every row: classify the link, allocate an
// ID, download, and set the pipeline columns. Rows that already carry an ID
// with a stored blob are passed through untouched; per-row failures mark the
// row Failed and the pass continues.
func (f *FetcherFunction) Process(ctx context.Context, table *models.Table) *FetchStats {
	stats := &FetchStats{Total: table.Len()}
	if !table.HasColumn(f.config.LinkColumn) {
		slog.Warn("Link column not found, nothing to process.", "column", f.config.LinkColumn)
		return stats
	}
	table.EnsureColumn(models.ColPDFAvailable)
	table.EnsureColumn(models.ColPDFID)
	table.EnsureColumn(models.ColPDFPath)

	slog.Info("Processing links.", "rowCount", table.Len())

	for i := 0; i < table.Len(); i++ {
		if existingID := strings.TrimSpace(table.Get(i, models.ColPDFID)); existingID != "" {
			blobPath := filepath.Join(f.config.StorageDir, existingID+".pdf")
			if _, err := os.Stat(blobPath); err == nil {
				// Documents are immutable once stored; leave the row as-is.
				stats.Skipped++
				continue
			}
		}

		table.Set(i, models.ColPDFAvailable, models.AvailabilityNo)
		table.Set(i, models.ColPDFID, "")
		table.Set(i, models.ColPDFPath, "")

		rawURL := strings.TrimSpace(table.Get(i, f.config.LinkColumn))
		if rawURL == "" {
			continue
		}

		logCtx := slog.With("row", i+1, "url", truncateForLog(rawURL))
		if !IsPDFURL(rawURL) {
			logCtx.Info("Not a PDF link.")
			stats.NonPDF++
			continue
		}

		id := f.newID()
		blobPath, err := f.Fetch(ctx, rawURL, id)
		if err != nil {
			logCtx.Error("PDF download failed.", "error", err)
			table.Set(i, models.ColPDFAvailable, models.AvailabilityFailed)
			stats.Failed++
		} else {
			logCtx.Info("PDF downloaded.", "pdfId", id)
			table.Set(i, models.ColPDFAvailable, models.AvailabilityYes)
			table.Set(i, models.ColPDFID, id)
			table.Set(i, models.ColPDFPath, blobPath)
			stats.Downloaded++
			f.record(ctx, id, rawURL, blobPath)
		}

		// Politeness throttling between attempts, success or failure.
		wait(ctx, f.config.RowDelay)
	}

	slog.Info("Fetch pass complete.",
		"downloaded", stats.Downloaded, "failed", stats.Failed,
		"skipped", stats.Skipped, "notPdf", stats.NonPDF)
	return stats
}

// Fetch downloads one URL to <storageDir>/<id>.pdf, streamed in bounded
// chunks. A content type not advertising PDF is logged but does not abort
// the download; the classifier's heuristic is trusted for flow control.
func (f *FetcherFunction) Fetch(ctx context.Context, rawURL, id string) (string, error) {
	if err := os.MkdirAll(f.config.StorageDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage dir %s: %w", f.config.StorageDir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "pdf") && !strings.HasSuffix(strings.ToLower(rawURL), ".pdf") {
		slog.Warn("Content type does not advertise PDF, downloading anyway.",
			"contentType", contentType, "url", truncateForLog(rawURL))
	}

	destPath := filepath.Join(f.config.StorageDir, id+".pdf")
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	if _, err := io.CopyBuffer(out, resp.Body, make([]byte, downloadChunkSize)); err != nil {
		_ = out.Close()
		_ = os.Remove(destPath)
		return "", fmt.Errorf("failed to stream download to %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}
	return destPath, nil
}

// record registers the download: content hash, page count, registry entry.
// Everything here is best-effort; a registry outage never fails the row.
func (f *FetcherFunction) record(ctx context.Context, id, sourceURL, path string) {
	hash, err := fileHash(path)
	if err != nil {
		slog.Warn("Failed to hash downloaded PDF.", "pdfId", id, "error", err)
	} else if dupID, ok := f.knownHashes[hash]; ok && dupID != id {
		slog.Warn("Downloaded content matches an already-registered paper.",
			"pdfId", id, "existingPdfId", dupID)
	} else {
		f.knownHashes[hash] = id
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		slog.Warn("Could not determine page count.", "pdfId", id, "error", err)
		pageCount = 0
	}

	if f.registry == nil {
		return
	}
	doc := &models.PaperDocument{
		PDFID:     id,
		SourceURL: sourceURL,
		FileHash:  hash,
		PageCount: pageCount,
		Status:    models.StatusDownloaded,
		CreatedAt: time.Now(),
	}
	if err := f.registry.Record(ctx, doc); err != nil {
		slog.Warn("Failed to record paper in registry.", "pdfId", id, "error", err)
	}
}

func fileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// wait sleeps for d unless the context ends first.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func truncateForLog(s string) string {
	const max = 50
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
