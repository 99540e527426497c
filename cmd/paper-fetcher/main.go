// Command paper-fetcher runs the fetch pass: it reads the paper sheet,
// classifies every row's link, downloads the PDFs and writes the sheet back
// with the PDF Available / PDF ID / PDF Path columns filled in.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/paperflow/internal/gcp"
	"github.com/Lllllllleong/paperflow/internal/models"
	"github.com/Lllllllleong/paperflow/internal/services"
	"golang.org/x/sync/errgroup"
)

type config struct {
	SpreadsheetID string
	Worksheet     string
	ReadRange     string
	LinkColumn    string
	StorageDir    string
	ProjectID     string
	Collection    string
	SnapshotPath  string
}

func loadConfig() (*config, error) {
	cfg := &config{
		Worksheet:    gcp.GetEnv("WORKSHEET_NAME", "Sheet1"),
		ReadRange:    gcp.GetEnv("READ_RANGE", "A1:Z1000"),
		LinkColumn:   gcp.GetEnv("LINK_COLUMN", "link"),
		StorageDir:   gcp.GetEnv("PDF_DIR", "papers_pdf_id"),
		ProjectID:    gcp.GetEnv("PROJECT_ID", ""),
		Collection:   gcp.GetEnv("FIRESTORE_COLLECTION", gcp.DefaultCollection),
		SnapshotPath: gcp.GetEnv("SNAPSHOT_FILE", "processed_sheet_data.csv"),
	}

	cfg.SpreadsheetID = gcp.GetEnv("SPREADSHEET_ID", "")
	if cfg.SpreadsheetID == "" {
		sheetURL := gcp.GetEnv("SHEET_URL", "")
		if sheetURL == "" {
			return nil, fmt.Errorf("SPREADSHEET_ID or SHEET_URL environment variable must be set")
		}
		id, err := gcp.SpreadsheetIDFromURL(sheetURL)
		if err != nil {
			return nil, err
		}
		cfg.SpreadsheetID = id
	}
	return cfg, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Invalid configuration.", "error", err)
		os.Exit(1)
	}

	sheetsClient, err := gcp.NewSheetsClient(ctx, cfg.SpreadsheetID)
	if err != nil {
		slog.Error("Failed to create sheets client.", "error", err)
		os.Exit(1)
	}

	var registry *services.Registry
	if cfg.ProjectID != "" {
		fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			slog.Error("Failed to create firestore client.", "error", err)
			os.Exit(1)
		}
		defer fsClient.Close()
		registry = services.NewRegistry(fsClient, cfg.Collection)
	} else {
		slog.Warn("PROJECT_ID not set; running without the paper registry.")
	}

	readRange := fmt.Sprintf("%s!%s", cfg.Worksheet, cfg.ReadRange)

	// The sheet read and the registry hash warm-up are independent; the
	// per-row processing afterwards stays strictly sequential.
	var rows [][]string
	var knownHashes map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = sheetsClient.Read(gctx, readRange)
		return err
	})
	if registry != nil {
		g.Go(func() error {
			hashes, err := registry.KnownHashes(gctx)
			if err != nil {
				slog.Warn("Could not load registry hashes; duplicate detection disabled.", "error", err)
				return nil
			}
			knownHashes = hashes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("Failed to read sheet.", "error", err, "range", readRange)
		os.Exit(1)
	}

	table := models.NewTable(rows)
	if table.Len() == 0 {
		slog.Error("No data found in sheet.", "range", readRange)
		os.Exit(1)
	}
	slog.Info("Loaded sheet.", "rows", table.Len(), "columns", len(table.Columns))

	fetcher := services.NewFetcher(services.FetcherConfig{
		StorageDir: cfg.StorageDir,
		LinkColumn: cfg.LinkColumn,
	}, registry)
	fetcher.SeedHashes(knownHashes)

	stats := fetcher.Process(ctx, table)

	reconciler := services.NewReconciler(sheetsClient, services.ReconcilerConfig{
		Worksheet:    cfg.Worksheet,
		SnapshotPath: cfg.SnapshotPath,
	})
	if _, err := reconciler.WriteBack(ctx, table); err != nil {
		slog.Error("Sheet update failed; the local snapshot is the recovery path. Run sheet-updater to retry.", "error", err)
	}
	if err := reconciler.Snapshot(table); err != nil {
		slog.Error("Failed to save local snapshot.", "error", err)
	}

	slog.Info("Run summary.",
		"total", stats.Total, "downloaded", stats.Downloaded, "failed", stats.Failed,
		"skipped", stats.Skipped, "notPdf", stats.NonPDF)
}
