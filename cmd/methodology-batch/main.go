// Command methodology-batch runs the extraction pass over every stored PDF:
// it generates a methodology summary per document, merges the results back
// into the paper sheet keyed by PDF ID, and saves a local snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/paperflow/internal/gcp"
	"github.com/Lllllllleong/paperflow/internal/services"
)

type config struct {
	SpreadsheetID    string
	Worksheet        string
	ReadRange        string
	StorageDir       string
	SummariesDir     string
	ProjectID        string
	Collection       string
	Bucket           string
	Region           string
	WorkflowID       string
	WorkflowLocation string
	SnapshotPath     string
}

func loadConfig() (*config, error) {
	cfg := &config{
		Worksheet:        gcp.GetEnv("WORKSHEET_NAME", "Sheet1"),
		ReadRange:        gcp.GetEnv("READ_RANGE", "A1:Z1000"),
		StorageDir:       gcp.GetEnv("PDF_DIR", "papers_pdf_id"),
		SummariesDir:     gcp.GetEnv("SUMMARIES_DIR", "summaries"),
		ProjectID:        gcp.GetEnv("PROJECT_ID", ""),
		Collection:       gcp.GetEnv("FIRESTORE_COLLECTION", gcp.DefaultCollection),
		Bucket:           gcp.GetEnv("GCS_BUCKET", ""),
		Region:           gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", "methodology-analyzer"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		SnapshotPath:     gcp.GetEnv("SNAPSHOT_FILE", "processed_sheet_with_methodology.csv"),
	}

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
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
	mode := flag.String("mode", "upload", "extraction mode: upload (document-native analysis) or text (local text extraction)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Invalid configuration.", "error", err)
		os.Exit(1)
	}

	// Every capability is constructed, and the sheet is read, before the
	// first document is touched: a misconfigured client must abort the run
	// while it is still cheap.
	sheetsClient, err := gcp.NewSheetsClient(ctx, cfg.SpreadsheetID)
	if err != nil {
		slog.Error("Failed to create sheets client.", "error", err)
		os.Exit(1)
	}
	reconciler := services.NewReconciler(sheetsClient, services.ReconcilerConfig{
		Worksheet:    cfg.Worksheet,
		SnapshotPath: cfg.SnapshotPath,
	})
	table, err := reconciler.Load(ctx, cfg.ReadRange)
	if err != nil {
		slog.Error("Failed to read sheet.", "error", err)
		os.Exit(1)
	}

	completer, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		slog.Error("Failed to create vertex client.", "error", err)
		os.Exit(1)
	}
	defer completer.Close()

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Failed to create firestore client.", "error", err)
		os.Exit(1)
	}
	defer fsClient.Close()
	registry := services.NewRegistry(fsClient, cfg.Collection)

	engineConfig := services.EngineConfig{
		Mode:         services.EngineMode(*mode),
		StorageDir:   cfg.StorageDir,
		SummariesDir: cfg.SummariesDir,
	}

	var uploader services.BlobUploader
	var jobs services.AnalysisJobs
	var extractors []services.TextExtractor

	switch engineConfig.Mode {
	case services.ModeUpload:
		if cfg.Bucket == "" {
			slog.Error("Invalid configuration.", "error", "GCS_BUCKET environment variable must be set in upload mode")
			os.Exit(1)
		}
		gcsUploader, err := gcp.NewGCSUploader(ctx, cfg.Bucket)
		if err != nil {
			slog.Error("Failed to create storage client.", "error", err)
			os.Exit(1)
		}
		defer gcsUploader.Close()
		uploader = gcsUploader

		workflowJobs, err := gcp.NewWorkflowJobs(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID)
		if err != nil {
			slog.Error("Failed to create workflow executions client.", "error", err)
			os.Exit(1)
		}
		defer workflowJobs.Close()
		jobs = workflowJobs
	case services.ModeText:
		extractors = []services.TextExtractor{
			services.PlainTextExtractor{},
			services.ContentStreamExtractor{},
		}
	}

	engine, err := services.NewEngine(engineConfig, uploader, jobs, completer, extractors, registry)
	if err != nil {
		slog.Error("Failed to create extraction engine.", "error", err)
		os.Exit(1)
	}

	summaries, stats, err := engine.ProcessAll(ctx)
	if err != nil {
		slog.Error("Extraction batch failed.", "error", err)
		os.Exit(1)
	}

	merged := reconciler.Merge(table, summaries)

	if _, err := reconciler.WriteBack(ctx, table); err != nil {
		slog.Error("Sheet update failed; the local snapshot is the recovery path. Run sheet-updater to retry.", "error", err)
	}
	if err := reconciler.Snapshot(table); err != nil {
		slog.Error("Failed to save local snapshot.", "error", err)
	}

	slog.Info("Run summary.",
		"documents", stats.Total, "successful", stats.Successful, "failed", stats.Failed,
		"successRate", fmt.Sprintf("%.1f%%", stats.SuccessRate()), "rowsMerged", merged)
}
