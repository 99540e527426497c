// Command sheet-updater pushes a previously saved local snapshot back to the
// paper sheet. It is the retry path for a failed write-back at the end of a
// fetch or extraction run.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/paperflow/internal/gcp"
	"github.com/Lllllllleong/paperflow/internal/models"
	"github.com/Lllllllleong/paperflow/internal/services"
)

func loadSnapshot(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	table := models.NewTable(records)
	if table.Len() == 0 {
		return nil, fmt.Errorf("snapshot %s has no data rows", path)
	}
	return table, nil
}

func main() {
	snapshot := gcp.GetEnv("SNAPSHOT_FILE", "processed_sheet_with_methodology.csv")
	worksheet := gcp.GetEnv("WORKSHEET_NAME", "Sheet1")

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	spreadsheetID := gcp.GetEnv("SPREADSHEET_ID", "")
	if spreadsheetID == "" {
		sheetURL := gcp.GetEnv("SHEET_URL", "")
		if sheetURL == "" {
			slog.Error("Invalid configuration.", "error", "SPREADSHEET_ID or SHEET_URL environment variable must be set")
			os.Exit(1)
		}
		id, err := gcp.SpreadsheetIDFromURL(sheetURL)
		if err != nil {
			slog.Error("Invalid configuration.", "error", err)
			os.Exit(1)
		}
		spreadsheetID = id
	}

	table, err := loadSnapshot(snapshot)
	if err != nil {
		slog.Error("Failed to load snapshot.", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded snapshot.", "file", snapshot, "rows", table.Len(), "columns", len(table.Columns))

	sheetsClient, err := gcp.NewSheetsClient(ctx, spreadsheetID)
	if err != nil {
		slog.Error("Failed to create sheets client.", "error", err)
		os.Exit(1)
	}

	reconciler := services.NewReconciler(sheetsClient, services.ReconcilerConfig{Worksheet: worksheet})
	cells, err := reconciler.WriteBack(ctx, table)
	if err != nil {
		slog.Error("Sheet update failed.", "error", err)
		os.Exit(1)
	}
	slog.Info("Sheet restored from snapshot.", "updatedCells", cells)
}
