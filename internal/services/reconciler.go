package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Lllllllleong/paperflow/internal/models"
)

// ReconcilerConfig holds configuration for the merge and write-back stage.
type ReconcilerConfig struct {
	Worksheet    string
	SnapshotPath string
}

// Reconciler merges extraction results back into the full table, keyed by
// PDF ID, then overwrites the destination sheet and writes a local snapshot.
type Reconciler struct {
	store  TabularStore
	config ReconcilerConfig
}

// NewReconciler creates a reconciler over the given tabular store.
func NewReconciler(store TabularStore, config ReconcilerConfig) *Reconciler {
	if config.Worksheet == "" {
		config.Worksheet = "Sheet1"
	}
	return &Reconciler{store: store, config: config}
}

// Load reads the given cell range into a table. Running this before any
// per-document work starts surfaces store misconfiguration while the run is
// still cheap to abort.
func (r *Reconciler) Load(ctx context.Context, readRange string) (*models.Table, error) {
	rangeName := fmt.Sprintf("%s!%s", r.config.Worksheet, readRange)
	rows, err := r.store.Read(ctx, rangeName)
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rangeName, err)
	}
	table := models.NewTable(rows)
	if table.Len() == 0 {
		return nil, fmt.Errorf("no data rows in range %s", rangeName)
	}
	slog.Info("Loaded sheet.", "range", rangeName, "rows", table.Len(), "columns", len(table.Columns))
	return table, nil
}

// Merge sets the methodology cell of every row whose PDF ID has an entry in
// summaries and returns how many rows changed. Everything else passes
// through untouched: rows absent from the mapping keep whatever their
// methodology cell already held, and no other column is written.
func (r *Reconciler) Merge(table *models.Table, summaries map[string]string) int {
	table.EnsureColumn(models.ColMethodology)

	merged := 0
	for i := 0; i < table.Len(); i++ {
		id := strings.TrimSpace(table.Get(i, models.ColPDFID))
		if id == "" {
			continue
		}
		summary, ok := summaries[id]
		if !ok {
			continue
		}
		table.Set(i, models.ColMethodology, summary)
		merged++
	}
	slog.Info("Merged summaries into table.", "rowsUpdated", merged, "rowCount", table.Len())
	return merged
}

// WriteBack overwrites the destination sheet with the full table: header row
// plus data rows, sized to exactly the table's extent from the origin cell.
// Embedded newlines are replaced with spaces so no cell breaks the
// destination's row model. There is no concurrency check; a concurrent
// external edit is clobbered by this overwrite.
func (r *Reconciler) WriteBack(ctx context.Context, table *models.Table) (int, error) {
	values := sanitizeValues(table.Values())
	rangeName := fmt.Sprintf("%s!A1:%s%d", r.config.Worksheet, columnLetter(len(table.Columns)), len(values))

	slog.Info("Writing table back to sheet.", "range", rangeName)
	cells, err := r.store.Write(ctx, rangeName, values)
	if err != nil {
		return 0, fmt.Errorf("failed to write range %s: %w", rangeName, err)
	}
	slog.Info("Sheet updated.", "updatedCells", cells)
	return cells, nil
}

// Snapshot writes the table to the local CSV file unconditionally. This is
// the recovery path when the remote write fails.
func (r *Reconciler) Snapshot(table *models.Table) error {
	if r.config.SnapshotPath == "" {
		return nil
	}
	f, err := os.Create(r.config.SnapshotPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", r.config.SnapshotPath, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(table.Values()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write snapshot %s: %w", r.config.SnapshotPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finalize snapshot %s: %w", r.config.SnapshotPath, err)
	}
	slog.Info("Local snapshot saved.", "file", r.config.SnapshotPath)
	return nil
}

var cellSanitizer = strings.NewReplacer("\n", " ", "\r", " ")

func sanitizeValues(values [][]string) [][]string {
	for i, row := range values {
		for j, cell := range row {
			values[i][j] = cellSanitizer.Replace(cell)
		}
	}
	return values
}

// columnLetter converts a 1-based column count to its A1-notation letters.
func columnLetter(n int) string {
	if n <= 0 {
		return "A"
	}
	var letters []byte
	for n > 0 {
		n--
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n /= 26
	}
	return string(letters)
}
