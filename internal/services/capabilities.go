// Package services implements the paper processing pipeline: link
// classification, PDF download, methodology extraction and the keyed merge
// back into the sheet. External capabilities (tabular store, blob upload,
// analysis jobs, completions, text extraction) are consumed through the
// interfaces below so tests can substitute fakes.
package services

import (
	"context"

	"github.com/Lllllllleong/paperflow/internal/models"
)

// TabularStore reads and writes cell ranges of the source-of-record sheet.
type TabularStore interface {
	Read(ctx context.Context, rangeName string) ([][]string, error)
	Write(ctx context.Context, rangeName string, values [][]string) (int, error)
}

// BlobUploader stores a local document and returns an opaque reference to it.
type BlobUploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// AnalysisJobs runs asynchronous document-aware analysis. Jobs transition
// only on the provider side; callers learn about progress by polling.
type AnalysisJobs interface {
	CreateJob(ctx context.Context, uploadRef, instructions string) (string, error)
	PollStatus(ctx context.Context, handle string) (models.JobState, error)
	FetchResult(ctx context.Context, handle string) (string, error)
}

// Completer issues a single-shot completion request.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// TextExtractor pulls raw text out of a local PDF.
type TextExtractor interface {
	Name() string
	ExtractText(path string) (string, error)
}
