package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Lllllllleong/paperflow/internal/gcp"
	"github.com/Lllllllleong/paperflow/internal/models"
)

// EngineMode selects the extraction pipeline. The two modes are alternatives,
// never hybridized: upload mode needs the document-aware analysis capability,
// text mode only needs local extraction plus single-shot completions.
type EngineMode string

const (
	// ModeUpload uploads the document and runs the asynchronous analysis
	// job, falling back to a reference-based completion when the job fails.
	ModeUpload EngineMode = "upload"
	// ModeText extracts text locally and goes straight to the single-shot
	// completion; no document upload happens at all.
	ModeText EngineMode = "text"
)

// FailureSentinel is the summary value recorded when both strategies fail.
const FailureSentinel = "Failed to generate summary"

// EngineConfig holds all configuration for the extraction engine.
type EngineConfig struct {
	Mode            EngineMode
	StorageDir      string
	SummariesDir    string
	PollInterval    time.Duration
	MaxWait         time.Duration // 0 waits indefinitely; a hung job then blocks the batch
	MaxOutputTokens int
	Temperature     float32
	TextBudget      int
	DocDelay        time.Duration
}

// BatchStats summarizes one extraction batch.
type BatchStats struct {
	Total      int
	Successful int
	Failed     int
}

// SuccessRate returns the percentage of documents summarized successfully.
func (s *BatchStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total) * 100
}

// ExtractionEngine produces a structured methodology summary per stored
// document. All capabilities are injected; the registry is optional.
type ExtractionEngine struct {
	uploader   BlobUploader
	jobs       AnalysisJobs
	completer  Completer
	extractors []TextExtractor
	registry   *Registry
	config     EngineConfig
}

// NewEngine validates that the chosen mode has the capabilities it needs and
// applies defaults for everything left unset.
func NewEngine(config EngineConfig, uploader BlobUploader, jobs AnalysisJobs, completer Completer, extractors []TextExtractor, registry *Registry) (*ExtractionEngine, error) {
	if config.StorageDir == "" {
		config.StorageDir = "papers_pdf_id"
	}
	if config.SummariesDir == "" {
		config.SummariesDir = "summaries"
	}
	if config.PollInterval == 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = 2000
	}
	if config.Temperature == 0 {
		config.Temperature = 0.3
	}
	if config.TextBudget == 0 {
		config.TextBudget = 8000
	}

	switch config.Mode {
	case ModeUpload:
		if uploader == nil || jobs == nil || completer == nil {
			return nil, fmt.Errorf("upload mode requires uploader, analysis jobs and completer")
		}
		if config.DocDelay == 0 {
			config.DocDelay = 3 * time.Second
		}
	case ModeText:
		if len(extractors) == 0 || completer == nil {
			return nil, fmt.Errorf("text mode requires at least one text extractor and a completer")
		}
		if config.DocDelay == 0 {
			config.DocDelay = 2 * time.Second
		}
	default:
		return nil, fmt.Errorf("unknown engine mode %q", config.Mode)
	}

	return &ExtractionEngine{
		uploader:   uploader,
		jobs:       jobs,
		completer:  completer,
		extractors: extractors,
		registry:   registry,
		config:     config,
	}, nil
}

// ProcessAll extracts a summary for every stored PDF, sequentially. The
// returned mapping is keyed by PDF ID (the file stem); failed documents map
// to FailureSentinel so the merge still marks them. Per-document failures
// never abort the batch.
func (e *ExtractionEngine) ProcessAll(ctx context.Context) (map[string]string, *BatchStats, error) {
	files, err := filepath.Glob(filepath.Join(e.config.StorageDir, "*.pdf"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list PDFs in %s: %w", e.config.StorageDir, err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no PDF files found in %s", e.config.StorageDir)
	}
	sort.Strings(files)

	slog.Info("Starting extraction batch.", "mode", string(e.config.Mode), "documentCount", len(files))

	summaries := make(map[string]string, len(files))
	stats := &BatchStats{Total: len(files)}

	for i, file := range files {
		pdfID := strings.TrimSuffix(filepath.Base(file), ".pdf")
		logCtx := slog.With("pdfId", pdfID)
		logCtx.Info("Processing document.", "index", i+1, "total", len(files))

		summary, err := e.Extract(ctx, file)
		if err != nil {
			logCtx.Error("Failed to generate methodology summary.", "error", err)
			summaries[pdfID] = FailureSentinel
			stats.Failed++
			e.setStatus(ctx, pdfID, models.StatusFailed, err.Error())
		} else {
			summaries[pdfID] = FormatForSheet(summary)
			stats.Successful++
			e.setStatus(ctx, pdfID, models.StatusSummarized, "")
		}

		if i < len(files)-1 {
			wait(ctx, e.config.DocDelay)
		}
	}

	slog.Info("Extraction batch complete.",
		"total", stats.Total, "successful", stats.Successful, "failed", stats.Failed,
		"successRate", fmt.Sprintf("%.1f%%", stats.SuccessRate()))
	return summaries, stats, nil
}

// Extract produces the raw summary for one document according to the
// configured mode. The summary file under SummariesDir is written before
// returning; it is the durable checkpoint if the later sheet write fails.
func (e *ExtractionEngine) Extract(ctx context.Context, pdfPath string) (string, error) {
	var summary string
	var err error
	switch e.config.Mode {
	case ModeText:
		summary, err = e.extractViaText(ctx, pdfPath)
	default:
		summary, err = e.extractViaUpload(ctx, pdfPath)
	}
	if err != nil {
		return "", err
	}
	if err := e.persistSummary(pdfPath, summary); err != nil {
		return "", err
	}
	return summary, nil
}

// extractViaUpload is Strategy A with its Strategy B fallback: upload the
// blob, run the asynchronous analysis job, and on any job failure issue one
// single-shot completion that embeds the upload reference in the prompt.
func (e *ExtractionEngine) extractViaUpload(ctx context.Context, pdfPath string) (string, error) {
	ref, err := e.uploader.Upload(ctx, pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	slog.Info("Document uploaded.", "ref", ref)

	summary, jobErr := e.runAnalysisJob(ctx, ref)
	if jobErr == nil {
		return summary, nil
	}
	slog.Warn("Document-native analysis failed, falling back to single-shot completion.", "error", jobErr)

	prompt := fmt.Sprintf(gcp.ReferencePromptFormat, ref, ref)
	summary, err = e.completer.Complete(ctx, prompt, e.config.MaxOutputTokens, e.config.Temperature)
	if err != nil {
		return "", fmt.Errorf("fallback completion failed: %w", err)
	}
	return summary, nil
}

// runAnalysisJob drives the job state machine: create, poll at a fixed
// interval while pending, consume the result on completion. Any terminal
// state other than completed is a failure; no retry happens here.
func (e *ExtractionEngine) runAnalysisJob(ctx context.Context, ref string) (string, error) {
	handle, err := e.jobs.CreateJob(ctx, ref, gcp.AnalyzerInstructions)
	if err != nil {
		return "", fmt.Errorf("failed to create analysis job: %w", err)
	}

	var deadline time.Time
	if e.config.MaxWait > 0 {
		deadline = time.Now().Add(e.config.MaxWait)
	}

	for {
		state, err := e.jobs.PollStatus(ctx, handle)
		if err != nil {
			return "", fmt.Errorf("failed to poll analysis job: %w", err)
		}
		slog.Info("Analysis job status.", "status", string(state))

		if !state.Pending() {
			if state == models.JobCompleted {
				result, err := e.jobs.FetchResult(ctx, handle)
				if err != nil {
					return "", fmt.Errorf("failed to fetch analysis result: %w", err)
				}
				return result, nil
			}
			return "", fmt.Errorf("analysis job ended with status %s", state)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return "", fmt.Errorf("analysis job still %s after %s", state, e.config.MaxWait)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		wait(ctx, e.config.PollInterval)
	}
}

// extractViaText is the text-extraction variant: pull text locally with the
// first extractor that works, truncate it to the character budget, and issue
// the single-shot completion directly. Strategy A is skipped entirely.
func (e *ExtractionEngine) extractViaText(ctx context.Context, pdfPath string) (string, error) {
	var text string
	for _, extractor := range e.extractors {
		extracted, err := extractor.ExtractText(pdfPath)
		if err != nil {
			slog.Warn("Text extraction failed, trying next extractor.",
				"extractor", extractor.Name(), "error", err)
			continue
		}
		if strings.TrimSpace(extracted) == "" {
			slog.Warn("Text extraction produced nothing, trying next extractor.",
				"extractor", extractor.Name())
			continue
		}
		slog.Info("Extracted text.", "extractor", extractor.Name(), "chars", len(extracted))
		text = extracted
		break
	}
	if text == "" {
		return "", fmt.Errorf("could not extract text from %s", filepath.Base(pdfPath))
	}

	if runes := []rune(text); len(runes) > e.config.TextBudget {
		text = string(runes[:e.config.TextBudget])
	}

	prompt := fmt.Sprintf(gcp.TextPromptFormat, text)
	summary, err := e.completer.Complete(ctx, prompt, e.config.MaxOutputTokens, e.config.Temperature)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	return summary, nil
}

// persistSummary writes the per-document summary file with its banner.
func (e *ExtractionEngine) persistSummary(pdfPath, summary string) error {
	if err := os.MkdirAll(e.config.SummariesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create summaries dir %s: %w", e.config.SummariesDir, err)
	}
	name := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	dest := filepath.Join(e.config.SummariesDir, stem+"_methodology_summary.txt")

	content := fmt.Sprintf("METHODOLOGY SUMMARY FOR: %s\n%s\n\n%s", name, strings.Repeat("=", 60), summary)
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write summary file %s: %w", dest, err)
	}
	slog.Info("Summary saved.", "file", dest)
	return nil
}

func (e *ExtractionEngine) setStatus(ctx context.Context, pdfID, status, errDetails string) {
	if e.registry == nil {
		return
	}
	if err := e.registry.SetStatus(ctx, pdfID, status, errDetails); err != nil {
		slog.Warn("Failed to update registry status.", "pdfId", pdfID, "error", err)
	}
}
