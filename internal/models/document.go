package models

import "time"

// Registry statuses for a downloaded paper.
const (
	StatusDownloaded = "DOWNLOADED"
	StatusSummarized = "SUMMARIZED"
	StatusFailed     = "FAILED"
)

// PaperDocument is the Firestore record for one downloaded PDF. It tracks
// provenance and processing status across runs; the PDF ID doubles as the
// Firestore document ID.
type PaperDocument struct {
	PDFID        string    `firestore:"pdfId,omitempty"`
	SourceURL    string    `firestore:"sourceUrl,omitempty"`
	FileHash     string    `firestore:"fileHash,omitempty"`
	PageCount    int       `firestore:"pageCount,omitempty"`
	Status       string    `firestore:"status,omitempty"`
	ErrorDetails string    `firestore:"errorDetails,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt,omitempty"`
}
