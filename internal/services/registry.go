package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/paperflow/internal/models"
	"google.golang.org/api/iterator"
)

// Registry records every downloaded paper in Firestore, keyed by PDF ID.
// It exists for cross-run auditing and content-hash duplicate detection;
// registry failures after setup degrade to warnings and never fail a row.
type Registry struct {
	client     *firestore.Client
	collection string
}

// NewRegistry wraps a Firestore client and collection name.
func NewRegistry(client *firestore.Client, collection string) *Registry {
	return &Registry{client: client, collection: collection}
}

// KnownHashes loads the content-hash index: file hash to PDF ID for every
// recorded paper. Used once at run start to flag duplicate downloads.
func (r *Registry) KnownHashes(ctx context.Context) (map[string]string, error) {
	hashes := make(map[string]string)
	it := r.client.Collection(r.collection).Documents(ctx)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list registry documents: %w", err)
		}
		var doc models.PaperDocument
		if err := snap.DataTo(&doc); err != nil {
			continue
		}
		if doc.FileHash != "" {
			hashes[doc.FileHash] = doc.PDFID
		}
	}
	return hashes, nil
}

// Record upserts the registry entry for one paper.
func (r *Registry) Record(ctx context.Context, doc *models.PaperDocument) error {
	if doc.PDFID == "" {
		return fmt.Errorf("cannot record a paper without a PDF ID")
	}
	if _, err := r.client.Collection(r.collection).Doc(doc.PDFID).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to record paper %s: %w", doc.PDFID, err)
	}
	return nil
}

// SetStatus updates the status (and optional error details) of one paper.
func (r *Registry) SetStatus(ctx context.Context, pdfID, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	if _, err := r.client.Collection(r.collection).Doc(pdfID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update status for paper %s: %w", pdfID, err)
	}
	return nil
}
