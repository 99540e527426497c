package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// DefaultCollection is the Firestore collection holding the paper registry.
const DefaultCollection = "papers"

// NewFirestoreClient creates a Firestore client for the given project ID.
// It centralizes client creation for the registry.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}
