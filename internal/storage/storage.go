// Package storage defines the persistence interface for documents and
// cluster metadata. The engines expose no serialization of their own; state
// is reconstructed at process start by replaying stored documents in
// insertion order.
package storage

import (
	"context"

	"github.com/hyperjump/matome/internal/models"
)

// Store defines document and cluster-name persistence operations.
type Store interface {
	// SaveDocument inserts or replaces a document by id.
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	// GetDocumentBySource returns the document with the given source key.
	GetDocumentBySource(ctx context.Context, source string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	// ListDocumentsInOrder returns every document ordered by insertion
	// position; this is the replay order for restore.
	ListDocumentsInOrder(ctx context.Context) ([]*models.Document, error)
	// ListRecent returns up to limit documents, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)

	// SaveClusterName records a cluster rename so it survives replay.
	SaveClusterName(ctx context.Context, clusterID int64, name string) error
	// ListClusterNames returns all recorded rename overrides.
	ListClusterNames(ctx context.Context) (map[int64]string, error)

	Close() error
}
