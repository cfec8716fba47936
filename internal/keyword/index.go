// Package keyword provides the keyword catalog: exact term lookup over
// document titles and concept names. It complements the similarity index and
// is never consulted by it.
package keyword

import (
	"context"

	"github.com/hyperjump/matome/internal/models"
)

// Index defines keyword catalog operations.
type Index interface {
	Index(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id int64) error
	// Search runs a match query over titles and concepts and returns up to
	// limit hits, best first.
	Search(ctx context.Context, query string, limit int) ([]*models.LookupResult, error)
	// DocCount returns the total number of catalogued documents.
	DocCount() (uint64, error)
	Close() error
}
