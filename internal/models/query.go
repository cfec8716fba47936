package models

import "fmt"

// SearchQuery represents a similarity search request. When ClusterID is set,
// results are restricted to documents currently assigned to that cluster.
type SearchQuery struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`
	ClusterID *int64 `json:"cluster_id,omitempty"`
}

// Validate normalizes TopK and rejects malformed queries.
// TopK defaults to 10 and is capped at 100.
func (q *SearchQuery) Validate() error {
	if q.TopK == 0 {
		q.TopK = 10
	}
	if q.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1", ErrInvalidArgument)
	}
	if q.TopK > 100 {
		q.TopK = 100
	}
	if q.ClusterID != nil && *q.ClusterID < 0 {
		return fmt.Errorf("%w: cluster_id must be non-negative", ErrInvalidArgument)
	}
	return nil
}
