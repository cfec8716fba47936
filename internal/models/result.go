package models

// SearchResult is a single ranked hit. Score is cosine similarity in [0,1];
// zero-score hits can appear when fewer than top_k rows match the query.
type SearchResult struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title,omitempty"`
	Score     float64 `json:"score"`
	ClusterID *int64  `json:"cluster_id,omitempty"`
	Snippet   string  `json:"snippet,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string          `json:"query"`
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	ClusterID *int64          `json:"cluster_id,omitempty"`
	QueryTime int64           `json:"query_time_ms"`
}

// LookupResult is a single keyword-catalog hit (exact term lookup over
// titles and concept names, distinct from similarity search).
type LookupResult struct {
	ID    int64   `json:"id"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`
}

// Stats summarizes engine state for the status surface.
type Stats struct {
	Documents      int64 `json:"documents"`
	Clusters       int   `json:"clusters"`
	IndexedRows    int   `json:"indexed_rows"`
	VocabularySize int   `json:"vocabulary_size"`
	KeywordDocs    int64 `json:"keyword_docs"`
}
