// Package concepts provides concept extraction for ingested documents. The
// Extractor interface is the boundary the clustering engine's top-5
// truncation relies on: implementations return concept names ordered most
// relevant first.
package concepts

import "context"

// Extractor turns raw text into an ordered list of concept names,
// most relevant first.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}
