// Package keyword provides the Bleve implementation of Index.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/matome/internal/models"
)

// catalogEntry is the indexed shape of a document: title plus the extracted
// concept names joined for full-text matching. Raw text is deliberately not
// catalogued; similarity search owns text ranking.
type catalogEntry struct {
	Title    string `json:"title"`
	Concepts string `json:"concepts"`
	Topic    string `json:"topic"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path keeps
// the index in memory; it is then rebuilt from storage on restore.
// If you change the index mapping in code, remove the index directory to
// force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so concept
	// names match exactly as extracted.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("concepts", textFieldMapping)
	docMapping.AddFieldMappingsAt("topic", textFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index catalogues a document by id. Re-indexing an existing id replaces it.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document) error {
	entry := catalogEntry{
		Title:    doc.Title,
		Concepts: strings.Join(doc.Concepts, " "),
		Topic:    doc.Topic,
	}
	return b.index.Index(strconv.FormatInt(doc.ID, 10), entry)
}

// Delete removes a document from the catalog.
func (b *BleveIndex) Delete(ctx context.Context, id int64) error {
	return b.index.Delete(strconv.FormatInt(id, 10))
}

// Search runs a match query over titles, concepts, and topics.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*models.LookupResult, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"title"}
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}
	out := make([]*models.LookupResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		res := &models.LookupResult{ID: id, Score: hit.Score}
		if title, ok := hit.Fields["title"].(string); ok {
			res.Title = title
		}
		out = append(out, res)
	}
	return out, nil
}

// DocCount returns the total number of catalogued documents.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
