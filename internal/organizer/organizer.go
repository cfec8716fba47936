// Package organizer coordinates the vector index, the clustering engine, the
// concept extractor, persistence, and the keyword catalog. It owns the
// single-writer, multiple-reader lock both engines rely on and the document
// id space they share: the organizer is the only entity that knows
// "document 42 is indexed in the vector index and belongs to cluster 3".
package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/matome/internal/cluster"
	"github.com/hyperjump/matome/internal/concepts"
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/keyword"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/storage"
	"github.com/hyperjump/matome/internal/vector"
	"github.com/hyperjump/matome/pkg/utils"
)

// maxConcurrentExtractions bounds batch concept extraction.
const maxConcurrentExtractions = 8

const snippetWords = 30

// Organizer is the owning application core around the two engines.
type Organizer struct {
	mu sync.RWMutex

	index     *vector.Index
	clusters  *cluster.Engine
	extractor concepts.Extractor
	store     storage.Store
	catalog   keyword.Index
	logger    *zap.Logger

	nextID   int64
	bySource map[string]int64
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithLogger sets a logger for debug output (ingests, assignments, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(o *Organizer) { o.logger = l }
}

// New creates an organizer with the given collaborators. The engine
// tunables come from cfg; extractor, store, and catalog are owned by the
// caller but driven exclusively through the organizer.
func New(
	cfg *config.EngineConfig,
	extractor concepts.Extractor,
	store storage.Store,
	catalog keyword.Index,
	opts ...Option,
) *Organizer {
	o := &Organizer{
		index: vector.NewIndex(vector.Config{
			RebuildThreshold: cfg.RebuildThreshold,
		}),
		clusters: cluster.NewEngine(cluster.Config{
			AssignThreshold: cfg.AssignThreshold,
			NameBoost:       cfg.NameBoost,
			MaxConcepts:     cfg.MaxClusterConcepts,
		}),
		extractor: extractor,
		store:     store,
		catalog:   catalog,
		logger:    zap.NewNop(),
		bySource:  make(map[string]int64),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ingest extracts concepts from the input, indexes the text, assigns a
// cluster, and persists the document. Re-ingesting an existing source key
// updates that document in place.
func (o *Organizer) Ingest(ctx context.Context, input models.IngestInput) (*models.Document, error) {
	// Extraction happens outside the lock; it is the expensive step and
	// touches no engine state.
	extracted, err := o.extractor.Extract(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("extract concepts: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if input.Source != "" {
		if id, ok := o.bySource[input.Source]; ok {
			return o.updateLocked(ctx, id, input, extracted)
		}
	}
	return o.ingestLocked(ctx, input, extracted)
}

// ingestLocked indexes a new document under the write lock.
func (o *Organizer) ingestLocked(ctx context.Context, input models.IngestInput, extracted []string) (*models.Document, error) {
	source := input.Source
	if source == "" {
		source = uuid.NewString()
	}

	id := o.nextID
	if err := o.index.Add(id, input.Text); err != nil {
		return nil, err
	}
	o.nextID++
	clusterID := o.clusters.Assign(id, extracted, input.Topic, input.SkillLevel)

	doc := &models.Document{
		ID:         id,
		Source:     source,
		Title:      input.Title,
		Text:       input.Text,
		Concepts:   extracted,
		Topic:      input.Topic,
		SkillLevel: input.SkillLevel,
		ClusterID:  clusterID,
		Position:   id,
	}
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document %d: %w", id, err)
	}
	if err := o.catalog.Index(ctx, doc); err != nil {
		return nil, fmt.Errorf("catalog document %d: %w", id, err)
	}
	o.bySource[source] = id

	o.logger.Debug("document ingested",
		zap.Int64("id", id),
		zap.Int64("cluster_id", clusterID),
		zap.Strings("concepts", extracted),
	)
	return doc, nil
}

// IngestBatch ingests many documents with exactly one vocabulary rebuild.
// Concept extraction runs concurrently (bounded); the locked section does a
// single AddBatch followed by one cluster assignment per document in input
// order. The whole batch is validated before any mutation.
func (o *Organizer) IngestBatch(ctx context.Context, inputs []models.IngestInput) ([]*models.Document, error) {
	extracted := make([][]string, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExtractions)
	for i := range inputs {
		i := i
		g.Go(func() error {
			c, err := o.extractor.Extract(gctx, inputs[i].Text)
			if err != nil {
				return fmt.Errorf("extract concepts for batch item %d: %w", i, err)
			}
			extracted[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	seen := make(map[string]struct{}, len(inputs))
	ids := make([]int64, len(inputs))
	texts := make([]string, len(inputs))
	for i, input := range inputs {
		if input.Source != "" {
			if _, ok := o.bySource[input.Source]; ok {
				return nil, fmt.Errorf("%w: source %q", models.ErrAlreadyExists, input.Source)
			}
			if _, dup := seen[input.Source]; dup {
				return nil, fmt.Errorf("%w: duplicate source %q in batch", models.ErrInvalidArgument, input.Source)
			}
			seen[input.Source] = struct{}{}
		}
		ids[i] = o.nextID + int64(i)
		texts[i] = input.Text
	}
	if err := o.index.AddBatch(ids, texts); err != nil {
		return nil, err
	}
	o.nextID += int64(len(inputs))

	docs := make([]*models.Document, len(inputs))
	for i, input := range inputs {
		source := input.Source
		if source == "" {
			source = uuid.NewString()
		}
		clusterID := o.clusters.Assign(ids[i], extracted[i], input.Topic, input.SkillLevel)
		doc := &models.Document{
			ID:         ids[i],
			Source:     source,
			Title:      input.Title,
			Text:       input.Text,
			Concepts:   extracted[i],
			Topic:      input.Topic,
			SkillLevel: input.SkillLevel,
			ClusterID:  clusterID,
			Position:   ids[i],
		}
		if err := o.store.SaveDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("persist document %d: %w", ids[i], err)
		}
		if err := o.catalog.Index(ctx, doc); err != nil {
			return nil, fmt.Errorf("catalog document %d: %w", ids[i], err)
		}
		o.bySource[source] = ids[i]
		docs[i] = doc
	}
	o.logger.Info("batch ingested",
		zap.Int("documents", len(docs)),
		zap.Int("clusters", o.clusters.Len()),
	)
	return docs, nil
}

// Update re-extracts concepts and replaces the document's text, cluster
// assignment, and catalog entry. The vector row keeps its insertion-order
// slot when no rebuild is due.
func (o *Organizer) Update(ctx context.Context, id int64, input models.IngestInput) (*models.Document, error) {
	extracted, err := o.extractor.Extract(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("extract concepts: %w", err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.updateLocked(ctx, id, input, extracted)
}

func (o *Organizer) updateLocked(ctx context.Context, id int64, input models.IngestInput, extracted []string) (*models.Document, error) {
	existing, err := o.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.index.Update(id, input.Text); err != nil {
		return nil, err
	}
	clusterID := o.clusters.Assign(id, extracted, input.Topic, input.SkillLevel)

	doc := &models.Document{
		ID:         id,
		Source:     existing.Source,
		Title:      input.Title,
		Text:       input.Text,
		Concepts:   extracted,
		Topic:      input.Topic,
		SkillLevel: input.SkillLevel,
		ClusterID:  clusterID,
		Position:   existing.Position,
		CreatedAt:  existing.CreatedAt,
	}
	if doc.Title == "" {
		doc.Title = existing.Title
	}
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document %d: %w", id, err)
	}
	if err := o.catalog.Index(ctx, doc); err != nil {
		return nil, fmt.Errorf("catalog document %d: %w", id, err)
	}
	o.logger.Debug("document updated", zap.Int64("id", id), zap.Int64("cluster_id", clusterID))
	return doc, nil
}

// Remove deletes the document from the index, its cluster, the store, and
// the catalog. Returns ErrNotFound for unknown ids.
func (o *Organizer) Remove(ctx context.Context, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	doc, err := o.store.GetDocument(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if err := o.index.Remove(id); err != nil {
		return err
	}
	o.clusters.RemoveDocument(id)
	if doc != nil {
		delete(o.bySource, doc.Source)
		if err := o.store.DeleteDocument(ctx, id); err != nil {
			return err
		}
	}
	if err := o.catalog.Delete(ctx, id); err != nil {
		return fmt.Errorf("uncatalog document %d: %w", id, err)
	}
	o.logger.Debug("document removed", zap.Int64("id", id))
	return nil
}

// Search runs a ranked similarity search. When the query names a cluster,
// results are restricted to that cluster's current membership by
// intersecting it with the index's allowed-id filter.
func (o *Organizer) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	o.mu.RLock()
	defer o.mu.RUnlock()

	var allowed map[int64]struct{}
	if q.ClusterID != nil {
		c, err := o.clusters.Cluster(*q.ClusterID)
		if err != nil {
			return nil, err
		}
		allowed = make(map[int64]struct{}, len(c.DocumentIDs))
		for _, id := range c.DocumentIDs {
			allowed[id] = struct{}{}
		}
	}

	hits, err := o.index.Search(q.Query, q.TopK, allowed)
	if err != nil {
		return nil, err
	}

	results := make([]*models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		res := &models.SearchResult{ID: hit.ID, Score: hit.Score}
		if clusterID, ok := o.clusters.ClusterOf(hit.ID); ok {
			res.ClusterID = &clusterID
		}
		if doc, err := o.store.GetDocument(ctx, hit.ID); err == nil {
			res.Title = doc.Title
			res.Snippet = utils.TruncateWords(doc.Text, snippetWords)
		}
		results = append(results, res)
	}
	return &models.SearchResponse{
		Query:     q.Query,
		Results:   results,
		Total:     len(results),
		ClusterID: q.ClusterID,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// Lookup runs an exact keyword lookup over titles and concept names.
func (o *Organizer) Lookup(ctx context.Context, query string, limit int) ([]*models.LookupResult, error) {
	if limit <= 0 {
		limit = 10
	}
	return o.catalog.Search(ctx, query, limit)
}

// Document returns a stored document by id.
func (o *Organizer) Document(ctx context.Context, id int64) (*models.Document, error) {
	return o.store.GetDocument(ctx, id)
}

// Documents returns up to limit documents, newest first.
func (o *Organizer) Documents(ctx context.Context, limit int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	return o.store.ListRecent(ctx, limit)
}

// Clusters returns snapshots of all clusters in ascending id order.
func (o *Organizer) Clusters() []models.Cluster {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.clusters.Clusters()
}

// Cluster returns a snapshot of one cluster.
func (o *Organizer) Cluster(id int64) (models.Cluster, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.clusters.Cluster(id)
}

// RenameCluster renames a cluster and records the override so it survives
// replay.
func (o *Organizer) RenameCluster(ctx context.Context, id int64, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.clusters.Rename(id, name); err != nil {
		return err
	}
	return o.store.SaveClusterName(ctx, id, name)
}

// Stats summarizes engine state.
func (o *Organizer) Stats(ctx context.Context) (*models.Stats, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	count, err := o.store.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}
	keywordDocs, err := o.catalog.DocCount()
	if err != nil {
		return nil, err
	}
	return &models.Stats{
		Documents:      count,
		Clusters:       o.clusters.Len(),
		IndexedRows:    o.index.Size(),
		VocabularySize: o.index.VocabularySize(),
		KeywordDocs:    int64(keywordDocs),
	}, nil
}

// Restore rebuilds both engines from storage by replaying documents in
// insertion order: one AddBatch for the vector index, then one cluster
// assignment per document. Replay is deterministic, so cluster ids come out
// exactly as they were; stored rename overrides are re-applied afterwards.
func (o *Organizer) Restore(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	docs, err := o.store.ListDocumentsInOrder(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) > 0 {
		ids := make([]int64, len(docs))
		texts := make([]string, len(docs))
		for i, doc := range docs {
			ids[i] = doc.ID
			texts[i] = doc.Text
		}
		if err := o.index.AddBatch(ids, texts); err != nil {
			return fmt.Errorf("restore vector index: %w", err)
		}
		for _, doc := range docs {
			clusterID := o.clusters.Assign(doc.ID, doc.Concepts, doc.Topic, doc.SkillLevel)
			if clusterID != doc.ClusterID {
				o.logger.Warn("replay produced a different cluster id",
					zap.Int64("document_id", doc.ID),
					zap.Int64("stored", doc.ClusterID),
					zap.Int64("replayed", clusterID),
				)
			}
			o.bySource[doc.Source] = doc.ID
			if doc.ID >= o.nextID {
				o.nextID = doc.ID + 1
			}
			if err := o.catalog.Index(ctx, doc); err != nil {
				return fmt.Errorf("restore catalog for document %d: %w", doc.ID, err)
			}
		}
	}

	names, err := o.store.ListClusterNames(ctx)
	if err != nil {
		return fmt.Errorf("list cluster names: %w", err)
	}
	for id, name := range names {
		// Overrides for clusters that no longer replay (all documents
		// removed before shutdown) are stale; skip them.
		if err := o.clusters.Rename(id, name); err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
	}

	o.logger.Info("state restored",
		zap.Int("documents", len(docs)),
		zap.Int("clusters", o.clusters.Len()),
	)
	return nil
}

// IngestFile ingests a plain-text file. The source key is the absolute
// path, so re-ingesting the same file updates the existing document.
func (o *Organizer) IngestFile(ctx context.Context, path string) (*models.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}
	return o.Ingest(ctx, models.IngestInput{
		Title:  filepath.Base(abs),
		Text:   string(data),
		Source: abs,
	})
}

// RemoveFile removes the document previously ingested from path. No-op for
// unknown paths.
func (o *Organizer) RemoveFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	o.mu.RLock()
	id, ok := o.bySource[abs]
	o.mu.RUnlock()
	if !ok {
		return nil
	}
	return o.Remove(ctx, id)
}
