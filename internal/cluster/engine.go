// Package cluster provides concept-based auto-clustering: each new document,
// represented by its extracted concept set, is assigned to the best-matching
// existing cluster by Jaccard similarity or starts a new one.
//
// Like the vector index, the engine follows a single-writer,
// multiple-reader discipline enforced by the caller.
package cluster

import (
	"fmt"
	"sort"

	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/similarity"
)

// Defaults for the matching tunables. Empirically chosen; kept configurable
// because their optimality is unverified.
const (
	DefaultAssignThreshold = 0.5
	DefaultNameBoost       = 0.2
	DefaultMaxConcepts     = 5
)

// Config holds the matching tunables.
type Config struct {
	// AssignThreshold is the minimum boosted score for joining an existing
	// cluster. Zero or negative means DefaultAssignThreshold.
	AssignThreshold float64
	// NameBoost is added to a cluster's score when the suggested name
	// matches its name case-insensitively. Zero or negative means
	// DefaultNameBoost.
	NameBoost float64
	// MaxConcepts caps the representative concept list stored at cluster
	// creation. Matching never truncates. Zero or negative means
	// DefaultMaxConcepts.
	MaxConcepts int
}

type clusterState struct {
	id         int64
	name       string
	skillLevel string
	concepts   []string // folded, relevance order, capped
	conceptSet similarity.Set
	docs       map[int64]struct{}
}

// Engine holds the cluster table. Cluster ids are sequential from 0,
// monotonically increasing, and never reused.
type Engine struct {
	threshold   float64
	nameBoost   float64
	maxConcepts int

	clusters []*clusterState // ascending id
	byDoc    map[int64]int64 // document id -> cluster id
	nextID   int64
}

// NewEngine creates an empty engine.
func NewEngine(cfg Config) *Engine {
	threshold := cfg.AssignThreshold
	if threshold <= 0 {
		threshold = DefaultAssignThreshold
	}
	boost := cfg.NameBoost
	if boost <= 0 {
		boost = DefaultNameBoost
	}
	maxConcepts := cfg.MaxConcepts
	if maxConcepts <= 0 {
		maxConcepts = DefaultMaxConcepts
	}
	return &Engine{
		threshold:   threshold,
		nameBoost:   boost,
		maxConcepts: maxConcepts,
		byDoc:       make(map[int64]int64),
	}
}

// Match returns the best-matching cluster for the concept set, or false when
// no cluster reaches the assignment threshold (including the empty-table
// case). Pure read, no mutation. The full concept set participates in
// matching; the creation-time cap does not apply here. Ties at the maximal
// score go to the lowest cluster id, favoring consolidation over
// fragmentation.
func (e *Engine) Match(concepts []string, suggestedName string) (int64, bool) {
	conceptSet := similarity.NewSet(similarity.FoldAll(concepts))
	foldedName := similarity.Fold(suggestedName)

	bestID := int64(-1)
	bestScore := 0.0
	for _, c := range e.clusters {
		score := similarity.Jaccard(conceptSet, c.conceptSet)
		if foldedName != "" && foldedName == similarity.Fold(c.name) {
			score += e.nameBoost
		}
		// Strictly-greater keeps the oldest cluster on ties.
		if score > bestScore {
			bestScore = score
			bestID = c.id
		}
	}
	if bestID < 0 || bestScore < e.threshold {
		return 0, false
	}
	return bestID, true
}

// Create starts a new cluster and returns its id. Concepts are folded,
// deduplicated, and truncated to the configured cap; their order is trusted
// as "most relevant first" per the extraction contract. The name falls back
// to the first concept, then to a generated label.
func (e *Engine) Create(concepts []string, name, skillLevel string) int64 {
	folded := similarity.FoldAll(concepts)
	if len(folded) > e.maxConcepts {
		folded = folded[:e.maxConcepts]
	}
	if name == "" {
		if len(folded) > 0 {
			name = folded[0]
		} else {
			name = fmt.Sprintf("cluster-%d", e.nextID)
		}
	}
	c := &clusterState{
		id:         e.nextID,
		name:       name,
		skillLevel: skillLevel,
		concepts:   folded,
		conceptSet: similarity.NewSet(folded),
		docs:       make(map[int64]struct{}),
	}
	e.clusters = append(e.clusters, c)
	e.nextID++
	return c.id
}

// Assign places the document in the best-matching cluster, creating one when
// nothing matches, and returns the cluster id. A document already assigned
// elsewhere is moved, upholding the at-most-one-cluster invariant. This is
// the only operation that mutates membership.
func (e *Engine) Assign(documentID int64, concepts []string, suggestedName, skillLevel string) int64 {
	e.RemoveDocument(documentID)

	id, ok := e.Match(concepts, suggestedName)
	if !ok {
		id = e.Create(concepts, suggestedName, skillLevel)
	}
	e.stateOf(id).docs[documentID] = struct{}{}
	e.byDoc[documentID] = id
	return id
}

// RemoveDocument removes the document from whichever cluster holds it.
// No-op when the document is unassigned. The cluster itself is kept even
// when it becomes empty; ids are never reused.
func (e *Engine) RemoveDocument(documentID int64) {
	id, ok := e.byDoc[documentID]
	if !ok {
		return
	}
	delete(e.stateOf(id).docs, documentID)
	delete(e.byDoc, documentID)
}

// ClusterOf returns the cluster currently holding the document.
func (e *Engine) ClusterOf(documentID int64) (int64, bool) {
	id, ok := e.byDoc[documentID]
	return id, ok
}

// Rename sets a cluster's display name. Renaming is an external operation;
// the matching algorithm never changes names.
func (e *Engine) Rename(id int64, name string) error {
	c := e.stateOf(id)
	if c == nil {
		return fmt.Errorf("%w: cluster %d", models.ErrNotFound, id)
	}
	c.name = name
	return nil
}

// Cluster returns a snapshot of one cluster.
func (e *Engine) Cluster(id int64) (models.Cluster, error) {
	c := e.stateOf(id)
	if c == nil {
		return models.Cluster{}, fmt.Errorf("%w: cluster %d", models.ErrNotFound, id)
	}
	return snapshot(c), nil
}

// Clusters returns snapshots of all clusters in ascending id order.
func (e *Engine) Clusters() []models.Cluster {
	out := make([]models.Cluster, len(e.clusters))
	for i, c := range e.clusters {
		out[i] = snapshot(c)
	}
	return out
}

// Len returns the number of clusters, including empty ones.
func (e *Engine) Len() int {
	return len(e.clusters)
}

// stateOf returns the cluster with the given id, or nil. Ids are assigned
// sequentially and never reused, so the slice index is the id.
func (e *Engine) stateOf(id int64) *clusterState {
	if id < 0 || id >= int64(len(e.clusters)) {
		return nil
	}
	return e.clusters[id]
}

func snapshot(c *clusterState) models.Cluster {
	docs := make([]int64, 0, len(c.docs))
	for id := range c.docs {
		docs = append(docs, id)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })
	return models.Cluster{
		ID:          c.id,
		Name:        c.name,
		Concepts:    append([]string(nil), c.concepts...),
		SkillLevel:  c.skillLevel,
		DocumentIDs: docs,
	}
}
