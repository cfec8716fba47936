// Package vector provides an in-memory TF-IDF similarity index over a
// mutable document corpus. Rows are sparse L2-normalized term vectors; search
// ranks by cosine similarity with a deterministic ascending-id tie-break.
//
// The index follows a single-writer, multiple-reader discipline enforced by
// the caller: Add, AddBatch, Remove, and Update must hold the caller's write
// lock, Search the read lock. The index itself spawns no goroutines and holds
// no locks.
package vector

import (
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/similarity"
	"github.com/hyperjump/matome/pkg/utils"
)

// DefaultRebuildThreshold is the number of incremental mutations after which
// a full vocabulary rebuild is scheduled.
const DefaultRebuildThreshold = 100

// Config holds index tunables.
type Config struct {
	// RebuildThreshold is the incremental-mutation count that schedules a
	// full rebuild. Zero or negative means DefaultRebuildThreshold.
	RebuildThreshold int
}

// Result is a single ranked search hit.
type Result struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// rebuildMode is the state of the rebuild policy machine. Incremental
// mutations project new text through the frozen vocabulary; once the op
// counter reaches the threshold the machine enters pending and the next
// Add or Update performs a full rebuild instead.
type rebuildMode int

const (
	modeIncremental rebuildMode = iota
	modePendingRebuild
)

// sparseRow is one document's L2-normalized TF-IDF vector. Columns are
// ascending vocabulary indices.
type sparseRow struct {
	cols []int
	vals []float64
}

// Index is a TF-IDF weighted term index. The corpus, vocabulary, and matrix
// are explicit owned state; there are no package-level singletons.
type Index struct {
	corpus  map[int64]string
	idOrder []int64 // row i belongs to idOrder[i]
	rows    []sparseRow

	vocab map[string]int // term -> column, rebuilt in sorted term order
	idf   []float64      // per-column IDF, frozen at rebuild time

	mode      rebuildMode
	opCount   int
	threshold int
}

// NewIndex creates an empty index.
func NewIndex(cfg Config) *Index {
	threshold := cfg.RebuildThreshold
	if threshold <= 0 {
		threshold = DefaultRebuildThreshold
	}
	return &Index{
		corpus:    make(map[int64]string),
		vocab:     make(map[string]int),
		threshold: threshold,
	}
}

// Add indexes a new document. The id must be non-negative and not already
// indexed; the text must tokenize to at least one term. The document is
// searchable when Add returns.
func (x *Index) Add(id int64, text string) error {
	if id < 0 {
		return fmt.Errorf("%w: document id %d is negative", models.ErrInvalidArgument, id)
	}
	if _, ok := x.corpus[id]; ok {
		return fmt.Errorf("%w: document %d", models.ErrAlreadyExists, id)
	}
	tokens := similarity.Tokenize(text)
	if len(tokens) == 0 {
		return fmt.Errorf("%w: document %d", models.ErrEmptyDocument, id)
	}

	wasEmpty := len(x.idOrder) == 0
	x.corpus[id] = text
	x.idOrder = append(x.idOrder, id)

	// First document always rebuilds; a pending machine rebuilds on the
	// next write; otherwise count the op and rebuild when the threshold
	// is reached, else append an incremental projection.
	if wasEmpty || x.mode == modePendingRebuild {
		x.rebuild()
		return nil
	}
	x.opCount++
	if x.opCount >= x.threshold {
		x.rebuild()
		return nil
	}
	x.rows = append(x.rows, x.project(tokens))
	return nil
}

// AddBatch indexes many documents with exactly one rebuild. The whole batch
// is validated before any mutation; a failed batch leaves the index
// unchanged. This is the preferred bulk-ingestion path.
func (x *Index) AddBatch(ids []int64, texts []string) error {
	if len(ids) != len(texts) {
		return fmt.Errorf("%w: %d ids but %d texts", models.ErrInvalidArgument, len(ids), len(texts))
	}
	seen := make(map[int64]struct{}, len(ids))
	for i, id := range ids {
		if id < 0 {
			return fmt.Errorf("%w: document id %d is negative", models.ErrInvalidArgument, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate document id %d in batch", models.ErrInvalidArgument, id)
		}
		if _, ok := x.corpus[id]; ok {
			return fmt.Errorf("%w: document %d", models.ErrAlreadyExists, id)
		}
		if len(similarity.Tokenize(texts[i])) == 0 {
			return fmt.Errorf("%w: document %d", models.ErrEmptyDocument, id)
		}
		seen[id] = struct{}{}
	}
	if len(ids) == 0 {
		return nil
	}
	for i, id := range ids {
		x.corpus[id] = texts[i]
		x.idOrder = append(x.idOrder, id)
	}
	x.rebuild()
	return nil
}

// Remove deletes a document. The corpus entry, id-order slot, and matrix row
// go together; the vocabulary is left as is (stale terms are corrected on
// the next rebuild, never here).
func (x *Index) Remove(id int64) error {
	pos := x.rowOf(id)
	if pos < 0 {
		return fmt.Errorf("%w: document %d", models.ErrNotFound, id)
	}
	delete(x.corpus, id)
	x.idOrder = append(x.idOrder[:pos], x.idOrder[pos+1:]...)
	x.rows = append(x.rows[:pos], x.rows[pos+1:]...)

	x.opCount++
	if x.opCount >= x.threshold {
		x.mode = modePendingRebuild
	}
	return nil
}

// Update replaces a document's text. When no rebuild is due, the row is
// reprojected in place so the document keeps its insertion-order slot.
func (x *Index) Update(id int64, text string) error {
	pos := x.rowOf(id)
	if pos < 0 {
		return fmt.Errorf("%w: document %d", models.ErrNotFound, id)
	}
	tokens := similarity.Tokenize(text)
	if len(tokens) == 0 {
		return fmt.Errorf("%w: document %d", models.ErrEmptyDocument, id)
	}
	x.corpus[id] = text

	if x.mode == modePendingRebuild {
		x.rebuild()
		return nil
	}
	x.opCount++
	if x.opCount >= x.threshold {
		x.rebuild()
		return nil
	}
	x.rows[pos] = x.project(tokens)
	return nil
}

// Search returns the topK documents most similar to the query, sorted by
// descending cosine score with ties broken by ascending id. A nil allowed
// set means no filter; a non-nil empty set restricts to nothing and returns
// no results. Out-of-vocabulary query terms are dropped; a query with zero
// overlap scores 0.0 and zero-score rows still fill up to topK when there
// are fewer non-zero matches.
func (x *Index) Search(query string, topK int, allowed map[int64]struct{}) ([]Result, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d", models.ErrInvalidArgument, topK)
	}
	if allowed != nil && len(allowed) == 0 {
		return []Result{}, nil
	}
	tokens := similarity.Tokenize(query)
	if len(tokens) == 0 {
		return nil, models.ErrEmptyQuery
	}
	qvec := x.project(tokens)

	candidates := make([]Result, 0, len(x.idOrder))
	for i, id := range x.idOrder {
		if allowed != nil {
			if _, ok := allowed[id]; !ok {
				continue
			}
		}
		candidates = append(candidates, Result{ID: id, Score: utils.Clamp01(dotSparse(qvec, x.rows[i]))})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	if topK < len(candidates) {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Contains reports whether id is indexed.
func (x *Index) Contains(id int64) bool {
	_, ok := x.corpus[id]
	return ok
}

// Size returns the number of indexed documents.
func (x *Index) Size() int {
	return len(x.idOrder)
}

// VocabularySize returns the number of known terms. Between rebuilds this
// may include terms no remaining document uses.
func (x *Index) VocabularySize() int {
	return len(x.vocab)
}

// rowOf returns the matrix row for id, or -1.
func (x *Index) rowOf(id int64) int {
	if _, ok := x.corpus[id]; !ok {
		return -1
	}
	for i, other := range x.idOrder {
		if other == id {
			return i
		}
	}
	return -1
}

// rebuild re-derives the vocabulary from the whole corpus in sorted term
// order, recomputes per-column IDF, and reprojects every row. O(corpus);
// runs synchronously so a half-rebuilt vocabulary is never observable.
func (x *Index) rebuild() {
	docTokens := make([][]string, len(x.idOrder))
	df := make(map[string]int)
	for i, id := range x.idOrder {
		tokens := similarity.Tokenize(x.corpus[id])
		docTokens[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	x.vocab = make(map[string]int, len(terms))
	x.idf = make([]float64, len(terms))
	n := float64(len(x.idOrder))
	for col, t := range terms {
		x.vocab[t] = col
		// Smoothed IDF: strictly positive so single-document corpora and
		// every-document terms still carry weight.
		x.idf[col] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	x.rows = make([]sparseRow, len(x.idOrder))
	for i, tokens := range docTokens {
		x.rows[i] = x.project(tokens)
	}
	x.opCount = 0
	x.mode = modeIncremental
}

// project builds an L2-normalized TF-IDF row from tokens using the current
// frozen vocabulary and IDF. Terms outside the vocabulary are dropped; the
// row converges to full coverage at the next rebuild.
func (x *Index) project(tokens []string) sparseRow {
	tf := make(map[int]int)
	for _, t := range tokens {
		if col, ok := x.vocab[t]; ok {
			tf[col]++
		}
	}
	if len(tf) == 0 {
		return sparseRow{}
	}
	cols := make([]int, 0, len(tf))
	for col := range tf {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	vals := make([]float64, len(cols))
	for i, col := range cols {
		vals[i] = float64(tf[col]) * x.idf[col]
	}
	utils.NormalizeL2(vals)
	return sparseRow{cols: cols, vals: vals}
}

// dotSparse returns the dot product of two sparse rows by merging their
// ascending column lists.
func dotSparse(a, b sparseRow) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.cols) && j < len(b.cols) {
		switch {
		case a.cols[i] == b.cols[j]:
			dot += a.vals[i] * b.vals[j]
			i++
			j++
		case a.cols[i] < b.cols[j]:
			i++
		default:
			j++
		}
	}
	return dot
}
