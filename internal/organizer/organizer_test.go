package organizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/matome/internal/concepts"
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/keyword"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/storage"
)

// stubExtractor maps exact texts to fixed concept lists, so cluster
// assignments in tests are fully controlled.
type stubExtractor struct {
	concepts map[string][]string
}

func (s *stubExtractor) Extract(_ context.Context, text string) ([]string, error) {
	if c, ok := s.concepts[text]; ok {
		return c, nil
	}
	return nil, nil
}

func newTestOrganizer(t *testing.T, extractor concepts.Extractor) *Organizer {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	catalog, err := keyword.NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog.Close() })

	cfg := config.DefaultConfig()
	return New(&cfg.Engine, extractor, store, catalog)
}

func TestOrganizer_IngestAssignsSequentialIDs(t *testing.T) {
	ext := &stubExtractor{concepts: map[string][]string{
		"python web backend": {"python", "web", "backend"},
		"rust systems":       {"rust", "systems"},
	}}
	o := newTestOrganizer(t, ext)
	ctx := context.Background()

	first, err := o.Ingest(ctx, models.IngestInput{Title: "Python", Text: "python web backend"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Ingest(ctx, models.IngestInput{Title: "Rust", Text: "rust systems"})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != 0 || second.ID != 1 {
		t.Errorf("ids=%d,%d, want 0,1", first.ID, second.ID)
	}
	if first.Source == "" || second.Source == "" {
		t.Error("missing sources must be generated")
	}
	if first.ClusterID == second.ClusterID {
		t.Error("disjoint concepts must land in different clusters")
	}

	// Documents persist alongside the in-memory engines.
	stored, err := o.Document(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "Python" || stored.Position != 0 {
		t.Errorf("stored=%+v", stored)
	}
}

func TestOrganizer_IngestSameSourceUpdatesInPlace(t *testing.T) {
	ext := &stubExtractor{concepts: map[string][]string{
		"python basics":   {"python"},
		"python advanced": {"python", "metaclasses"},
	}}
	o := newTestOrganizer(t, ext)
	ctx := context.Background()

	doc, err := o.Ingest(ctx, models.IngestInput{Title: "v1", Text: "python basics", Source: "/notes/py.md"})
	if err != nil {
		t.Fatal(err)
	}
	updated, err := o.Ingest(ctx, models.IngestInput{Title: "v2", Text: "python advanced", Source: "/notes/py.md"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != doc.ID {
		t.Errorf("re-ingest allocated a new id: %d -> %d", doc.ID, updated.ID)
	}
	if updated.Title != "v2" || updated.Text != "python advanced" {
		t.Errorf("updated=%+v", updated)
	}
	stats, err := o.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 1 || stats.IndexedRows != 1 {
		t.Errorf("stats=%+v", stats)
	}
}

func TestOrganizer_SearchScopedToCluster(t *testing.T) {
	ext := &stubExtractor{concepts: map[string][]string{
		"python web framework":   {"python", "web"},
		"python cli tooling":     {"python", "web"},
		"rust systems low level": {"rust", "systems"},
	}}
	o := newTestOrganizer(t, ext)
	ctx := context.Background()

	docs, err := o.IngestBatch(ctx, []models.IngestInput{
		{Title: "A", Text: "python web framework"},
		{Title: "B", Text: "python cli tooling"},
		{Title: "C", Text: "rust systems low level"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("batch returned %d docs", len(docs))
	}
	if docs[0].ClusterID != docs[1].ClusterID {
		t.Fatal("identical concepts must share a cluster")
	}
	pythonCluster := docs[0].ClusterID

	resp, err := o.Search(ctx, models.SearchQuery{Query: "python", TopK: 10, ClusterID: &pythonCluster})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range resp.Results {
		if r.ID == docs[2].ID {
			t.Error("cluster-scoped search leaked a document from another cluster")
		}
		if r.ClusterID == nil || *r.ClusterID != pythonCluster {
			t.Errorf("result %d cluster=%v", r.ID, r.ClusterID)
		}
	}
	if resp.Total != 2 {
		t.Errorf("Total=%d, want 2", resp.Total)
	}

	// Unknown cluster is a lookup failure, not an empty result.
	missing := int64(99)
	if _, err := o.Search(ctx, models.SearchQuery{Query: "python", ClusterID: &missing}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown cluster: got %v, want ErrNotFound", err)
	}
}

func TestOrganizer_IngestBatchRejectsKnownSource(t *testing.T) {
	ext := &stubExtractor{concepts: map[string][]string{"text": {"a"}}}
	o := newTestOrganizer(t, ext)
	ctx := context.Background()

	if _, err := o.Ingest(ctx, models.IngestInput{Text: "text", Source: "src"}); err != nil {
		t.Fatal(err)
	}
	_, err := o.IngestBatch(ctx, []models.IngestInput{{Text: "text", Source: "src"}})
	if !errors.Is(err, models.ErrAlreadyExists) {
		t.Errorf("got %v, want ErrAlreadyExists", err)
	}
	stats, _ := o.Stats(ctx)
	if stats.Documents != 1 {
		t.Errorf("failed batch must not mutate state: %+v", stats)
	}
}

func TestOrganizer_RemoveReleasesEverything(t *testing.T) {
	ext := &stubExtractor{concepts: map[string][]string{"go scheduler": {"go", "scheduler"}}}
	o := newTestOrganizer(t, ext)
	ctx := context.Background()

	doc, err := o.Ingest(ctx, models.IngestInput{Title: "Go", Text: "go scheduler", Source: "src"})
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Remove(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	if err := o.Remove(ctx, doc.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("double remove: got %v, want ErrNotFound", err)
	}
	if _, err := o.Document(ctx, doc.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("document survived removal: %v", err)
	}
	hits, err := o.Lookup(ctx, "scheduler", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("catalog survived removal: %+v", hits)
	}

	// The cluster itself stays; ids are never reused.
	clusters := o.Clusters()
	if len(clusters) != 1 || len(clusters[0].DocumentIDs) != 0 {
		t.Errorf("clusters=%+v", clusters)
	}
	reingested, err := o.Ingest(ctx, models.IngestInput{Title: "Go", Text: "go scheduler", Source: "src"})
	if err != nil {
		t.Fatal(err)
	}
	if reingested.ID == doc.ID {
		t.Error("document ids must not be reused")
	}
}

func TestOrganizer_RenameClusterSurvivesRestore(t *testing.T) {
	ext := &stubExtractor{concepts: map[string][]string{
		"python web backend": {"python", "web", "backend"},
		"rust systems":       {"rust", "systems"},
	}}
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	catalog, err := keyword.NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog.Close() })
	cfg := config.DefaultConfig()

	o := New(&cfg.Engine, ext, store, catalog)
	ctx := context.Background()
	first, err := o.Ingest(ctx, models.IngestInput{Title: "Python", Text: "python web backend"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Ingest(ctx, models.IngestInput{Title: "Rust", Text: "rust systems"})
	if err != nil {
		t.Fatal(err)
	}
	if err := o.RenameCluster(ctx, first.ClusterID, "Web Stack"); err != nil {
		t.Fatal(err)
	}
	if err := o.RenameCluster(ctx, 99, "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("rename unknown: got %v, want ErrNotFound", err)
	}

	// Fresh engines over the same store and a fresh catalog.
	catalog2, err := keyword.NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog2.Close() })
	restored := New(&cfg.Engine, ext, store, catalog2)
	if err := restored.Restore(ctx); err != nil {
		t.Fatal(err)
	}

	clusters := restored.Clusters()
	if len(clusters) != 2 {
		t.Fatalf("clusters=%d, want 2", len(clusters))
	}
	web, err := restored.Cluster(first.ClusterID)
	if err != nil {
		t.Fatal(err)
	}
	if web.Name != "Web Stack" {
		t.Errorf("rename lost on restore: %q", web.Name)
	}
	if doc, err := restored.Document(ctx, second.ID); err != nil || doc.Title != "Rust" {
		t.Errorf("doc=%+v err=%v", doc, err)
	}

	// Replay restores the vector index and the keyword catalog too.
	resp, err := restored.Search(ctx, models.SearchQuery{Query: "rust systems", TopK: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != second.ID {
		t.Errorf("restored search=%+v", resp.Results)
	}
	hits, err := restored.Lookup(ctx, "rust", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("restored lookup=%+v", hits)
	}

	// New ids continue after the restored ones.
	next, err := restored.Ingest(ctx, models.IngestInput{Title: "More", Text: "python web backend"})
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != second.ID+1 {
		t.Errorf("next id=%d, want %d", next.ID, second.ID+1)
	}
}

func TestOrganizer_IngestFileUsesPathAsSource(t *testing.T) {
	ext := &stubExtractor{concepts: map[string][]string{
		"python notes":  {"python"},
		"python edited": {"python"},
	}}
	o := newTestOrganizer(t, ext)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("python notes"), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := o.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "notes.txt" {
		t.Errorf("Title=%q", doc.Title)
	}
	if !filepath.IsAbs(doc.Source) {
		t.Errorf("Source=%q, want absolute path", doc.Source)
	}

	// Rewriting the file updates the same document.
	if err := os.WriteFile(path, []byte("python edited"), 0644); err != nil {
		t.Fatal(err)
	}
	again, err := o.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != doc.ID || again.Text != "python edited" {
		t.Errorf("again=%+v", again)
	}

	if err := o.RemoveFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := o.RemoveFile(ctx, path); err != nil {
		t.Errorf("removing an unknown path must be a no-op, got %v", err)
	}
	stats, _ := o.Stats(ctx)
	if stats.Documents != 0 {
		t.Errorf("stats=%+v", stats)
	}
}

func TestOrganizer_UpdateUnknownID(t *testing.T) {
	ext := &stubExtractor{concepts: map[string][]string{}}
	o := newTestOrganizer(t, ext)
	_, err := o.Update(context.Background(), 42, models.IngestInput{Text: "whatever"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
