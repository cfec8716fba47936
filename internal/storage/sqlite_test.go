package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/matome/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SaveGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &models.Document{
		ID:         0,
		Source:     "/notes/python.md",
		Title:      "Python notes",
		Text:       "python backend services",
		Concepts:   []string{"python", "backend", "services"},
		Topic:      "Web",
		SkillLevel: "beginner",
		ClusterID:  0,
		Position:   0,
	}
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetDocument(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != doc.Title || got.Text != doc.Text || got.Topic != doc.Topic {
		t.Errorf("got %+v", got)
	}
	if !reflect.DeepEqual(got.Concepts, doc.Concepts) {
		t.Errorf("concepts order must survive round-trip: %v", got.Concepts)
	}

	bySource, err := store.GetDocumentBySource(ctx, "/notes/python.md")
	if err != nil {
		t.Fatal(err)
	}
	if bySource.ID != 0 {
		t.Errorf("GetDocumentBySource id=%d", bySource.ID)
	}

	if err := store.DeleteDocument(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, 0); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("get after delete: got %v, want ErrNotFound", err)
	}
	if err := store.DeleteDocument(ctx, 0); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_SaveIsUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &models.Document{ID: 3, Text: "first", Position: 3}
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	doc.Text = "second"
	doc.ClusterID = 7
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetDocument(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "second" || got.ClusterID != 7 {
		t.Errorf("upsert did not replace: %+v", got)
	}
	count, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("CountDocuments=%d, want 1", count)
	}
}

func TestSQLiteStore_ListDocumentsInOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Insert out of id order; replay order is position order.
	for _, d := range []*models.Document{
		{ID: 2, Text: "third", Position: 2},
		{ID: 0, Text: "first", Position: 0},
		{ID: 1, Text: "second", Position: 1},
	} {
		if err := store.SaveDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	docs, err := store.ListDocumentsInOrder(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("len=%d", len(docs))
	}
	for i, doc := range docs {
		if doc.Position != int64(i) {
			t.Errorf("docs[%d].Position=%d", i, doc.Position)
		}
	}

	recent, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != 2 {
		t.Errorf("ListRecent=%+v", recent)
	}
}

func TestSQLiteStore_EmptySourcesDoNotCollide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := int64(0); i < 3; i++ {
		if err := store.SaveDocument(ctx, &models.Document{ID: i, Text: "t", Position: i}); err != nil {
			t.Fatalf("doc %d: %v", i, err)
		}
	}
	count, _ := store.CountDocuments(ctx)
	if count != 3 {
		t.Errorf("CountDocuments=%d, want 3", count)
	}
}

func TestSQLiteStore_ClusterNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveClusterName(ctx, 0, "Web"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveClusterName(ctx, 0, "Web Backend"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveClusterName(ctx, 2, "Systems"); err != nil {
		t.Fatal(err)
	}
	names, err := store.ListClusterNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[int64]string{0: "Web Backend", 2: "Systems"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ListClusterNames=%v, want %v", names, want)
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.sqlite")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveDocument(ctx, &models.Document{ID: 0, Text: "persisted", Position: 0}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.GetDocument(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "persisted" {
		t.Errorf("Text=%q", got.Text)
	}
}
