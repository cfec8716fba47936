// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/matome/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY,
		source TEXT UNIQUE,
		title TEXT,
		text TEXT NOT NULL,
		concepts TEXT,
		topic TEXT,
		skill_level TEXT,
		cluster_id INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_position ON documents(position);
	CREATE INDEX IF NOT EXISTS idx_documents_cluster ON documents(cluster_id);

	CREATE TABLE IF NOT EXISTS cluster_names (
		cluster_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveDocument inserts or replaces a document by id. Concepts are stored as
// a JSON array in their original extraction order, which replay depends on.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *models.Document) error {
	conceptsJSON, err := json.Marshal(doc.Concepts)
	if err != nil {
		return fmt.Errorf("failed to marshal concepts: %w", err)
	}

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	// Empty sources are stored as NULL so the UNIQUE constraint only
	// applies to real source keys.
	source := sql.NullString{String: doc.Source, Valid: doc.Source != ""}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents
		 (id, source, title, text, concepts, topic, skill_level, cluster_id, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, source, doc.Title, doc.Text, string(conceptsJSON),
		doc.Topic, doc.SkillLevel, doc.ClusterID, doc.Position, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

const documentColumns = `id, source, title, text, concepts, topic, skill_level, cluster_id, position, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var doc models.Document
	var source sql.NullString
	var conceptsJSON string
	err := row.Scan(&doc.ID, &source, &doc.Title, &doc.Text, &conceptsJSON,
		&doc.Topic, &doc.SkillLevel, &doc.ClusterID, &doc.Position, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Source = source.String
	if conceptsJSON != "" {
		if err := json.Unmarshal([]byte(conceptsJSON), &doc.Concepts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal concepts: %w", err)
		}
	}
	return &doc, nil
}

// GetDocument returns a document by id.
func (s *SQLiteStore) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %d", models.ErrNotFound, id)
	}
	return doc, err
}

// GetDocumentBySource returns the document with the given source key.
func (s *SQLiteStore) GetDocumentBySource(ctx context.Context, source string) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE source = ?`, source))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: source %q", models.ErrNotFound, source)
	}
	return doc, err
}

// DeleteDocument removes a document by id.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: document %d", models.ErrNotFound, id)
	}
	return nil
}

// ListDocumentsInOrder returns every document by ascending insertion
// position. Restore replays this order to reproduce cluster ids exactly.
func (s *SQLiteStore) ListDocumentsInOrder(ctx context.Context) ([]*models.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY position ASC`)
}

// ListRecent returns up to limit documents, newest first.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]*models.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY position DESC LIMIT ?`, limit)
}

func (s *SQLiteStore) queryDocuments(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// SaveClusterName records a cluster rename override.
func (s *SQLiteStore) SaveClusterName(ctx context.Context, clusterID int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cluster_names (cluster_id, name) VALUES (?, ?)`,
		clusterID, name,
	)
	return err
}

// ListClusterNames returns all recorded rename overrides.
func (s *SQLiteStore) ListClusterNames(ctx context.Context) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cluster_id, name FROM cluster_names`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
