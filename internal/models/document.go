// Package models defines core data structures for documents, clusters,
// queries, and search results, plus the sentinel errors shared across the
// engine packages.
package models

import "time"

// Document is an ingested document with its extracted concepts and current
// cluster assignment. IDs are sequential non-negative integers assigned by
// the organizer at ingest time; Position records insertion order for replay.
type Document struct {
	ID         int64     `json:"id" db:"id"`
	Source     string    `json:"source,omitempty" db:"source"`
	Title      string    `json:"title" db:"title"`
	Text       string    `json:"text" db:"text"`
	Concepts   []string  `json:"concepts" db:"concepts"`
	Topic      string    `json:"topic,omitempty" db:"topic"`
	SkillLevel string    `json:"skill_level,omitempty" db:"skill_level"`
	ClusterID  int64     `json:"cluster_id" db:"cluster_id"`
	Position   int64     `json:"position" db:"position"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Cluster is a point-in-time snapshot of one cluster. Concepts carries the
// bounded representative set in relevance order; DocumentIDs is sorted
// ascending.
type Cluster struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Concepts    []string `json:"concepts"`
	SkillLevel  string   `json:"skill_level,omitempty"`
	DocumentIDs []int64  `json:"document_ids"`
}

// IngestInput is the input for ingesting or updating a document.
type IngestInput struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	Topic      string `json:"topic,omitempty"`
	SkillLevel string `json:"skill_level,omitempty"`
	Source     string `json:"source,omitempty"`
}
