// Package store is the persistence facade: the similarity-searchable
// evidence corpus plus completed decision and report records. Domain code
// uses only the Store interface; the implementation is SQLite or in-memory.
package store

import (
	"context"
	"errors"
)

// DefaultDBPath is the default relative path for the SQLite DB.
const DefaultDBPath = ".prospect/evidence.db"

// ErrUnavailable is returned by Search when the similarity index cannot be
// used (missing file, no documents ingested). Callers treat it as a
// recoverable condition, not a fault.
var ErrUnavailable = errors.New("similarity index unavailable")

// Document is one ingested evidence chunk with its embedding.
type Document struct {
	ID       int64
	Key      string // stable provenance identifier (URL or document key)
	Title    string
	Content  string
	Metadata map[string]string
}

// Hit is a similarity search result.
type Hit struct {
	Doc   Document
	Score float64 // cosine similarity in [-1, 1]
}

// Decision is a persisted per-company decision outcome.
type Decision struct {
	ID       int64
	Company  string
	Label    string
	Total    float64
	Artifact string // report artifact reference; empty when no report was produced
}

// Store is the persistence facade.
type Store interface {
	// Corpus
	AddDocument(ctx context.Context, doc Document) (int64, error)
	Search(ctx context.Context, query string, k int) ([]Hit, error)
	CountDocuments(ctx context.Context) (int, error)
	// Run outcomes
	SaveDecision(ctx context.Context, d *Decision) (int64, error)
	ListDecisions(ctx context.Context, company string) ([]*Decision, error)

	Close() error
}
