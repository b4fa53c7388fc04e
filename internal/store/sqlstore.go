package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS documents (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	key       TEXT NOT NULL UNIQUE,
	title     TEXT NOT NULL,
	content   TEXT NOT NULL,
	metadata  TEXT,
	embedding TEXT NOT NULL,
	added_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decisions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	company    TEXT NOT NULL,
	label      TEXT NOT NULL,
	total      REAL NOT NULL,
	artifact   TEXT,
	decided_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_company ON decisions(company);
`

const currentSchemaVersion = 1

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// SqlStore implements Store with SQLite. Embeddings are stored as JSON
// arrays; similarity is computed in-process over the loaded rows, which is
// fine at corpus sizes one analysis run ingests.
type SqlStore struct {
	db       *sql.DB
	embedder Embedder
}

// Open opens or creates a SQLite DB at path and runs migrations. The parent
// directory (e.g. .prospect) is created if it does not exist. A nil embedder
// defaults to HashEmbedder.
func Open(path string, embedder Embedder) (*SqlStore, error) {
	if embedder == nil {
		embedder = HashEmbedder{}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db, embedder: embedder}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	}
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	return nil
}

// AddDocument implements Store. Re-ingesting an existing key replaces the
// stored chunk.
func (s *SqlStore) AddDocument(ctx context.Context, doc Document) (int64, error) {
	vec, err := s.embedder.Embed(ctx, doc.Title+" "+doc.Content)
	if err != nil {
		return 0, fmt.Errorf("embed document: %w", err)
	}
	embJSON, err := json.Marshal(vec)
	if err != nil {
		return 0, fmt.Errorf("marshal embedding: %w", err)
	}
	var metaJSON []byte
	if doc.Metadata != nil {
		if metaJSON, err = json.Marshal(doc.Metadata); err != nil {
			return 0, fmt.Errorf("marshal metadata: %w", err)
		}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, title, content, metadata, embedding, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			added_at = excluded.added_at`,
		doc.Key, doc.Title, doc.Content, string(metaJSON), string(embJSON), nowUTC())
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// Search implements Store. Results are ordered by similarity descending,
// insertion (id) order as the stable tie-break. An empty corpus reports
// ErrUnavailable.
func (s *SqlStore) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, title, content, metadata, embedding FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var hits []Hit
	for rows.Next() {
		var (
			doc             Document
			metaRaw, embRaw sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Key, &doc.Title, &doc.Content, &metaRaw, &embRaw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if metaRaw.Valid && metaRaw.String != "" {
			_ = json.Unmarshal([]byte(metaRaw.String), &doc.Metadata)
		}
		var vec []float64
		if err := json.Unmarshal([]byte(embRaw.String), &vec); err != nil {
			continue // unreadable embedding rows are skipped, not fatal
		}
		hits = append(hits, Hit{Doc: doc, Score: cosine(qvec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	if len(hits) == 0 {
		return nil, ErrUnavailable
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// CountDocuments implements Store.
func (s *SqlStore) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// SaveDecision implements Store.
func (s *SqlStore) SaveDecision(ctx context.Context, d *Decision) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (company, label, total, artifact, decided_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.Company, d.Label, d.Total, d.Artifact, nowUTC())
	if err != nil {
		return 0, fmt.Errorf("insert decision: %w", err)
	}
	id, _ := res.LastInsertId()
	d.ID = id
	return id, nil
}

// ListDecisions implements Store. An empty company matches all records.
func (s *SqlStore) ListDecisions(ctx context.Context, company string) ([]*Decision, error) {
	q := `SELECT id, company, label, total, COALESCE(artifact, '') FROM decisions`
	args := []any{}
	if company != "" {
		q += ` WHERE company = ? COLLATE NOCASE`
		args = append(args, company)
	}
	q += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()
	var out []*Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.Company, &d.Label, &d.Total, &d.Artifact); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *SqlStore) Close() error { return s.db.Close() }
