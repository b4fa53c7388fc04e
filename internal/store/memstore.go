package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore implements Store in memory. Used in tests and for runs that skip
// ingestion.
type MemStore struct {
	mu        sync.Mutex
	embedder  Embedder
	docs      []memDoc
	nextDoc   int64
	decisions []*Decision
	nextDec   int64
}

type memDoc struct {
	doc Document
	vec []float64
}

// NewMemStore returns an empty in-memory store. A nil embedder defaults to
// HashEmbedder.
func NewMemStore(embedder Embedder) *MemStore {
	if embedder == nil {
		embedder = HashEmbedder{}
	}
	return &MemStore{embedder: embedder, nextDoc: 1, nextDec: 1}
}

// AddDocument implements Store.
func (s *MemStore) AddDocument(ctx context.Context, doc Document) (int64, error) {
	vec, err := s.embedder.Embed(ctx, doc.Title+" "+doc.Content)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = s.nextDoc
	s.nextDoc++
	s.docs = append(s.docs, memDoc{doc: doc, vec: vec})
	return doc.ID, nil
}

// Search implements Store. Hits are ordered by similarity descending with
// insertion order as the stable tie-break. An empty corpus reports
// ErrUnavailable so the caller can fall through to web search.
func (s *MemStore) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	s.mu.Lock()
	docs := make([]memDoc, len(s.docs))
	copy(docs, s.docs)
	s.mu.Unlock()

	if len(docs) == 0 {
		return nil, ErrUnavailable
	}
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, Hit{Doc: d.doc, Score: cosine(qvec, d.vec)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// CountDocuments implements Store.
func (s *MemStore) CountDocuments(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs), nil
}

// SaveDecision implements Store.
func (s *MemStore) SaveDecision(_ context.Context, d *Decision) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	cp.ID = s.nextDec
	s.nextDec++
	s.decisions = append(s.decisions, &cp)
	return cp.ID, nil
}

// ListDecisions implements Store. An empty company matches all records.
func (s *MemStore) ListDecisions(_ context.Context, company string) ([]*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Decision
	for _, d := range s.decisions {
		if company == "" || strings.EqualFold(d.Company, company) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Close implements Store.
func (s *MemStore) Close() error { return nil }
