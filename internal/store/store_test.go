package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func seedDocs(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	docs := []Document{
		{Key: "doc:vidgen", Title: "VidGen AI", Content: "video generation diffusion model startup"},
		{Key: "doc:textcorp", Title: "TextCorp", Content: "enterprise document summarization language model"},
		{Key: "doc:medai", Title: "MedAI Labs", Content: "healthcare diagnostic imaging generative model"},
	}
	for _, d := range docs {
		if _, err := s.AddDocument(ctx, d); err != nil {
			t.Fatalf("AddDocument %s: %v", d.Key, err)
		}
	}
}

func TestMemStore_SearchRanksByRelevance(t *testing.T) {
	s := NewMemStore(nil)
	seedDocs(t, s)

	hits, err := s.Search(context.Background(), "video generation diffusion startup", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Doc.Key != "doc:vidgen" {
		t.Errorf("top hit: got %s, want doc:vidgen", hits[0].Doc.Key)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not ordered by score: %v then %v", hits[0].Score, hits[1].Score)
	}
}

func TestMemStore_SearchIdempotent(t *testing.T) {
	s := NewMemStore(nil)
	seedDocs(t, s)
	ctx := context.Background()

	first, err := s.Search(ctx, "generative model", 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Search(ctx, "generative model", 3)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated search differs (-first +second):\n%s", diff)
	}
}

// constantEmbedder maps every text to the same vector so every similarity
// score ties.
type constantEmbedder struct{}

func (constantEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

func TestMemStore_SearchStableUnderEqualScores(t *testing.T) {
	s := NewMemStore(constantEmbedder{})
	ctx := context.Background()
	keys := []string{"doc:first", "doc:second", "doc:third"}
	for _, k := range keys {
		if _, err := s.AddDocument(ctx, Document{Key: k, Title: k, Content: "same text"}); err != nil {
			t.Fatalf("AddDocument %s: %v", k, err)
		}
	}

	hits, err := s.Search(ctx, "anything", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := make([]string, 0, len(hits))
	for _, h := range hits {
		got = append(got, h.Doc.Key)
	}
	if diff := cmp.Diff(keys, got); diff != "" {
		t.Errorf("equal-score hits not in insertion order (-want +got):\n%s", diff)
	}
}

func TestMemStore_EmptyCorpusUnavailable(t *testing.T) {
	s := NewMemStore(nil)
	_, err := s.Search(context.Background(), "anything", 2)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestSqlStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	seedDocs(t, s)

	n, err := s.CountDocuments(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("CountDocuments: %d, %v", n, err)
	}

	hits, err := s.Search(context.Background(), "healthcare imaging", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Doc.Key != "doc:medai" {
		t.Errorf("top hit: got %+v", hits)
	}
}

func TestSqlStore_UpsertByKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, err := s.AddDocument(ctx, Document{Key: "doc:x", Title: "old", Content: "old content"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddDocument(ctx, Document{Key: "doc:x", Title: "new", Content: "new content"}); err != nil {
		t.Fatal(err)
	}
	n, err := s.CountDocuments(ctx)
	if err != nil || n != 1 {
		t.Fatalf("after upsert: count %d, %v", n, err)
	}
}

func TestDecisions_SaveAndList(t *testing.T) {
	for name, s := range map[string]Store{
		"mem": NewMemStore(nil),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.SaveDecision(ctx, &Decision{Company: "Acme AI", Label: "invest", Total: 61.5, Artifact: "outputs/acme.html"}); err != nil {
				t.Fatal(err)
			}
			if _, err := s.SaveDecision(ctx, &Decision{Company: "Beta", Label: "reject", Total: 22}); err != nil {
				t.Fatal(err)
			}

			all, err := s.ListDecisions(ctx, "")
			if err != nil || len(all) != 2 {
				t.Fatalf("ListDecisions all: %d, %v", len(all), err)
			}
			acme, err := s.ListDecisions(ctx, "acme ai")
			if err != nil || len(acme) != 1 {
				t.Fatalf("ListDecisions acme: %d, %v", len(acme), err)
			}
			if acme[0].Label != "invest" || acme[0].Artifact == "" {
				t.Errorf("acme record: %+v", acme[0])
			}
		})
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := HashEmbedder{}
	a, _ := e.Embed(context.Background(), "generative video startup")
	b, _ := e.Embed(context.Background(), "generative video startup")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("embedding not deterministic:\n%s", diff)
	}
	if cosine(a, b) < 0.999 {
		t.Errorf("self-similarity: got %v", cosine(a, b))
	}
}
