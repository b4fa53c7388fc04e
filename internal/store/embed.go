package store

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder turns text into a fixed-length vector. The concrete embedding
// technology lives behind this interface; both store implementations accept
// any Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// hashDims is the vector width of the local embedder.
const hashDims = 256

// HashEmbedder is a deterministic local embedder: tokens are hashed into a
// fixed-width bag-of-words vector, L2-normalized. It needs no network or
// model files, which keeps ingestion and tests hermetic; swap in a real
// embedding client for production-quality recall.
type HashEmbedder struct{}

// Embed implements Embedder.
func (HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, hashDims)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%hashDims]++
	}
	normalize(vec)
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// cosine returns the cosine similarity of two equal-length vectors; 0 when
// either is empty or lengths differ.
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
