package evidence

import (
	"context"
	"log/slog"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospect/internal/logging"
	"prospect/internal/store"
)

// fakeSource is a programmable Source with a call counter.
type fakeSource struct {
	items []Item
	err   error
	calls int
}

func (f *fakeSource) Search(_ context.Context, _ string, k int) ([]Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	items := f.items
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items, nil
}

func init() {
	logging.Init(slog.LevelError, "text")
}

func item(id, title string, score float64) Item {
	return Item{ID: id, Title: title, URL: id, Score: score}
}

func TestChain_StoreSatisfiesMinimum_NoWebCall(t *testing.T) {
	storeSrc := &fakeSource{items: []Item{
		item("doc:a", "Alpha", 0.9),
		item("doc:b", "Beta", 0.8),
	}}
	web := &fakeSource{items: []Item{item("https://x.test/c", "Gamma", 0.5)}}

	res := NewChain(storeSrc, web).Fetch(context.Background(), "alpha beta", 2)

	require.Len(t, res.Items, 2)
	assert.Equal(t, 0, web.calls, "web must not be called when the store satisfies the minimum")
	assert.Equal(t, 1, storeSrc.calls)
	assert.Nil(t, res.Reason)
}

func TestChain_StoreShort_WebFillsRemainder(t *testing.T) {
	storeSrc := &fakeSource{items: []Item{item("doc:a", "Alpha", 0.9)}}
	web := &fakeSource{items: []Item{
		item("https://x.test/b", "Beta", 0.7),
		item("https://x.test/c", "Gamma", 0.6),
	}}

	res := NewChain(storeSrc, web).Fetch(context.Background(), "q", 2)

	require.Equal(t, 1, web.calls)
	require.Len(t, res.Items, 3) // store hit + both web hits, all distinct
	assert.Equal(t, "Alpha", res.Items[0].Title, "store hits keep precedence")
}

func TestChain_WebExcludesCollectedNames(t *testing.T) {
	storeSrc := &fakeSource{items: []Item{item("doc:a", "Alpha", 0.9)}}
	web := &fakeSource{items: []Item{
		item("https://x.test/dup", "ALPHA", 0.8), // same name, different provenance
		item("https://x.test/b", "Beta", 0.7),
	}}

	res := NewChain(storeSrc, web).Fetch(context.Background(), "q", 2)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "Alpha", res.Items[0].Title)
	assert.Equal(t, "Beta", res.Items[1].Title)
}

func TestChain_StoreUnavailable_SkipsToWeb(t *testing.T) {
	storeSrc := &fakeSource{err: store.ErrUnavailable}
	web := &fakeSource{items: []Item{item("https://x.test/a", "Alpha", 0.9)}}

	res := NewChain(storeSrc, web).Fetch(context.Background(), "q", 1)

	require.Len(t, res.Items, 1)
	assert.Nil(t, res.Reason, "unavailable index is recoverable, not a degradation reason")
	assert.Equal(t, 1, web.calls)
}

func TestChain_BothFail_EmptyWithReason(t *testing.T) {
	storeSrc := &fakeSource{err: store.ErrUnavailable}
	web := &fakeSource{err: pkgerrors.New("search quota exceeded")}

	res := NewChain(storeSrc, web).Fetch(context.Background(), "q", 2)

	assert.Empty(t, res.Items)
	assert.True(t, res.Insufficient(2))
	require.Error(t, res.Reason)
	assert.Contains(t, res.Reason.Error(), "quota")
}

func TestChain_DedupeByNormalizedProvenance(t *testing.T) {
	web := &fakeSource{items: []Item{
		item("https://www.X.test/a/", "Alpha", 0.9),
		item("https://x.test/a#frag", "Alpha Mirror", 0.8),
		item("https://x.test/b", "Beta", 0.7),
	}}

	res := NewChain(nil, web).Fetch(context.Background(), "q", 3)

	require.Len(t, res.Items, 2)
	assert.Equal(t, []string{"https://x.test/a", "https://x.test/b"}, res.Provenance)
}

func TestChain_Idempotent(t *testing.T) {
	build := func() *Chain {
		storeSrc := &fakeSource{items: []Item{item("doc:a", "Alpha", 0.9)}}
		web := &fakeSource{items: []Item{item("https://x.test/b", "Beta", 0.7)}}
		return NewChain(storeSrc, web)
	}
	first := build().Fetch(context.Background(), "q", 2)
	second := build().Fetch(context.Background(), "q", 2)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, first.Provenance, second.Provenance)
}

func TestChain_EqualScoresKeepInsertionOrder(t *testing.T) {
	storeSrc := &fakeSource{items: []Item{
		item("doc:a", "Alpha", 0.5),
		item("doc:b", "Beta", 0.5),
		item("doc:c", "Gamma", 0.5),
	}}

	res := NewChain(storeSrc, nil).Fetch(context.Background(), "tie", 3)

	require.Len(t, res.Items, 3)
	assert.Equal(t, []string{"doc:a", "doc:b", "doc:c"}, res.Provenance,
		"equal-score store hits must keep insertion order")
}

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://WWW.Example.com/Path/", "https://example.com/Path"},
		{"https://example.com/a?utm_source=x&q=1", "https://example.com/a?q=1"},
		{"https://example.com/a#section", "https://example.com/a"},
		{"doc:Market-Report-2026", "doc:market-report-2026"},
		{"  https://example.com/a  ", "https://example.com/a"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeID(tc.in), "input %q", tc.in)
	}
}

func TestMulti_ConcatenatesUntilK(t *testing.T) {
	a := &fakeSource{items: []Item{item("https://a.test/1", "One", 0.9)}}
	b := &fakeSource{items: []Item{item("https://b.test/2", "Two", 0.8), item("https://b.test/3", "Three", 0.7)}}

	items, err := Multi{a, b}.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "One", items[0].Title)
	assert.Equal(t, "Two", items[1].Title)
}

func TestMulti_ErrorOnlyWhenAllEmpty(t *testing.T) {
	broken := &fakeSource{err: pkgerrors.New("down")}
	ok := &fakeSource{items: []Item{item("https://b.test/1", "One", 0.8)}}

	items, err := Multi{broken, ok}.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = Multi{broken}.Search(context.Background(), "q", 2)
	assert.Error(t, err)
}
