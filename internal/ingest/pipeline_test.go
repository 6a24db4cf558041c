package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"babelfeed/internal/feed"
	"babelfeed/internal/model"
	"babelfeed/internal/store"
	"babelfeed/internal/textnorm"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFetcher serves canned entries per feed URL and can fail per URL.
type fakeFetcher struct {
	entries map[string][]feed.Entry
	failing map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]feed.Entry, error) {
	if f.failing[url] {
		return nil, fmt.Errorf("simulated fetch failure for %s", url)
	}
	return f.entries[url], nil
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	st, err := store.NewHybridStore(mr.Addr(), t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func newTestPipeline(t *testing.T, st store.Store, fetcher Fetcher) *Pipeline {
	t.Helper()
	normalizer := textnorm.NewNormalizer(fakeTranslator{}, zap.NewNop())
	p := NewPipeline(st, fetcher, normalizer, DefaultRetentionDays, zap.NewNop())
	// Pin the clock near the test fixtures' publish dates so the
	// retention sweep never touches them.
	p.now = func() time.Time { return time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC) }
	return p
}

func entry(link string) feed.Entry {
	return feed.Entry{
		Link:        link,
		Title:       "Government announces infrastructure spending",
		Description: "Details about the announced spending package",
		Published:   "Wed, 08 Jan 2025 17:57:38 -0000",
	}
}

func TestRun_IdempotentReingestion(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"https://feeds.example/a": {entry("https://news.example/1"), entry("https://news.example/2")},
	}}
	p := newTestPipeline(t, st, fetcher)
	urls := []string{"https://feeds.example/a"}

	first, err := p.Run(context.Background(), urls)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	// Same feed again: nothing new, store unchanged.
	second, err := p.Run(context.Background(), urls)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Skipped)

	articles, err := st.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Len(t, articles, 2)
}

func TestRun_PreservesReadStatus(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"https://feeds.example/a": {entry("https://news.example/1")},
	}}
	p := newTestPipeline(t, st, fetcher)
	urls := []string{"https://feeds.example/a"}
	ctx := context.Background()

	_, err := p.Run(ctx, urls)
	require.NoError(t, err)
	require.NoError(t, st.SetRead(ctx, "https://news.example/1", true))

	_, err = p.Run(ctx, urls)
	require.NoError(t, err)

	read, err := st.ReadStatus(ctx, "https://news.example/1")
	require.NoError(t, err)
	assert.True(t, read, "re-ingestion must not reset the read flag")

	articles, err := st.List(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, articles, 1, "re-ingestion must not duplicate the record")
}

func TestRun_FeedFailureDoesNotAbortOthers(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{
		entries: map[string][]feed.Entry{
			"https://feeds.example/ok": {entry("https://news.example/1")},
		},
		failing: map[string]bool{"https://feeds.example/down": true},
	}
	p := newTestPipeline(t, st, fetcher)

	report, err := p.Run(context.Background(), []string{
		"https://feeds.example/down",
		"https://feeds.example/ok",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
}

func TestRun_EmptyFeedListIsCleanNoop(t *testing.T) {
	st := newTestStore(t)
	p := newTestPipeline(t, st, &fakeFetcher{})

	report, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Inserted)
	assert.Zero(t, report.Fetched)
}

func TestRun_DuplicateWithinSingleFetch(t *testing.T) {
	// Both occurrences pass the snapshot check; the store rejects the
	// second one, so exactly one record lands.
	st := newTestStore(t)
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"https://feeds.example/a": {entry("https://news.example/1"), entry("https://news.example/1")},
	}}
	p := newTestPipeline(t, st, fetcher)

	report, err := p.Run(context.Background(), []string{"https://feeds.example/a"})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.Inserted)
}

func TestRun_EntryWithoutLinkSkipped(t *testing.T) {
	st := newTestStore(t)
	bad := entry("")
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"https://feeds.example/a": {bad, entry("https://news.example/1")},
	}}
	p := newTestPipeline(t, st, fetcher)

	report, err := p.Run(context.Background(), []string{"https://feeds.example/a"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
}

func TestRun_SweepsExpiredArticlesBeforeInserting(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Older than the 30 day horizon relative to the pinned clock.
	_, err := st.InsertBatch(ctx, []model.Article{{
		Link:      "https://news.example/ancient",
		Title:     "Old story",
		Published: "2024-11-01",
	}})
	require.NoError(t, err)

	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"https://feeds.example/a": {entry("https://news.example/1")},
	}}
	p := newTestPipeline(t, st, fetcher)

	report, err := p.Run(ctx, []string{"https://feeds.example/a"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Swept)
	assert.Equal(t, 1, report.Inserted)

	known, err := st.KnownLinks(ctx)
	require.NoError(t, err)
	assert.NotContains(t, known, "https://news.example/ancient")
}

func TestRun_NormalizesDateAndKeywords(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"https://feeds.example/a": {{
			Link:        "https://news.example/1",
			Title:       "<b>Energy prices</b> fall across the region",
			Description: "Wholesale energy prices dropped in March 2024",
			Published:   "Wed, 08 Jan 2025 17:57:38 -0000",
		}},
	}}
	p := newTestPipeline(t, st, fetcher)

	_, err := p.Run(context.Background(), []string{"https://feeds.example/a"})
	require.NoError(t, err)

	articles, err := st.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "2025-01-08", a.Published)
	assert.Equal(t, "Energy prices fall across the region", a.Title)
	assert.False(t, a.Read)
	assert.Contains(t, a.Keywords, "energy")
	assert.NotContains(t, a.Keywords, "march")
}
