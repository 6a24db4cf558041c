// Package ingest runs the feed processing cycle: sweep expired articles,
// snapshot known links, fetch every configured feed, normalize the new
// entries and commit them as one batch.
package ingest

import (
	"context"
	"time"

	"babelfeed/internal/datenorm"
	"babelfeed/internal/feed"
	"babelfeed/internal/model"
	"babelfeed/internal/store"
	"babelfeed/internal/textnorm"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRetentionDays is how long articles live before the sweep
// removes them.
const DefaultRetentionDays = 30

// Fetcher downloads one feed. The interface exists so tests can feed the
// pipeline canned entries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.Entry, error)
}

// Report summarizes one pipeline run.
type Report struct {
	Feeds    int
	Fetched  int
	Skipped  int
	Inserted int
	Swept    int
}

type Pipeline struct {
	store         store.Store
	fetcher       Fetcher
	normalizer    *textnorm.Normalizer
	logger        *zap.Logger
	retentionDays int

	// now is swapped out in tests.
	now func() time.Time
}

func NewPipeline(st store.Store, fetcher Fetcher, normalizer *textnorm.Normalizer, retentionDays int, logger *zap.Logger) *Pipeline {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Pipeline{
		store:         st,
		fetcher:       fetcher,
		normalizer:    normalizer,
		logger:        logger,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Run processes every configured feed once. A failing feed or entry is
// logged and skipped; the run keeps going. An empty feed list is a clean
// no-op.
func (p *Pipeline) Run(ctx context.Context, feedURLs []string) (Report, error) {
	logger := p.logger.With(zap.String("run_id", uuid.New().String()))
	report := Report{Feeds: len(feedURLs)}

	if len(feedURLs) == 0 {
		logger.Info("No feeds configured, nothing to do")
		return report, nil
	}

	// Sweep before inserting so the store never grows past the horizon
	// plus one cycle of new articles.
	cutoff := p.now().UTC().AddDate(0, 0, -p.retentionDays).Format(datenorm.Layout)
	swept, err := p.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.Error("Retention sweep failed", zap.String("cutoff", cutoff), zap.Error(err))
	} else if swept > 0 {
		logger.Info("Swept expired articles", zap.String("cutoff", cutoff), zap.Int("count", swept))
	}
	report.Swept = swept

	// The skip decision for the whole run is made against this one
	// snapshot, never against links inserted later in the same run.
	known, err := p.store.KnownLinks(ctx)
	if err != nil {
		return report, err
	}

	var batch []model.Article
	for _, url := range feedURLs {
		entries, err := p.fetcher.Fetch(ctx, url)
		if err != nil {
			logger.Error("Feed fetch failed", zap.String("feed", url), zap.Error(err))
			continue
		}
		report.Fetched += len(entries)

		feedLogger := logger.With(zap.String("feed", url))
		for _, entry := range entries {
			if entry.Link == "" {
				feedLogger.Warn("Entry without link skipped", zap.String("title", entry.Title))
				continue
			}
			if _, seen := known[entry.Link]; seen {
				report.Skipped++
				continue
			}
			batch = append(batch, p.assemble(ctx, entry))
		}
	}

	inserted, err := p.store.InsertBatch(ctx, batch)
	if err != nil {
		return report, err
	}
	report.Inserted = inserted

	logger.Info("Ingestion run complete",
		zap.Int("feeds", report.Feeds),
		zap.Int("fetched", report.Fetched),
		zap.Int("skipped", report.Skipped),
		zap.Int("inserted", report.Inserted),
		zap.Int("swept", report.Swept))
	return report, nil
}

// assemble normalizes one surviving entry into an article record. The
// read flag comes from the store so a link that existed in an older
// snapshot keeps its status; for a genuinely new link it is false.
func (p *Pipeline) assemble(ctx context.Context, entry feed.Entry) model.Article {
	text := p.normalizer.Normalize(ctx, entry.Title, entry.Description)

	read, err := p.store.ReadStatus(ctx, entry.Link)
	if err != nil {
		p.logger.Warn("Read status lookup failed, defaulting to unread",
			zap.String("link", entry.Link), zap.Error(err))
		read = false
	}

	return model.Article{
		Link:             entry.Link,
		Title:            text.Title,
		Description:      text.Description,
		Published:        datenorm.Normalize(entry.Published),
		OriginalLanguage: text.OriginalLanguage,
		Keywords:         text.Keywords,
		Read:             read,
		FetchedAt:        p.now(),
	}
}
