package store

import (
	"context"
	"errors"

	"babelfeed/internal/model"
)

var (
	ErrNotFound = errors.New("article not found")
)

// Filter narrows what List returns.
type Filter struct {
	Keyword    string
	UnreadOnly bool
	Limit      int
}

// KeywordCount is one entry of the keyword cloud.
type KeywordCount struct {
	Keyword string
	Count   int64
}

// Store is the only way the rest of the system touches persisted
// articles. Links are unique; InsertBatch enforces that.
type Store interface {
	KnownLinks(ctx context.Context) (map[string]struct{}, error)
	ReadStatus(ctx context.Context, link string) (bool, error)
	InsertBatch(ctx context.Context, articles []model.Article) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff string) (int, error)
	List(ctx context.Context, f Filter) ([]model.Article, error)
	SetRead(ctx context.Context, link string, read bool) error
	KeywordCounts(ctx context.Context, top int) ([]KeywordCount, error)
	Close()
}
