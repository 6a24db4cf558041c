// Package feed wraps gofeed behind the small entry shape the ingestion
// pipeline needs. Feeds are untrusted input; missing fields come back as
// empty strings and are resolved downstream.
package feed

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Entry is one raw feed item before any normalization.
type Entry struct {
	Link        string
	Title       string
	Description string
	Published   string
}

type Fetcher struct {
	parser *gofeed.Parser
}

func NewFetcher() *Fetcher {
	return &Fetcher{parser: gofeed.NewParser()}
}

// Fetch downloads and parses one feed URL into entries.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Entry, error) {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", url, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, fromItem(item))
	}
	return entries, nil
}

func fromItem(item *gofeed.Item) Entry {
	published := item.Published
	if published == "" {
		published = item.Updated
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}

	return Entry{
		Link:        item.Link,
		Title:       item.Title,
		Description: description,
		Published:   published,
	}
}
