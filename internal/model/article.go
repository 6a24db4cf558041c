package model

import (
	"time"
)

// Article is a single feed entry after normalization. The link is the
// identity of the record; no two stored articles share one.
type Article struct {
	Link             string    `json:"link"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Published        string    `json:"published"` // YYYY-MM-DD
	OriginalLanguage string    `json:"original_language"`
	Keywords         []string  `json:"keywords"`
	Read             bool      `json:"read"`
	FetchedAt        time.Time `json:"fetched_at"`
}
