package textnorm

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxKeywords bounds how many terms Normalize keeps per article.
const DefaultMaxKeywords = 10

// denylist holds extraction artifacts observed in real feeds: calendar
// words, CSS/markup leftovers that survive sloppy feed HTML, and currency
// abbreviations. Terms in it never reach the store.
var denylist = map[string]struct{}{
	"pln": {}, "pay": {}, "margin-bottom": {}, "display": {}, "height": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
	"href": {}, "rel": {}, "months": {}, "vspace": {}, "image": {},
	"alt": {}, "years": {}, "head": {}, "class": {}, "time": {},
	"jpeg": {}, "left": {}, "width": {}, "type": {}, "year": {},
	"month": {}, "day": {}, "hspace": {}, "src": {}, "img": {}, "align": {},
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {},
	"june": {}, "july": {}, "august": {}, "september": {}, "october": {},
	"november": {}, "december": {},
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "any": {}, "can": {}, "had": {}, "her": {},
	"was": {}, "one": {}, "our": {}, "out": {}, "has": {}, "have": {},
	"him": {}, "his": {}, "how": {}, "its": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "did": {},
	"get": {}, "been": {}, "from": {}, "they": {}, "this": {}, "that": {},
	"with": {}, "will": {}, "what": {}, "when": {}, "were": {}, "than": {},
	"then": {}, "them": {}, "these": {}, "those": {}, "there": {},
	"their": {}, "about": {}, "would": {}, "could": {}, "should": {},
	"which": {}, "while": {}, "where": {}, "after": {}, "before": {},
	"between": {}, "into": {}, "through": {}, "during": {}, "under": {},
	"over": {}, "again": {}, "more": {}, "most": {}, "other": {},
	"some": {}, "such": {}, "only": {}, "own": {}, "same": {}, "also": {},
	"because": {}, "against": {}, "being": {}, "both": {}, "each": {},
	"said": {}, "says": {}, "just": {}, "very": {}, "here": {},
}

// ExtractKeywords pulls at most max single-word terms out of text. The
// scoring is plain term frequency over lowercased alphabetic tokens, ties
// broken by first appearance, and the final list is ordered by first
// appearance. The same input always produces the same output.
func ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		max = DefaultMaxKeywords
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	type term struct {
		word  string
		count int
		first int
	}
	seen := map[string]*term{}
	var order []*term

	for i, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if _, bad := denylist[tok]; bad {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if t, ok := seen[tok]; ok {
			t.count++
			continue
		}
		t := &term{word: tok, count: 1, first: i}
		seen[tok] = t
		order = append(order, t)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if len(order) > max {
		order = order[:max]
	}

	// Stored order is first-seen, not score.
	sort.Slice(order, func(i, j int) bool {
		return order[i].first < order[j].first
	})

	keywords := make([]string, 0, len(order))
	for _, t := range order {
		keywords = append(keywords, t.word)
	}
	return keywords
}
