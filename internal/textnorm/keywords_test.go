package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords_Denylist(t *testing.T) {
	keywords := ExtractKeywords("The report was published in March 2024 by the defence ministry", 10)

	assert.NotContains(t, keywords, "march")
	for _, kw := range keywords {
		assert.NotContains(t, kw, "2024")
	}
	assert.Contains(t, keywords, "defence")
	assert.Contains(t, keywords, "ministry")
}

func TestExtractKeywords_LowercaseAndDedup(t *testing.T) {
	keywords := ExtractKeywords("Poland POLAND poland announces Announces reforms", 10)

	assert.Equal(t, []string{"poland", "announces", "reforms"}, keywords)
}

func TestExtractKeywords_MaxBound(t *testing.T) {
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo lima"
	keywords := ExtractKeywords(text, 5)

	assert.Len(t, keywords, 5)
}

func TestExtractKeywords_FrequencyWinsThenFirstSeenOrder(t *testing.T) {
	// "energy" appears three times and must survive the cut even though
	// it shows up late; the surviving set keeps first-seen order.
	text := "alpha bravo charlie delta echo energy foxtrot energy golf energy"
	keywords := ExtractKeywords(text, 3)

	assert.Contains(t, keywords, "energy")
	assert.Equal(t, []string{"alpha", "bravo", "energy"}, keywords)
}

func TestExtractKeywords_ShortTokensDropped(t *testing.T) {
	keywords := ExtractKeywords("EU to ban it at a go summit", 10)

	assert.NotContains(t, keywords, "eu")
	assert.NotContains(t, keywords, "to")
	assert.Contains(t, keywords, "ban")
	assert.Contains(t, keywords, "summit")
}

func TestExtractKeywords_Empty(t *testing.T) {
	assert.Empty(t, ExtractKeywords("", 10))
	assert.Empty(t, ExtractKeywords("2024 03 15", 10))
}
