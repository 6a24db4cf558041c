// Package textnorm turns raw feed text into its stored form: markup
// stripped, translated to English when needed, with a bounded keyword
// list. Normalize never fails; every degraded path falls back to the
// best text available.
package textnorm

import (
	"context"
	"html"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// TargetLanguage is the language all stored text is normalized to.
const TargetLanguage = "en"

// Result is the normalized form of one entry's text fields.
type Result struct {
	Title            string
	Description      string
	OriginalLanguage string
	Keywords         []string
}

type Normalizer struct {
	translator  Translator
	logger      *zap.Logger
	policy      *bluemonday.Policy
	target      string
	maxKeywords int

	// detect is the language detector; tests swap it out.
	detect func(text string) string
}

// NewNormalizer builds a normalizer translating into TargetLanguage.
func NewNormalizer(translator Translator, logger *zap.Logger) *Normalizer {
	n := &Normalizer{
		translator:  translator,
		logger:      logger,
		policy:      bluemonday.StrictPolicy(),
		target:      TargetLanguage,
		maxKeywords: DefaultMaxKeywords,
	}
	n.detect = n.detectLanguage
	return n
}

// Normalize strips markup, translates title and description into the
// target language when the title is detected as something else, and
// extracts keywords from the result.
func (n *Normalizer) Normalize(ctx context.Context, rawTitle, rawDescription string) Result {
	title := n.strip(rawTitle)
	description := n.strip(rawDescription)

	lang := n.detect(title)
	if lang != n.target {
		title = n.translate(ctx, title, lang)
		description = n.translate(ctx, description, lang)
	}

	return Result{
		Title:            title,
		Description:      description,
		OriginalLanguage: lang,
		Keywords:         ExtractKeywords(title+" "+description, n.maxKeywords),
	}
}

// translate returns the translated text, or the input untouched when the
// provider fails. The failure is logged and swallowed on purpose.
func (n *Normalizer) translate(ctx context.Context, text, source string) string {
	translated, err := n.translator.Translate(ctx, text, source, n.target)
	if err != nil {
		n.logger.Warn("Translation failed, keeping original text",
			zap.String("source_lang", source),
			zap.Error(err))
		return text
	}
	return translated
}

// detectLanguage returns the ISO 639-1 code of text, or the target
// language when detection is unreliable or unsupported.
func (n *Normalizer) detectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return n.target
	}
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" || !info.IsReliable() {
		return n.target
	}
	return code
}

func (n *Normalizer) strip(raw string) string {
	return strings.TrimSpace(html.UnescapeString(n.policy.Sanitize(raw)))
}
