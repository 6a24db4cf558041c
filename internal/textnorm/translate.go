package textnorm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Translator converts text between languages. Implementations are treated
// as black boxes; any failure is handled by the caller, never surfaced
// past the normalizer.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleTranslator talks to the free Google translate endpoint.
type GoogleTranslator struct {
	client   *http.Client
	endpoint string
}

// NewGoogleTranslator builds a translator with a sane request timeout.
func NewGoogleTranslator() *GoogleTranslator {
	return &GoogleTranslator{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: googleEndpoint,
	}
}

// Translate requests a translation of text from source to target.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return parseTranslation(body)
}

// parseTranslation unpacks the endpoint's nested-array payload:
// [[["translated","original",...],...],...]. Only the translated
// segments are kept.
func parseTranslation(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("translate response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("translate response: empty payload")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("translate response: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("translate response: no segments")
	}
	return b.String(), nil
}
