// Package translit suggests localized renderings of product and customer
// names via the Google Input Tools API. Operators type a name in Latin
// script and pick a Devanagari spelling from the suggestions.
package translit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/retail-pos/internal/cache"
	"github.com/noah-isme/retail-pos/internal/resilience"
)

// DefaultInputScheme transliterates Latin input into Devanagari.
const DefaultInputScheme = "hi-t-i0-und"

const cacheKeyPrefix = "pos:translit:"

// ErrUpstream wraps any failure talking to or parsing the lookup service.
var ErrUpstream = errors.New("translit: upstream lookup failed")

// Client calls the Input Tools request endpoint and caches suggestion
// lists by query text.
type Client struct {
	BaseURL     string
	InputScheme string
	HTTP        resilience.HTTPClient
	Cache       cache.JSON
}

// Suggestions returns up to limit localized spellings of text. Results are
// served from the cache when warm; any upstream failure is reported as
// ErrUpstream so callers can degrade without guessing at the cause.
func (c *Client) Suggestions(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}
	if limit < 1 {
		limit = 5
	}

	key := cacheKeyPrefix + c.scheme() + ":" + strconv.Itoa(limit) + ":" + text
	var cached []string
	if hit, err := c.Cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	suggestions, err := c.lookup(ctx, text, limit)
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	_ = c.Cache.Set(ctx, key, suggestions)
	return suggestions, nil
}

func (c *Client) lookup(ctx context.Context, text string, limit int) ([]string, error) {
	query := url.Values{
		"text": {text},
		"itc":  {c.scheme()},
		"num":  {strconv.Itoa(limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translit: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return parseResponse(body, limit)
}

func (c *Client) scheme() string {
	if c.InputScheme == "" {
		return DefaultInputScheme
	}
	return c.InputScheme
}

// parseResponse unpacks the nested-array payload the service returns:
// ["SUCCESS",[["text",["सुझाव","..."],...]]]. Anything that does not match
// that shape is an upstream error.
func parseResponse(body []byte, limit int) ([]string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("translit: malformed response: %w", err)
	}
	if len(top) < 2 {
		return nil, errors.New("translit: short response")
	}

	var status string
	if err := json.Unmarshal(top[0], &status); err != nil {
		return nil, fmt.Errorf("translit: malformed status: %w", err)
	}
	if status != "SUCCESS" {
		return nil, fmt.Errorf("translit: lookup status %q", status)
	}

	var entries [][]json.RawMessage
	if err := json.Unmarshal(top[1], &entries); err != nil {
		return nil, fmt.Errorf("translit: malformed entries: %w", err)
	}
	if len(entries) == 0 || len(entries[0]) < 2 {
		return []string{}, nil
	}

	var suggestions []string
	if err := json.Unmarshal(entries[0][1], &suggestions); err != nil {
		return nil, fmt.Errorf("translit: malformed suggestions: %w", err)
	}
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}
