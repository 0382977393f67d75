package translit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/retail-pos/internal/typeahead"
)

// Suggester debounces lookup requests for callers that feed it one query
// per keystroke. Only the latest query's result is ever delivered; slow
// responses for superseded queries are dropped.
type Suggester struct {
	client   *Client
	debounce *typeahead.Debouncer
	limit    int
}

// NewSuggester wraps client with a debounce window. A non-positive wait
// uses the typeahead default.
func NewSuggester(client *Client, wait time.Duration, limit int) *Suggester {
	if limit < 1 {
		limit = 5
	}
	return &Suggester{
		client:   client,
		debounce: typeahead.New(wait),
		limit:    limit,
	}
}

// Lookup schedules a suggestion fetch for text and delivers the result to
// apply. While the user keeps typing, earlier pending lookups are cancelled
// and in-flight ones discarded on arrival.
func (s *Suggester) Lookup(ctx context.Context, text string, apply func([]string, error)) {
	s.debounce.Submit(func(ticket typeahead.Ticket) {
		suggestions, err := s.client.Suggestions(ctx, text, s.limit)
		if !ticket.Current() {
			return
		}
		apply(suggestions, err)
	})
}

// Prewarm returns middleware that feeds incoming search queries into the
// suggester, so the suggestion cache is already warm when the terminal
// asks to transliterate the settled query. A burst of keystrokes
// collapses into a single upstream call for the last one.
func (s *Suggester) Prewarm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			// The lookup fires after this request has completed.
			s.Lookup(context.WithoutCancel(r.Context()), q, func([]string, error) {})
		}
		next.ServeHTTP(w, r)
	})
}

// Stop cancels any pending lookup.
func (s *Suggester) Stop() {
	s.debounce.Stop()
}
