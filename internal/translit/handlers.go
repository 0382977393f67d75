package translit

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/retail-pos/internal/common"
	"github.com/noah-isme/retail-pos/internal/obs"
)

// Handler proxies suggestion lookups over HTTP.
type Handler struct {
	Client *Client
	Limit  int
}

// Suggest handles GET /api/transliterate. A missing query yields an empty
// array rather than an error so clients can call it on every keystroke.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		common.JSON(w, http.StatusOK, []string{})
		return
	}

	limit := h.Limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	suggestions, err := h.Client.Suggestions(r.Context(), q, limit)
	if err != nil {
		recordLookup("upstream_error")
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("query", q).Msg("transliteration lookup failed")
		if errors.Is(err, ErrUpstream) {
			common.JSONError(w, http.StatusBadGateway, common.CodeUpstream, "transliteration service unavailable", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "transliteration lookup failed", nil)
		return
	}

	recordLookup("ok")
	common.JSON(w, http.StatusOK, suggestions)
}

func recordLookup(result string) {
	if obs.TranslitLookupsTotal != nil {
		obs.TranslitLookupsTotal.WithLabelValues(result).Inc()
	}
}
