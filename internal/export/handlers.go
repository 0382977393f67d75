package export

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/retail-pos/internal/common"
)

// Handler exposes the export pipeline over HTTP.
type Handler struct {
	Service *Service
}

// Create handles POST /api/sessions/{id}/exports and answers 202 with the
// export ID; rendering happens in the worker.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if strings.TrimSpace(sessionID) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid session id", nil)
		return
	}

	var payload struct {
		Format string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return
	}
	format, err := ParseFormat(payload.Format)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "format must be pdf or xlsx", nil)
		return
	}

	rec, err := h.Service.Enqueue(r.Context(), sessionID, format)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusAccepted, map[string]any{
		"exportId": rec.ID,
		"status":   rec.State,
	})
}

// Get handles GET /api/exports/{exportID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.Status(r.Context(), chi.URLParam(r, "exportID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rec)
}
