package inventory

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/retail-pos/internal/common"
)

// Handler exposes the inventory REST surface. Successful responses follow
// the collaborator contract consumed by the billing front-end: bare arrays
// and objects, not the envelope used elsewhere.
type Handler struct {
	Service *Service
}

// List handles GET /api/inventory.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "inventory service not configured", nil)
		return
	}
	products, err := h.Service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, products)
}

// Search handles GET /api/inventory/search?q=. A missing query yields an
// empty array, not an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "inventory service not configured", nil)
		return
	}
	products, err := h.Service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, products)
}

// Create handles POST /api/inventory.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "inventory service not configured", nil)
		return
	}
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return
	}
	product, err := h.Service.Create(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/inventory/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "inventory service not configured", nil)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return
	}
	product, err := h.Service.Update(r.Context(), id, input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/inventory/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "inventory service not configured", nil)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid item id", nil)
		return 0, false
	}
	return id, true
}
