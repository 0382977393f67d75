package cart

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/retail-pos/internal/bill"
	"github.com/noah-isme/retail-pos/internal/common"
	"github.com/noah-isme/retail-pos/internal/inventory"
)

// Handler wires session state to HTTP. Every mutation loads the state,
// applies the change, and writes the whole state back.
type Handler struct {
	Store     Store
	Inventory *inventory.Service
	Layout    bill.Layout
}

// Create handles POST /api/sessions and opens an empty billing session.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	if err := h.Store.Save(r.Context(), sessionID, State{}); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to create session", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, map[string]string{"sessionId": sessionID})
}

// Get handles GET /api/sessions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	common.JSONData(w, http.StatusOK, state)
}

// Clear handles DELETE /api/sessions/{id}: the cart and customer metadata
// reset together, but the session itself survives for the next bill.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	state.Clear()
	h.saveAndRespond(w, r, state)
}

// SetCustomer handles PUT /api/sessions/{id}/customer.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	var info CustomerInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return
	}
	state.SetCustomer(info)
	h.saveAndRespond(w, r, state)
}

// AddItem handles POST /api/sessions/{id}/items. The product is resolved
// server-side so a stale client cannot bill a deleted item.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Inventory == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "inventory service not configured", nil)
		return
	}
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	var payload struct {
		ProductID int64  `json:"productId"`
		Quantity  int    `json:"quantity"`
		Unit      string `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return
	}
	if payload.ProductID < 1 {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "productId is required", nil)
		return
	}
	product, err := h.Inventory.Get(r.Context(), payload.ProductID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	unit := strings.TrimSpace(payload.Unit)
	if unit == "" {
		unit = product.Unit
	}
	state.Cart.Add(product, payload.Quantity, unit)
	h.saveAndRespond(w, r, state)
}

// UpdateItem handles PATCH /api/sessions/{id}/items/{itemID}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	var payload struct {
		Quantity int    `json:"quantity"`
		Unit     string `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return
	}
	if !state.Cart.Edit(chi.URLParam(r, "itemID"), payload.Quantity, payload.Unit) {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "line item not found", nil)
		return
	}
	h.saveAndRespond(w, r, state)
}

// RemoveItem handles DELETE /api/sessions/{id}/items/{itemID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	if !state.Cart.Remove(chi.URLParam(r, "itemID")) {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "line item not found", nil)
		return
	}
	h.saveAndRespond(w, r, state)
}

// Bill handles GET /api/sessions/{id}/bill. Without a page parameter it
// returns every page; with ?page=N it returns that page alone, so paging
// through the preview is just repeated calls with different indices.
func (h *Handler) Bill(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	lines := state.Cart.Lines()
	count := bill.PageCount(len(lines), h.Layout)

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid page index", nil)
			return
		}
		page, ok := bill.PageAt(lines, h.Layout, index)
		if !ok {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "page out of range", nil)
			return
		}
		common.JSONData(w, http.StatusOK, map[string]any{
			"page":      page,
			"pageIndex": index,
			"pageCount": count,
		})
		return
	}

	common.JSONData(w, http.StatusOK, map[string]any{
		"pages":     bill.Paginate(lines, h.Layout),
		"pageCount": count,
	})
}

func (h *Handler) loadState(w http.ResponseWriter, r *http.Request) (State, bool) {
	sessionID := chi.URLParam(r, "id")
	if strings.TrimSpace(sessionID) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid session id", nil)
		return State{}, false
	}
	state, found, err := h.Store.Load(r.Context(), sessionID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load session", nil)
		return State{}, false
	}
	if !found {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "session not found", nil)
		return State{}, false
	}
	return state, true
}

func (h *Handler) saveAndRespond(w http.ResponseWriter, r *http.Request, state State) {
	if err := h.Store.Save(r.Context(), chi.URLParam(r, "id"), state); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to save session", nil)
		return
	}
	common.JSONData(w, http.StatusOK, state)
}
