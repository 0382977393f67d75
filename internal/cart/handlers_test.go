package cart_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retail-pos/internal/bill"
	"github.com/noah-isme/retail-pos/internal/cart"
	"github.com/noah-isme/retail-pos/internal/inventory"
)

type fakeRepo struct {
	products map[int64]inventory.Product
}

func (f *fakeRepo) List(ctx context.Context) ([]inventory.Product, error) { return nil, nil }

func (f *fakeRepo) Get(ctx context.Context, id int64) (inventory.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return inventory.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeRepo) Search(ctx context.Context, q string, limit int) ([]inventory.Product, error) {
	return nil, nil
}

func (f *fakeRepo) Create(ctx context.Context, input inventory.ProductInput) (inventory.Product, error) {
	return inventory.Product{}, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, input inventory.ProductInput) (bool, error) {
	return false, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) (bool, error) { return false, nil }

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := inventory.NewService(inventory.ServiceConfig{Repo: &fakeRepo{
		products: map[int64]inventory.Product{
			1: {ID: 1, Name: "Sugar", LocalizedName: "चीनी", Unit: "kg"},
			2: {ID: 2, Name: "Rice", Unit: "kg"},
		},
	}})
	require.NoError(t, err)

	h := &cart.Handler{
		Store:     cart.Store{R: client},
		Inventory: svc,
		Layout:    bill.Layout{Rows: 3},
	}

	r := chi.NewRouter()
	r.Post("/api/sessions", h.Create)
	r.Get("/api/sessions/{id}", h.Get)
	r.Delete("/api/sessions/{id}", h.Clear)
	r.Put("/api/sessions/{id}/customer", h.SetCustomer)
	r.Post("/api/sessions/{id}/items", h.AddItem)
	r.Patch("/api/sessions/{id}/items/{itemID}", h.UpdateItem)
	r.Delete("/api/sessions/{id}/items/{itemID}", h.RemoveItem)
	r.Get("/api/sessions/{id}/bill", h.Bill)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) cart.State {
	t.Helper()
	var envelope struct {
		Data cart.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data struct {
			SessionID string `json:"sessionId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.SessionID)
	return envelope.Data.SessionID
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	rec := do(t, r, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeState(t, rec).Cart.Items)

	rec = do(t, r, http.MethodPut, "/api/sessions/"+id+"/customer", map[string]string{
		"customerName": "Ramesh",
		"mobile":       "9876543210",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	require.Equal(t, "Ramesh", state.CustomerName)
	require.Equal(t, "9876543210", state.Mobile)

	rec = do(t, r, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decodeState(t, rec)
	require.Empty(t, state.CustomerName)
	require.Empty(t, state.Cart.Items)

	// the session key survives a clear
	rec = do(t, r, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionNotFound(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/api/sessions/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItemMergesByProductAndUnit(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	rec := do(t, r, http.MethodPost, "/api/sessions/"+id+"/items", map[string]any{
		"productId": 1, "quantity": 3, "unit": "kg",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/sessions/"+id+"/items", map[string]any{
		"productId": 1, "quantity": 2, "unit": "kg",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	require.Len(t, state.Cart.Items, 1)
	require.Equal(t, 5, state.Cart.Items[0].Quantity)
	require.Equal(t, "kg", state.Cart.Items[0].Unit)
}

func TestAddItemDefaultsUnitFromProduct(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	rec := do(t, r, http.MethodPost, "/api/sessions/"+id+"/items", map[string]any{
		"productId": 2, "quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "kg", decodeState(t, rec).Cart.Items[0].Unit)
}

func TestAddItemUnknownProduct(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	rec := do(t, r, http.MethodPost, "/api/sessions/"+id+"/items", map[string]any{
		"productId": 99, "quantity": 1, "unit": "kg",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/sessions/"+id, nil)
	require.Empty(t, decodeState(t, rec).Cart.Items)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	rec := do(t, r, http.MethodPost, "/api/sessions/"+id+"/items", map[string]any{
		"productId": 1, "quantity": 1, "unit": "kg",
	})
	itemID := decodeState(t, rec).Cart.Items[0].ID

	rec = do(t, r, http.MethodPatch, "/api/sessions/"+id+"/items/"+itemID, map[string]any{
		"quantity": 4, "unit": "packet",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	require.Equal(t, 4, state.Cart.Items[0].Quantity)
	require.Equal(t, "packet", state.Cart.Items[0].Unit)

	rec = do(t, r, http.MethodDelete, "/api/sessions/"+id+"/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeState(t, rec).Cart.Items)

	rec = do(t, r, http.MethodDelete, "/api/sessions/"+id+"/items/"+itemID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateItemNotFound(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	rec := do(t, r, http.MethodPatch, "/api/sessions/"+id+"/items/missing", map[string]any{
		"quantity": 4,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBillPagination(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	// layout holds 6 items per page; seven adds of distinct units spill to page 2
	units := []string{"kg", "g", "packet", "box", "bag", "dozen", "piece"}
	for _, u := range units {
		rec := do(t, r, http.MethodPost, "/api/sessions/"+id+"/items", map[string]any{
			"productId": 1, "quantity": 1, "unit": u,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, r, http.MethodGet, "/api/sessions/"+id+"/bill", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Pages     []bill.Page `json:"pages"`
			PageCount int         `json:"pageCount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, 2, envelope.Data.PageCount)
	require.Len(t, envelope.Data.Pages, 2)
	require.Equal(t, "1", envelope.Data.Pages[0].Left[0].Serial)
	require.Equal(t, "7", envelope.Data.Pages[1].Left[0].Serial)

	rec = do(t, r, http.MethodGet, "/api/sessions/"+id+"/bill?page=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/sessions/"+id+"/bill?page=5", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBillEmptyCartHasZeroPages(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	rec := do(t, r, http.MethodGet, "/api/sessions/"+id+"/bill", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Pages     []bill.Page `json:"pages"`
			PageCount int         `json:"pageCount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, 0, envelope.Data.PageCount)
	require.Empty(t, envelope.Data.Pages)
}
