package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkart/shopkart/internal/domain/cart"
	"github.com/shopkart/shopkart/internal/domain/discount"
	"github.com/shopkart/shopkart/internal/domain/order"
	"github.com/shopkart/shopkart/internal/memstore"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	store := memstore.New()
	manager := cart.NewManager(store)
	engine := discount.NewEngine(store, store, discount.EngineConfig{})
	checkout := order.NewService(store, engine, store, order.NewUserLocker())

	return New(manager, engine, checkout, store).Routes()
}

func doJSON(t *testing.T, r chi.Router, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func addItem(t *testing.T, r chi.Router, userID string, price float64, qty int) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, r, http.MethodPost, "/cart/add", userID, map[string]any{
		"productId": "p1",
		"name":      "Widget",
		"price":     price,
		"quantity":  qty,
	})
}

func TestGetCart_Empty(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items               []any  `json:"items"`
		AppliedDiscountCode string `json:"appliedDiscountCode"`
	}
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Items)
	assert.Empty(t, resp.AppliedDiscountCode)
}

func TestAddToCart(t *testing.T) {
	r := newTestRouter(t)

	rec := addItem(t, r, "u1", 9.99, 2)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []struct {
			ProductID string  `json:"productId"`
			Name      string  `json:"name"`
			Price     float64 `json:"price"`
			Quantity  int     `json:"quantity"`
		} `json:"items"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "p1", resp.Items[0].ProductID)
	assert.InDelta(t, 9.99, resp.Items[0].Price, 1e-9)
	assert.Equal(t, 2, resp.Items[0].Quantity)

	// Same product again merges quantities.
	rec = addItem(t, r, "u1", 9.99, 3)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)
}

func TestAddToCart_Validation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing product id", map[string]any{"name": "W", "price": 1.0, "quantity": 1}},
		{"missing name", map[string]any{"productId": "p1", "price": 1.0, "quantity": 1}},
		{"negative price", map[string]any{"productId": "p1", "name": "W", "price": -1.0, "quantity": 1}},
		{"zero quantity", map[string]any{"productId": "p1", "name": "W", "price": 1.0, "quantity": 0}},
		{"negative quantity", map[string]any{"productId": "p1", "name": "W", "price": 1.0, "quantity": -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/cart/add", "u1", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// Nothing was added.
	rec := doJSON(t, r, http.MethodGet, "/cart", "u1", nil)
	var resp struct {
		Items []any `json:"items"`
	}
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Items)
}

func TestAddToCart_MalformedJSON(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cart/add", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartsAreIsolatedByUserHeader(t *testing.T) {
	r := newTestRouter(t)

	require.Equal(t, http.StatusOK, addItem(t, r, "alice", 5, 1).Code)

	rec := doJSON(t, r, http.MethodGet, "/cart", "bob", nil)
	var resp struct {
		Items []any `json:"items"`
	}
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Items, "bob's cart is untouched by alice's add")
}

func TestCheckout_EmptyCart(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/checkout", "u1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "cart is empty", resp.Error)
}

type checkoutBody struct {
	Order struct {
		ID             string  `json:"id"`
		TotalAmount    float64 `json:"totalAmount"`
		DiscountCode   string  `json:"discountCode"`
		DiscountAmount float64 `json:"discountAmount"`
		FinalAmount    float64 `json:"finalAmount"`
	} `json:"order"`
	NextCode *struct {
		Code            string  `json:"code"`
		DiscountPercent float64 `json:"discountPercent"`
		IsUsed          bool    `json:"isUsed"`
	} `json:"discountCodeGeneratedForNextOrder"`
}

func TestCheckoutFlow(t *testing.T) {
	r := newTestRouter(t)

	// Two plain orders; neither crosses the boundary.
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, addItem(t, r, "u1", 10, 1).Code)
		rec := doJSON(t, r, http.MethodPost, "/checkout", "u1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body checkoutBody
		decodeBody(t, rec, &body)
		assert.Nil(t, body.NextCode)
	}

	// Third order issues DISC10_3.
	require.Equal(t, http.StatusOK, addItem(t, r, "u1", 10, 1).Code)
	rec := doJSON(t, r, http.MethodPost, "/checkout", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body checkoutBody
	decodeBody(t, rec, &body)
	require.NotNil(t, body.NextCode)
	assert.Equal(t, "DISC10_3", body.NextCode.Code)
	assert.InDelta(t, 10, body.NextCode.DiscountPercent, 1e-9)
	assert.False(t, body.NextCode.IsUsed)

	// Apply the code to a fresh 50.00 cart.
	require.Equal(t, http.StatusOK, addItem(t, r, "u1", 50, 1).Code)
	rec = doJSON(t, r, http.MethodPost, "/cart/apply-discount", "u1", map[string]string{"code": "DISC10_3"})
	require.Equal(t, http.StatusOK, rec.Code)

	var cartResp struct {
		AppliedDiscountCode string `json:"appliedDiscountCode"`
	}
	decodeBody(t, rec, &cartResp)
	assert.Equal(t, "DISC10_3", cartResp.AppliedDiscountCode)

	rec = doJSON(t, r, http.MethodPost, "/checkout", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, "DISC10_3", body.Order.DiscountCode)
	assert.InDelta(t, 50.00, body.Order.TotalAmount, 1e-9)
	assert.InDelta(t, 5.00, body.Order.DiscountAmount, 1e-9)
	assert.InDelta(t, 45.00, body.Order.FinalAmount, 1e-9)

	// The consumed code cannot be applied again.
	require.Equal(t, http.StatusOK, addItem(t, r, "u1", 10, 1).Code)
	rec = doJSON(t, r, http.MethodPost, "/cart/apply-discount", "u1", map[string]string{"code": "DISC10_3"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_InlineCode(t *testing.T) {
	r := newTestRouter(t)

	// Drive the counter to the boundary so a code exists.
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, addItem(t, r, fmt.Sprintf("u%d", i), 10, 1).Code)
		rec := doJSON(t, r, http.MethodPost, "/checkout", fmt.Sprintf("u%d", i), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.Equal(t, http.StatusOK, addItem(t, r, "buyer", 20, 1).Code)
	rec := doJSON(t, r, http.MethodPost, "/checkout", "buyer", map[string]string{"code": "DISC10_3"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body checkoutBody
	decodeBody(t, rec, &body)
	assert.Equal(t, "DISC10_3", body.Order.DiscountCode)
	assert.InDelta(t, 2.00, body.Order.DiscountAmount, 1e-9)
	assert.InDelta(t, 18.00, body.Order.FinalAmount, 1e-9)
}

func TestCheckout_UnknownInlineCode(t *testing.T) {
	r := newTestRouter(t)

	require.Equal(t, http.StatusOK, addItem(t, r, "u1", 10, 1).Code)
	rec := doJSON(t, r, http.MethodPost, "/checkout", "u1", map[string]string{"code": "GHOST"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Cart is untouched.
	rec = doJSON(t, r, http.MethodGet, "/cart", "u1", nil)
	var resp struct {
		Items []any `json:"items"`
	}
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Items, 1)
}

func TestApplyDiscount_UnknownCode(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/cart/apply-discount", "u1", map[string]string{"code": "GHOST"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "invalid or already used discount code", resp.Error)
}

func TestApplyDiscount_MissingCode(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/cart/apply-discount", "u1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateDiscount(t *testing.T) {
	r := newTestRouter(t)

	// Not due yet.
	rec := doJSON(t, r, http.MethodPost, "/admin/discount/generate", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		CurrentOrderCount int64 `json:"currentOrderCount"`
		Issued            bool  `json:"issued"`
		Code              *struct {
			Code string `json:"code"`
		} `json:"code"`
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	assert.Zero(t, resp.CurrentOrderCount)
	assert.False(t, resp.Issued)
	assert.Nil(t, resp.Code)
	assert.Equal(t, "no discount code due yet", resp.Error)

	// Complete three orders, then the trigger issues the boundary code.
	for i := 0; i < 3; i++ {
		userID := fmt.Sprintf("u%d", i)
		require.Equal(t, http.StatusOK, addItem(t, r, userID, 10, 1).Code)
		require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/checkout", userID, nil).Code)
	}

	// The third checkout already issued DISC10_3, so the manual trigger
	// reports the existing code with issued = false.
	rec = doJSON(t, r, http.MethodPost, "/admin/discount/generate", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, int64(3), resp.CurrentOrderCount)
	assert.False(t, resp.Issued)
	require.NotNil(t, resp.Code)
	assert.Equal(t, "DISC10_3", resp.Code.Code)
}

func TestStats(t *testing.T) {
	r := newTestRouter(t)

	// No orders yet.
	rec := doJSON(t, r, http.MethodGet, "/admin/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalItemsPurchased int64   `json:"totalItemsPurchased"`
		TotalPurchaseAmount float64 `json:"totalPurchaseAmount"`
		TotalDiscountAmount float64 `json:"totalDiscountAmount"`
		DiscountCodes       []struct {
			Code   string `json:"code"`
			IsUsed bool   `json:"isUsed"`
		} `json:"discountCodes"`
	}
	decodeBody(t, rec, &resp)
	assert.Zero(t, resp.TotalItemsPurchased)
	assert.Empty(t, resp.DiscountCodes)

	// Three orders of 10.00 x 2 each; the third issues a code.
	for i := 0; i < 3; i++ {
		userID := fmt.Sprintf("u%d", i)
		require.Equal(t, http.StatusOK, addItem(t, r, userID, 10, 2).Code)
		require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/checkout", userID, nil).Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/admin/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, int64(6), resp.TotalItemsPurchased)
	assert.InDelta(t, 60.00, resp.TotalPurchaseAmount, 1e-9)
	assert.InDelta(t, 0.00, resp.TotalDiscountAmount, 1e-9)
	require.Len(t, resp.DiscountCodes, 1)
	assert.Equal(t, "DISC10_3", resp.DiscountCodes[0].Code)
	assert.False(t, resp.DiscountCodes[0].IsUsed)

	// Redeem it and verify the discount shows up in stats.
	require.Equal(t, http.StatusOK, addItem(t, r, "buyer", 50, 1).Code)
	rec = doJSON(t, r, http.MethodPost, "/checkout", "buyer", map[string]string{"code": "DISC10_3"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/admin/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, int64(7), resp.TotalItemsPurchased)
	assert.InDelta(t, 110.00, resp.TotalPurchaseAmount, 1e-9)
	assert.InDelta(t, 5.00, resp.TotalDiscountAmount, 1e-9)
	require.Len(t, resp.DiscountCodes, 1)
	assert.True(t, resp.DiscountCodes[0].IsUsed)
}
