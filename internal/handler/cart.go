package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shopkart/shopkart/internal/domain/cart"
	"github.com/shopkart/shopkart/internal/domain/discount"
)

type cartItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type cartResponse struct {
	Items               []cartItemResponse `json:"items"`
	AppliedDiscountCode string             `json:"appliedDiscountCode,omitempty"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = cartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.InexactFloat64(),
			Quantity:  item.Quantity,
		}
	}
	return cartResponse{Items: items, AppliedDiscountCode: c.AppliedCode}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), userID(r))
	if err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toCartResponse(c))
}

type addItemRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	c, err := h.carts.AddItem(r.Context(), userID(r), cart.Item{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     decimal.NewFromFloat(req.Price),
		Quantity:  req.Quantity,
	})
	if err != nil {
		var vErr *cart.ValidationError
		if errors.As(err, &vErr) {
			respondError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		internalError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toCartResponse(c))
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

// applyDiscount attaches a code to the cart. The code is validated up front
// as a courtesy (unknown and used codes are rejected here), but the
// authoritative check still happens at checkout.
func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	var req applyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	if _, err := h.codes.Validate(r.Context(), req.Code); err != nil {
		if errors.Is(err, discount.ErrInvalidCode) {
			respondError(w, http.StatusBadRequest, "invalid or already used discount code")
			return
		}
		internalError(w, r, err)
		return
	}

	c, err := h.carts.ApplyCode(r.Context(), userID(r), req.Code)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toCartResponse(c))
}
