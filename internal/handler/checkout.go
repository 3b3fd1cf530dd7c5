package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/shopkart/shopkart/internal/domain/discount"
	"github.com/shopkart/shopkart/internal/domain/order"
)

type checkoutRequest struct {
	Code string `json:"code"`
}

type orderResponse struct {
	ID             string             `json:"id"`
	Items          []cartItemResponse `json:"items"`
	TotalAmount    float64            `json:"totalAmount"`
	DiscountCode   string             `json:"discountCode,omitempty"`
	DiscountAmount float64            `json:"discountAmount"`
	FinalAmount    float64            `json:"finalAmount"`
	CreatedAt      time.Time          `json:"createdAt"`
}

type codeResponse struct {
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discountPercent"`
	IsUsed          bool    `json:"isUsed"`
}

type checkoutResponse struct {
	Order    orderResponse `json:"order"`
	NextCode *codeResponse `json:"discountCodeGeneratedForNextOrder"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]cartItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = cartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.InexactFloat64(),
			Quantity:  item.Quantity,
		}
	}
	return orderResponse{
		ID:             o.ID,
		Items:          items,
		TotalAmount:    o.Total.InexactFloat64(),
		DiscountCode:   o.DiscountCode,
		DiscountAmount: o.Discount.InexactFloat64(),
		FinalAmount:    o.Final.InexactFloat64(),
		CreatedAt:      o.CreatedAt,
	}
}

func toCodeResponse(c *discount.Code) *codeResponse {
	if c == nil {
		return nil
	}
	return &codeResponse{
		Code:            c.Code,
		DiscountPercent: c.Percent.InexactFloat64(),
		IsUsed:          c.Used,
	}
}

// checkoutCart completes a checkout. An optional inline code is validated
// and attached to the cart first, so a bad code rejects the request before
// anything is mutated.
func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	uid := userID(r)

	if req.Code != "" {
		if _, err := h.codes.Validate(r.Context(), req.Code); err != nil {
			if errors.Is(err, discount.ErrInvalidCode) {
				respondError(w, http.StatusBadRequest, "invalid or already used discount code")
				return
			}
			internalError(w, r, err)
			return
		}
		if _, err := h.carts.ApplyCode(r.Context(), uid, req.Code); err != nil {
			internalError(w, r, err)
			return
		}
	}

	result, err := h.checkout.Checkout(r.Context(), uid)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			respondError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, discount.ErrInvalidCode):
			respondError(w, http.StatusBadRequest, "invalid or already used discount code")
		default:
			internalError(w, r, err)
		}
		return
	}

	respond(w, http.StatusOK, checkoutResponse{
		Order:    toOrderResponse(result.Order),
		NextCode: toCodeResponse(result.NextCode),
	})
}
