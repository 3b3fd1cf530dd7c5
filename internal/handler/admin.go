package handler

import "net/http"

type statsResponse struct {
	TotalItemsPurchased int64          `json:"totalItemsPurchased"`
	TotalPurchaseAmount float64        `json:"totalPurchaseAmount"`
	TotalDiscountAmount float64        `json:"totalDiscountAmount"`
	DiscountCodes       []codeResponse `json:"discountCodes"`
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.orders.Stats(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	codes := make([]codeResponse, len(st.DiscountCodes))
	for i := range st.DiscountCodes {
		codes[i] = *toCodeResponse(&st.DiscountCodes[i])
	}
	respond(w, http.StatusOK, statsResponse{
		TotalItemsPurchased: st.TotalItemsPurchased,
		TotalPurchaseAmount: st.TotalPurchaseAmount.InexactFloat64(),
		TotalDiscountAmount: st.TotalDiscountAmount.InexactFloat64(),
		DiscountCodes:       codes,
	})
}

type generateResponse struct {
	CurrentOrderCount int64         `json:"currentOrderCount"`
	Issued            bool          `json:"issued"`
	Code              *codeResponse `json:"code"`
	Error             string        `json:"error,omitempty"`
}

// generateDiscount is the manual trigger for the Nth-order rule. When the
// boundary's code was already issued it is returned with issued = false;
// when no code is due at all the response is a 400 in the original API's
// shape.
func (h *Handler) generateDiscount(w http.ResponseWriter, r *http.Request) {
	code, issued, err := h.codes.TryIssueCode(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	count, err := h.orders.Count(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	if code == nil {
		respond(w, http.StatusBadRequest, generateResponse{
			CurrentOrderCount: count,
			Issued:            false,
			Error:             "no discount code due yet",
		})
		return
	}

	respond(w, http.StatusOK, generateResponse{
		CurrentOrderCount: count,
		Issued:            issued,
		Code:              toCodeResponse(code),
	})
}
