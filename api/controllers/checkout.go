package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shalom-garden/storefront-backend/api/middleware"
	"github.com/shalom-garden/storefront-backend/api/responses"
	"github.com/shalom-garden/storefront-backend/api/validators"
	ordersvc "github.com/shalom-garden/storefront-backend/internal/orders"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
)

// Checkout snapshots the caller's cart into an order. Online orders come back
// with the gateway intent the storefront needs to open the payment widget.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload ordersvc.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		placed, err := svc.PlaceOrder(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(placed))
	}
}

type checkoutResponse struct {
	Order  orderResponse           `json:"order"`
	Intent *checkoutIntentResponse `json:"intent,omitempty"`
}

type checkoutIntentResponse struct {
	LocalOrderID    uuid.UUID `json:"local_order_id"`
	RazorpayOrderID string    `json:"rzp_order_id"`
	AmountPaise     int64     `json:"amount"`
	Currency        string    `json:"currency"`
}

func newCheckoutResponse(placed *ordersvc.PlacedOrder) checkoutResponse {
	resp := checkoutResponse{Order: newOrderResponse(placed.Order)}
	if placed.Intent != nil {
		resp.Intent = &checkoutIntentResponse{
			LocalOrderID:    placed.Intent.OrderID,
			RazorpayOrderID: placed.Intent.RazorpayOrderID,
			AmountPaise:     placed.Intent.AmountPaise,
			Currency:        placed.Intent.Currency,
		}
	}
	return resp
}
