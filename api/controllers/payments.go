package controllers

import (
	"net/http"

	"github.com/shalom-garden/storefront-backend/api/middleware"
	"github.com/shalom-garden/storefront-backend/api/responses"
	"github.com/shalom-garden/storefront-backend/api/validators"
	paymentsvc "github.com/shalom-garden/storefront-backend/internal/payments"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
)

// PaymentConfirm applies the browser-side payment confirmation to the order.
func PaymentConfirm(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload paymentsvc.ConfirmPaymentInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		order, err := svc.ConfirmPayment(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"success":        true,
			"order_id":       order.ID,
			"payment_status": string(order.PaymentStatus),
			"status":         string(order.Status),
		})
	}
}
