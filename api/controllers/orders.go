package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shalom-garden/storefront-backend/api/middleware"
	"github.com/shalom-garden/storefront-backend/api/responses"
	"github.com/shalom-garden/storefront-backend/api/validators"
	ordersvc "github.com/shalom-garden/storefront-backend/internal/orders"
	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
)

// OrderList returns the caller's orders, newest first.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

// OrderDetail returns one of the caller's orders.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderCancel cancels one of the caller's orders when it has not shipped out
// for delivery yet.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if err := svc.Cancel(r.Context(), userID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// OrderUpdateAddress corrects delivery details on an order that has not
// shipped yet.
func OrderUpdateAddress(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload ordersvc.UpdateAddressInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if err := svc.UpdateAddress(r.Context(), userID, orderID, payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ProductCanReview reports whether the caller has taken delivery of the
// product, gating review submission on the storefront.
func ProductCanReview(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		ok, err := svc.CanReviewProduct(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"can_review": ok})
	}
}

type orderResponse struct {
	ID                uuid.UUID           `json:"id"`
	TotalRupees       int                 `json:"total_rupees"`
	DeliveryFeeRupees int                 `json:"delivery_fee_rupees"`
	PaymentMethod     string              `json:"payment_method"`
	PaymentStatus     string              `json:"payment_status"`
	Status            string              `json:"status"`
	RazorpayOrderID   *string             `json:"razorpay_order_id,omitempty"`
	PaymentID         *string             `json:"payment_id,omitempty"`
	Mobile            string              `json:"mobile"`
	Address           string              `json:"address"`
	Pincode           string              `json:"pincode"`
	LocationLink      *string             `json:"location_link,omitempty"`
	Items             []orderItemResponse `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type orderItemResponse struct {
	ProductID       uuid.UUID `json:"product_id"`
	Name            string    `json:"name"`
	UnitPriceRupees int       `json:"unit_price_rupees"`
	Qty             int       `json:"qty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPriceRupees: item.UnitPriceRupees,
			Qty:             item.Qty,
		})
	}

	return orderResponse{
		ID:                order.ID,
		TotalRupees:       order.TotalRupees,
		DeliveryFeeRupees: order.DeliveryFeeRupees,
		PaymentMethod:     string(order.PaymentMethod),
		PaymentStatus:     string(order.PaymentStatus),
		Status:            string(order.Status),
		RazorpayOrderID:   order.RazorpayOrderID,
		PaymentID:         order.PaymentID,
		Mobile:            order.Mobile,
		Address:           order.Address,
		Pincode:           order.Pincode,
		LocationLink:      order.LocationLink,
		Items:             items,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func newOrderListResponse(list []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for i := range list {
		out = append(out, newOrderResponse(&list[i]))
	}
	return out
}
