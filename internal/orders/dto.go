package orders

import (
	"github.com/google/uuid"

	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	"github.com/shalom-garden/storefront-backend/pkg/enums"
)

// PlaceOrderInput carries the delivery details captured at checkout.
type PlaceOrderInput struct {
	Mobile        string              `json:"mobile" validate:"required,min=10,max=15"`
	Address       string              `json:"address" validate:"required,min=10"`
	Pincode       string              `json:"pincode" validate:"required,len=6,numeric"`
	LocationLink  *string             `json:"location_link,omitempty" validate:"omitempty,url"`
	PaymentMethod enums.PaymentMethod `json:"payment_method" validate:"required"`
}

// UpdateAddressInput carries a delivery-details correction for an order that
// has not shipped yet.
type UpdateAddressInput struct {
	Mobile       string  `json:"mobile" validate:"required,min=10,max=15"`
	Address      string  `json:"address" validate:"required,min=10"`
	Pincode      string  `json:"pincode" validate:"required,len=6,numeric"`
	LocationLink *string `json:"location_link,omitempty" validate:"omitempty,url"`
}

// CheckoutIntent is what an online checkout hands back to the storefront so
// it can open the gateway's payment widget.
type CheckoutIntent struct {
	OrderID         uuid.UUID `json:"order_id"`
	RazorpayOrderID string    `json:"razorpay_order_id"`
	AmountPaise     int64     `json:"amount_paise"`
	Currency        string    `json:"currency"`
}

// PlacedOrder pairs the persisted ledger row with the gateway intent; the
// intent is nil for cash-on-delivery orders.
type PlacedOrder struct {
	Order  *models.Order   `json:"order"`
	Intent *CheckoutIntent `json:"intent,omitempty"`
}

// ListFilter narrows the admin order listing.
type ListFilter struct {
	Status *enums.OrderStatus
	Limit  int
	Offset int
}
