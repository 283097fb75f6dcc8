package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shalom-garden/storefront-backend/pkg/enums"
)

// Order is the immutable ledger row produced from a cart snapshot. After
// creation only the status, payment and address fields may change.
//
// TotalRupees excludes the delivery fee: the fee is quoted to the buyer and
// billed through the gateway, but kept out of the stored total. The fee is
// persisted alongside as its own column so downstream consumers can
// reconstruct the billed amount.
type Order struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Items             []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalRupees       int                 `gorm:"column:total_rupees;not null"`
	DeliveryFeeRupees int                 `gorm:"column:delivery_fee_rupees;not null;default:0"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'COD'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'Pending'"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'Placed'"`

	// Gateway correlation. RazorpayOrderID is the sole join key used by both
	// reconciliation channels; PaymentID and RazorpaySignature are set iff
	// PaymentStatus is Success.
	RazorpayOrderID   *string `gorm:"column:razorpay_order_id;uniqueIndex"`
	PaymentID         *string `gorm:"column:payment_id"`
	RazorpaySignature *string `gorm:"column:razorpay_signature"`

	Mobile       string  `gorm:"column:mobile;not null"`
	Address      string  `gorm:"column:address;not null"`
	Pincode      string  `gorm:"column:pincode;not null"`
	LocationLink *string `gorm:"column:location_link"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
