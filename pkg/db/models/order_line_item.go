package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem is a frozen snapshot of a cart line at checkout time. It is
// not live-linked to the cart; name and unit price are copied so later catalog
// edits cannot rewrite history.
type OrderLineItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name            string    `gorm:"column:name;not null"`
	UnitPriceRupees int       `gorm:"column:unit_price_rupees;not null"`
	Qty             int       `gorm:"column:qty;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
