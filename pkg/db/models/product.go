package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog row referenced by cart and order lines. Catalog CRUD
// lives in the admin surface; checkout only reads price and name.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	Category    string    `gorm:"column:category"`
	PriceRupees int       `gorm:"column:price_rupees;not null"`
	ImageURL    *string   `gorm:"column:image_url"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
