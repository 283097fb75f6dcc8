package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the account row; authentication itself is handled upstream, the
// storefront only needs the identity for ownership checks.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Role      string    `gorm:"column:role;not null;default:'user'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
