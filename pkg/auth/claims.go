package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role values embedded in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims is the access-token payload the storefront understands.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}
