package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shalom-garden/storefront-backend/internal/products"
	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
)

// QuantityAction is the direction of a cart line adjustment.
type QuantityAction string

const (
	QuantityActionInc QuantityAction = "inc"
	QuantityActionDec QuantityAction = "dec"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart persistence operations. Every operation tolerates a
// missing cart: reads return an empty view, writes lazily create or no-op.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	ChangeQuantity(ctx context.Context, userID, productID uuid.UUID, action QuantityAction) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	products products.Repository
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, productRepo products.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo, tx: tx, products: productRepo}, nil
}

// Get returns the user's cart with populated product lines. A user without a
// cart gets an empty record rather than an error.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.CartRecord{UserID: userID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

// Add puts one unit of the product into the cart, creating the cart on first
// use and incrementing the existing line when the product is already present.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
			}
			record, err = repo.Create(ctx, &models.CartRecord{UserID: userID})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		}

		item, err := repo.FindItem(ctx, record.ID, productID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
			}
			if err := repo.CreateItem(ctx, &models.CartItem{
				CartID:    record.ID,
				ProductID: productID,
				Qty:       1,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
			return nil
		}

		if _, err := repo.AdjustItemQty(ctx, item.ID, 1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment cart item")
		}
		return nil
	})
}

// ChangeQuantity applies a +1/-1 adjustment. Decrementing a line already at
// quantity one is a no-op, not a removal.
func (s *service) ChangeQuantity(ctx context.Context, userID, productID uuid.UUID, action QuantityAction) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var delta int
	switch action {
	case QuantityActionInc:
		delta = 1
	case QuantityActionDec:
		delta = -1
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity action must be inc or dec")
	}

	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	item, err := s.repo.FindItem(ctx, record.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if _, err := s.repo.AdjustItemQty(ctx, item.ID, delta); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust cart item")
	}
	return nil
}

// Remove deletes the product's line from the cart, if present.
func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.repo.DeleteItem(ctx, record.ID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

// Clear destroys the user's cart. Clearing an absent cart is a no-op.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
