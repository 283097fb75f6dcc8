package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
)

var paiseFactor = decimal.NewFromInt(100)

// Calculator turns cart contents into order totals and gateway amounts.
// Totals are carried in whole rupees; the gateway wants paise.
type Calculator struct {
	deliveryFeeRupees int64
	currency          string
}

// NewCalculator builds a calculator with the configured delivery fee.
func NewCalculator(deliveryFeeRupees int64, currency string) (*Calculator, error) {
	if deliveryFeeRupees < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative")
	}
	if currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
	}
	return &Calculator{deliveryFeeRupees: deliveryFeeRupees, currency: currency}, nil
}

// Currency reports the ISO currency code orders are charged in.
func (c *Calculator) Currency() string {
	return c.currency
}

// DeliveryFeeRupees reports the flat per-order delivery fee.
func (c *Calculator) DeliveryFeeRupees() int64 {
	return c.deliveryFeeRupees
}

// Subtotal sums unit price times quantity across the cart lines. Lines whose
// product failed to preload are rejected rather than silently priced at zero.
func (c *Calculator) Subtotal(items []models.CartItem) (int64, error) {
	sum := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			return 0, pkgerrors.New(pkgerrors.CodeInternal, "cart line is missing its product")
		}
		if item.Qty < 1 {
			return 0, pkgerrors.New(pkgerrors.CodeInternal, "cart line has non-positive quantity")
		}
		line := decimal.NewFromInt(int64(item.Product.PriceRupees)).
			Mul(decimal.NewFromInt(int64(item.Qty)))
		sum = sum.Add(line)
	}
	if !sum.IsInteger() {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "cart subtotal is not a whole rupee amount")
	}
	return sum.IntPart(), nil
}

// GatewayAmountPaise converts the order's charge into the smallest currency
// unit: (subtotal + delivery fee) * 100.
func (c *Calculator) GatewayAmountPaise(subtotalRupees int64) (int64, error) {
	if subtotalRupees < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	total := decimal.NewFromInt(subtotalRupees).
		Add(decimal.NewFromInt(c.deliveryFeeRupees)).
		Mul(paiseFactor)
	return total.IntPart(), nil
}
