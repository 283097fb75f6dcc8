package pricing

import (
	"testing"

	"github.com/google/uuid"

	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
)

func testItems() []models.CartItem {
	return []models.CartItem{
		{ProductID: uuid.New(), Qty: 2, Product: &models.Product{Name: "Tulsi", PriceRupees: 50}},
		{ProductID: uuid.New(), Qty: 1, Product: &models.Product{Name: "Rose", PriceRupees: 150}},
	}
}

func TestSubtotal(t *testing.T) {
	t.Parallel()

	calc, err := NewCalculator(50, "INR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subtotal, err := calc.Subtotal(testItems())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subtotal != 250 {
		t.Fatalf("expected subtotal 250, got %d", subtotal)
	}
}

func TestSubtotalRejectsMissingProduct(t *testing.T) {
	t.Parallel()

	calc, _ := NewCalculator(50, "INR")
	items := []models.CartItem{{ProductID: uuid.New(), Qty: 1}}

	_, err := calc.Subtotal(items)
	if err == nil {
		t.Fatal("expected error for line without product")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestGatewayAmountIncludesDeliveryFee(t *testing.T) {
	t.Parallel()

	calc, _ := NewCalculator(50, "INR")

	amount, err := calc.GatewayAmountPaise(250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The fee rides on the gateway charge even though the stored order total
	// excludes it.
	if amount != 30000 {
		t.Fatalf("expected 30000 paise, got %d", amount)
	}
}

func TestGatewayAmountRejectsNegativeSubtotal(t *testing.T) {
	t.Parallel()

	calc, _ := NewCalculator(50, "INR")
	if _, err := calc.GatewayAmountPaise(-1); err == nil {
		t.Fatal("expected error for negative subtotal")
	}
}

func TestNewCalculatorValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewCalculator(-1, "INR"); err == nil {
		t.Fatal("expected error for negative fee")
	}
	if _, err := NewCalculator(50, ""); err == nil {
		t.Fatal("expected error for missing currency")
	}
}
