package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shalom-garden/storefront-backend/internal/cart"
	"github.com/shalom-garden/storefront-backend/internal/pricing"
	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	"github.com/shalom-garden/storefront-backend/pkg/enums"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
	"github.com/shalom-garden/storefront-backend/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GatewayClient registers payment intents with the payment gateway.
type GatewayClient interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.OrderIntent, error)
}

// Service is the order ledger: it snapshots carts into orders, exposes them
// to buyers and admins, and drives the fulfillment state machine.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlacedOrder, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) error
	UpdateAddress(ctx context.Context, userID, orderID uuid.UUID, input UpdateAddressInput) error

	ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)

	CanReviewProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type service struct {
	repo    Repository
	carts   cart.Repository
	tx      txRunner
	pricer  *pricing.Calculator
	gateway GatewayClient
	logg    *logger.Logger
}

// NewService wires the order ledger against its persistence and gateway deps.
func NewService(repo Repository, carts cart.Repository, tx txRunner, pricer *pricing.Calculator, gateway GatewayClient, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, carts: carts, tx: tx, pricer: pricer, gateway: gateway, logg: logg}, nil
}

// PlaceOrder snapshots the user's cart into an order. Cash-on-delivery
// clears the cart immediately inside the same transaction; online orders
// keep the cart until the payment reconciles, and register a gateway intent
// before any row is written so a gateway failure leaves no half-placed order.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlacedOrder, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be COD or ONLINE")
	}

	record, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotal, err := s.pricer.Subtotal(record.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:                uuid.New(),
		UserID:            userID,
		TotalRupees:       int(subtotal),
		DeliveryFeeRupees: int(s.pricer.DeliveryFeeRupees()),
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     enums.PaymentStatusPending,
		Status:            enums.OrderStatusPlaced,
		Mobile:            input.Mobile,
		Address:           input.Address,
		Pincode:           input.Pincode,
		LocationLink:      input.LocationLink,
		Items:             snapshotLines(record.Items),
	}

	if input.PaymentMethod == enums.PaymentMethodCOD {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			if err := s.carts.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.logg.Info(withOrder(ctx, s.logg, order.ID), "cash-on-delivery order placed")
		return &PlacedOrder{Order: order}, nil
	}

	amountPaise, err := s.pricer.GatewayAmountPaise(subtotal)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateOrder(ctx, amountPaise, s.pricer.Currency(), order.ID.String(), map[string]string{
		"order_id": order.ID.String(),
		"user_id":  userID.String(),
	})
	if err != nil {
		return nil, err
	}

	order.RazorpayOrderID = &intent.ID
	if _, err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.logg.Info(withOrder(ctx, s.logg, order.ID), "online order placed, awaiting payment")
	return &PlacedOrder{
		Order: order,
		Intent: &CheckoutIntent{
			OrderID:         order.ID,
			RazorpayOrderID: intent.ID,
			AmountPaise:     amountPaise,
			Currency:        s.pricer.Currency(),
		},
	}, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// Cancel moves the order to Cancelled when it has not been delivered. The
// guard lives in the UPDATE itself; when zero rows match we look the order up
// once more only to pick the right error.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	applied, err := s.repo.Cancel(ctx, orderID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if applied {
		s.logg.Info(withOrder(ctx, s.logg, orderID), "order cancelled by buyer")
		return nil
	}

	if _, err := s.repo.FindByIDAndUser(ctx, orderID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
}

func (s *service) UpdateAddress(ctx context.Context, userID, orderID uuid.UUID, input UpdateAddressInput) error {
	applied, err := s.repo.UpdateAddress(ctx, orderID, userID, input)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order address")
	}
	if applied {
		return nil
	}

	if _, err := s.repo.FindByIDAndUser(ctx, orderID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "address can only change before the order ships")
}

func (s *service) ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	list, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// UpdateStatus advances the fulfillment machine on behalf of an admin.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	applied, err := s.repo.UpdateStatus(ctx, orderID, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.Status, target))
	}

	s.logg.Info(withOrder(ctx, s.logg, orderID), fmt.Sprintf("order status set to %s", target))
	return order, nil
}

// CanReviewProduct reports whether the user has taken delivery of the product
// at least once.
func (s *service) CanReviewProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	ok, err := s.repo.HasDeliveredProduct(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check delivered orders")
	}
	return ok, nil
}

func snapshotLines(items []models.CartItem) []models.OrderLineItem {
	lines := make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.OrderLineItem{
			ProductID:       item.ProductID,
			Name:            item.Product.Name,
			UnitPriceRupees: item.Product.PriceRupees,
			Qty:             item.Qty,
		})
	}
	return lines
}

func withOrder(ctx context.Context, l *logger.Logger, orderID uuid.UUID) context.Context {
	return l.WithOrderID(ctx, orderID.String())
}
