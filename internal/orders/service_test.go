package orders

import (
	"context"
	"io"
	"testing"

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

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	Repository

	created     *models.Order
	createErr   error
	found       *models.Order
	findErr     error
	cancelOK    bool
	addressOK   bool
	statusOK    bool
	delivered   bool
	listed      []models.Order
	lastTarget  enums.OrderStatus
	lastAddress UpdateAddressInput
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.found, nil
}

func (s *stubOrdersRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.found, nil
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.listed, nil
}

func (s *stubOrdersRepo) ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	return s.listed, nil
}

func (s *stubOrdersRepo) Cancel(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	return s.cancelOK, nil
}

func (s *stubOrdersRepo) UpdateAddress(ctx context.Context, id, userID uuid.UUID, input UpdateAddressInput) (bool, error) {
	s.lastAddress = input
	return s.addressOK, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (bool, error) {
	s.lastTarget = target
	return s.statusOK, nil
}

func (s *stubOrdersRepo) HasDeliveredProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.delivered, nil
}

type stubCartRepo struct {
	cart.Repository

	record      *models.CartRecord
	findErr     error
	clearedUser uuid.UUID
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) cart.Repository { return s }

func (s *stubCartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.record, nil
}

func (s *stubCartRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	s.clearedUser = userID
	return nil
}

type stubGateway struct {
	intent      *razorpay.OrderIntent
	err         error
	amountPaise int64
	currency    string
}

func (s *stubGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.OrderIntent, error) {
	s.amountPaise = amountPaise
	s.currency = currency
	if s.err != nil {
		return nil, s.err
	}
	return s.intent, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testCartRecord(userID uuid.UUID) *models.CartRecord {
	return &models.CartRecord{
		ID:     uuid.New(),
		UserID: userID,
		Items: []models.CartItem{
			{ProductID: uuid.New(), Qty: 2, Product: &models.Product{Name: "Tulsi", PriceRupees: 50}},
			{ProductID: uuid.New(), Qty: 1, Product: &models.Product{Name: "Rose", PriceRupees: 150}},
		},
	}
}

func newTestService(t *testing.T, repo Repository, carts cart.Repository, gateway GatewayClient) Service {
	t.Helper()
	calc, err := pricing.NewCalculator(50, "INR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc, err := NewService(repo, carts, stubTxRunner{}, calc, gateway, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func codInput() PlaceOrderInput {
	return PlaceOrderInput{
		Mobile:        "9876543210",
		Address:       "12 Garden Lane, Bengaluru",
		Pincode:       "560001",
		PaymentMethod: enums.PaymentMethodCOD,
	}
}

func TestPlaceOrderCODClearsCart(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &stubOrdersRepo{}
	carts := &stubCartRepo{record: testCartRecord(userID)}
	svc := newTestService(t, repo, carts, &stubGateway{})

	placed, err := svc.PlaceOrder(context.Background(), userID, codInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := placed.Order
	if order.TotalRupees != 250 {
		t.Fatalf("expected total 250, got %d", order.TotalRupees)
	}
	if order.DeliveryFeeRupees != 50 {
		t.Fatalf("expected fee 50, got %d", order.DeliveryFeeRupees)
	}
	if order.PaymentStatus != enums.PaymentStatusPending || order.Status != enums.OrderStatusPlaced {
		t.Fatalf("unexpected initial state %s/%s", order.PaymentStatus, order.Status)
	}
	if len(order.Items) != 2 || order.Items[0].Name != "Tulsi" || order.Items[0].UnitPriceRupees != 50 {
		t.Fatalf("expected frozen line snapshots, got %+v", order.Items)
	}
	if placed.Intent != nil {
		t.Fatal("expected no gateway intent for cash on delivery")
	}
	if carts.clearedUser != userID {
		t.Fatal("expected cart to be cleared with the order")
	}
}

func TestPlaceOrderOnlineRegistersIntent(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &stubOrdersRepo{}
	carts := &stubCartRepo{record: testCartRecord(userID)}
	gateway := &stubGateway{intent: &razorpay.OrderIntent{ID: "order_rzp123", Amount: 30000, Currency: "INR"}}
	svc := newTestService(t, repo, carts, gateway)

	input := codInput()
	input.PaymentMethod = enums.PaymentMethodOnline

	placed, err := svc.PlaceOrder(context.Background(), userID, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Gateway bills subtotal plus fee in paise; stored total stays fee-free.
	if gateway.amountPaise != 30000 {
		t.Fatalf("expected gateway amount 30000, got %d", gateway.amountPaise)
	}
	if placed.Order.TotalRupees != 250 {
		t.Fatalf("expected stored total 250, got %d", placed.Order.TotalRupees)
	}
	if placed.Order.RazorpayOrderID == nil || *placed.Order.RazorpayOrderID != "order_rzp123" {
		t.Fatal("expected gateway order id on the ledger row")
	}
	if placed.Intent == nil || placed.Intent.RazorpayOrderID != "order_rzp123" || placed.Intent.AmountPaise != 30000 {
		t.Fatalf("unexpected intent %+v", placed.Intent)
	}
	if carts.clearedUser != uuid.Nil {
		t.Fatal("expected cart to survive until the payment reconciles")
	}
}

func TestPlaceOrderGatewayFailureLeavesNoOrder(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &stubOrdersRepo{}
	carts := &stubCartRepo{record: testCartRecord(userID)}
	gateway := &stubGateway{err: pkgerrors.New(pkgerrors.CodeGatewayTimeout, "gateway order creation timed out")}
	svc := newTestService(t, repo, carts, gateway)

	input := codInput()
	input.PaymentMethod = enums.PaymentMethodOnline

	_, err := svc.PlaceOrder(context.Background(), userID, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGatewayTimeout {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created != nil {
		t.Fatal("expected no order row after gateway failure")
	}
	if carts.clearedUser != uuid.Nil {
		t.Fatal("expected cart untouched after gateway failure")
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newTestService(t, &stubOrdersRepo{}, &stubCartRepo{findErr: gorm.ErrRecordNotFound}, &stubGateway{})

	_, err := svc.PlaceOrder(context.Background(), userID, codInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCancelMapsZeroRowsToStateConflict(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusDelivered}
	repo := &stubOrdersRepo{cancelOK: false, found: order}
	svc := newTestService(t, repo, &stubCartRepo{}, &stubGateway{})

	err := svc.Cancel(context.Background(), uuid.New(), order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	repo = &stubOrdersRepo{cancelOK: false, findErr: gorm.ErrRecordNotFound}
	svc = newTestService(t, repo, &stubCartRepo{}, &stubGateway{})
	err = svc.Cancel(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateStatusStateConflict(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusDelivered}
	repo := &stubOrdersRepo{statusOK: false, found: order}
	svc := newTestService(t, repo, &stubCartRepo{}, &stubGateway{})

	_, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	repo = &stubOrdersRepo{statusOK: true, found: order}
	svc = newTestService(t, repo, &stubCartRepo{}, &stubGateway{})
	got, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != order || repo.lastTarget != enums.OrderStatusShipped {
		t.Fatal("expected transition to be attempted and order returned")
	}
}

func TestCanReviewProduct(t *testing.T) {
	t.Parallel()

	repo := &stubOrdersRepo{delivered: true}
	svc := newTestService(t, repo, &stubCartRepo{}, &stubGateway{})

	ok, err := svc.CanReviewProduct(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected review to be allowed after delivery")
	}
}
