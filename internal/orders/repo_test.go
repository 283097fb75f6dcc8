package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	"github.com/shalom-garden/storefront-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total_rupees INTEGER NOT NULL,
  delivery_fee_rupees INTEGER NOT NULL DEFAULT 0,
  payment_method TEXT NOT NULL DEFAULT 'COD',
  payment_status TEXT NOT NULL DEFAULT 'Pending',
  status TEXT NOT NULL DEFAULT 'Placed',
  razorpay_order_id TEXT UNIQUE,
  payment_id TEXT,
  razorpay_signature TEXT,
  mobile TEXT NOT NULL,
  address TEXT NOT NULL,
  pincode TEXT NOT NULL,
  location_link TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_rupees INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, mutate func(*models.Order)) *models.Order {
	t.Helper()

	gatewayID := "order_rzp_" + uuid.NewString()
	order := &models.Order{
		ID:                uuid.New(),
		UserID:            uuid.New(),
		TotalRupees:       250,
		DeliveryFeeRupees: 50,
		PaymentMethod:     enums.PaymentMethodOnline,
		PaymentStatus:     enums.PaymentStatusPending,
		Status:            enums.OrderStatusPlaced,
		RazorpayOrderID:   &gatewayID,
		Mobile:            "9876543210",
		Address:           "12 Garden Lane, Bengaluru",
		Pincode:           "560001",
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestMarkPaymentSuccessAppliesOnce(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, nil)

	applied, err := repo.MarkPaymentSuccess(ctx, *order.RazorpayOrderID, "pay_1", "sig_1")
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := repo.FindByGatewayOrderID(ctx, *order.RazorpayOrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSuccess, got.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPaid, got.Status)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "pay_1", *got.PaymentID)

	// Second delivery of the same outcome matches zero rows.
	applied, err = repo.MarkPaymentSuccess(ctx, *order.RazorpayOrderID, "pay_1", "sig_1")
	require.NoError(t, err)
	assert.False(t, applied)

	got, err = repo.FindByGatewayOrderID(ctx, *order.RazorpayOrderID)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", *got.PaymentID)
}

func TestMarkPaymentSuccessSkipsCancelledOrder(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusCancelled
	})

	applied, err := repo.MarkPaymentSuccess(ctx, *order.RazorpayOrderID, "pay_1", "sig_1")
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.FindByGatewayOrderID(ctx, *order.RazorpayOrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, got.PaymentStatus)
	assert.Equal(t, enums.OrderStatusCancelled, got.Status)
}

func TestMarkPaymentFailedNeverDowngradesSuccess(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, func(o *models.Order) {
		o.PaymentStatus = enums.PaymentStatusSuccess
		o.Status = enums.OrderStatusPaid
	})

	applied, err := repo.MarkPaymentFailed(ctx, *order.RazorpayOrderID)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.FindByGatewayOrderID(ctx, *order.RazorpayOrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSuccess, got.PaymentStatus)
}

func TestMarkPaymentRejectedCancelsOrder(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, nil)

	applied, err := repo.MarkPaymentRejected(ctx, *order.RazorpayOrderID)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := repo.FindByGatewayOrderID(ctx, *order.RazorpayOrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, got.PaymentStatus)
	assert.Equal(t, enums.OrderStatusCancelled, got.Status)
}

func TestCancelGuards(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)

	// Wrong user never cancels.
	applied, err := repo.Cancel(ctx, order.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.Cancel(ctx, order.ID, order.UserID)
	require.NoError(t, err)
	assert.True(t, applied)

	// Cancel is terminal.
	applied, err = repo.Cancel(ctx, order.ID, order.UserID)
	require.NoError(t, err)
	assert.False(t, applied)

	delivered := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusDelivered
	})
	applied, err = repo.Cancel(ctx, delivered.ID, delivered.UserID)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestUpdateAddressOnlyBeforeShipping(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	input := UpdateAddressInput{
		Mobile:  "9123456780",
		Address: "44 New Colony, Mysuru",
		Pincode: "570001",
	}

	placed := seedOrder(t, db, nil)
	applied, err := repo.UpdateAddress(ctx, placed.ID, placed.UserID, input)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := repo.FindByIDAndUser(ctx, placed.ID, placed.UserID)
	require.NoError(t, err)
	assert.Equal(t, "44 New Colony, Mysuru", got.Address)

	shipped := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusShipped
	})
	applied, err = repo.UpdateAddress(ctx, shipped.ID, shipped.UserID, input)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestUpdateStatusFollowsTransitions(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)

	applied, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.True(t, applied)

	// Delivered is terminal.
	applied, err = repo.UpdateStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestHasDeliveredProduct(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	order := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusDelivered
		o.Items = []models.OrderLineItem{{
			ID:              uuid.New(),
			ProductID:       productID,
			Name:            "Tulsi",
			UnitPriceRupees: 50,
			Qty:             2,
		}}
	})

	ok, err := repo.HasDeliveredProduct(ctx, order.UserID, productID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasDeliveredProduct(ctx, order.UserID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.HasDeliveredProduct(ctx, uuid.New(), productID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListByUserAndListAll(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	seedOrder(t, db, func(o *models.Order) { o.UserID = userID })
	seedOrder(t, db, func(o *models.Order) {
		o.UserID = userID
		o.Status = enums.OrderStatusDelivered
	})
	seedOrder(t, db, nil)

	mine, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := repo.ListAll(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	delivered := enums.OrderStatusDelivered
	filtered, err := repo.ListAll(ctx, ListFilter{Status: &delivered})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}
