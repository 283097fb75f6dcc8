package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	"github.com/shalom-garden/storefront-backend/pkg/enums"
)

// Repository persists orders. Every state change is a conditional UPDATE
// guarded by the current status columns, so concurrent writers race on the
// database row instead of on stale in-process reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error)

	MarkPaymentSuccess(ctx context.Context, gatewayOrderID, paymentID, signature string) (bool, error)
	MarkPaymentFailed(ctx context.Context, gatewayOrderID string) (bool, error)
	MarkPaymentRejected(ctx context.Context, gatewayOrderID string) (bool, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (bool, error)
	UpdateAddress(ctx context.Context, id, userID uuid.UUID, input UpdateAddressInput) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (bool, error)

	HasDeliveredProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("razorpay_order_id = ?", gatewayOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var list []models.Order
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// MarkPaymentSuccess flips Pending -> Success and Placed -> Paid in a single
// guarded UPDATE keyed by the gateway order id. A cancelled order never
// accepts the payment, and a second delivery of the same outcome matches
// zero rows.
func (r *repository) MarkPaymentSuccess(ctx context.Context, gatewayOrderID, paymentID, signature string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("razorpay_order_id = ? AND payment_status = ? AND status <> ?",
			gatewayOrderID, enums.PaymentStatusPending, enums.OrderStatusCancelled).
		Updates(map[string]any{
			"payment_status":     enums.PaymentStatusSuccess,
			"status":             enums.OrderStatusPaid,
			"payment_id":         paymentID,
			"razorpay_signature": signature,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkPaymentFailed flips Pending -> Failed. Terminal payment states are
// never overwritten, so a failure arriving after a success is a no-op.
func (r *repository) MarkPaymentFailed(ctx context.Context, gatewayOrderID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("razorpay_order_id = ? AND payment_status = ?",
			gatewayOrderID, enums.PaymentStatusPending).
		Update("payment_status", enums.PaymentStatusFailed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkPaymentRejected handles a confirmation whose signature did not verify:
// the payment is failed and the order cancelled in one guarded UPDATE, so a
// forged confirmation can never leave the order purchasable again.
func (r *repository) MarkPaymentRejected(ctx context.Context, gatewayOrderID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("razorpay_order_id = ? AND payment_status = ?",
			gatewayOrderID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"status":         enums.OrderStatusCancelled,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Cancel(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND status IN ?",
			id, userID, enums.SourcesFor(enums.OrderStatusCancelled)).
		Update("status", enums.OrderStatusCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateAddress rewrites the delivery details while the order is still at the
// warehouse. Once shipped the address is frozen.
func (r *repository) UpdateAddress(ctx context.Context, id, userID uuid.UUID, input UpdateAddressInput) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND status IN ?",
			id, userID, []enums.OrderStatus{enums.OrderStatusPlaced, enums.OrderStatusPaid}).
		Updates(map[string]any{
			"mobile":        input.Mobile,
			"address":       input.Address,
			"pincode":       input.Pincode,
			"location_link": input.LocationLink,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (bool, error) {
	sources := enums.SourcesFor(target)
	if len(sources) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, sources).
		Update("status", target)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) HasDeliveredProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("JOIN order_line_items ON order_line_items.order_id = orders.id").
		Where("orders.user_id = ? AND orders.status = ? AND order_line_items.product_id = ?",
			userID, enums.OrderStatusDelivered, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
