package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shalom-garden/storefront-backend/internal/cart"
	"github.com/shalom-garden/storefront-backend/internal/orders"
	"github.com/shalom-garden/storefront-backend/pkg/db/models"
	"github.com/shalom-garden/storefront-backend/pkg/enums"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
	"github.com/shalom-garden/storefront-backend/pkg/metrics"
	"github.com/shalom-garden/storefront-backend/pkg/razorpay"
)

const (
	resultSuccess = "success"
	resultFailed  = "failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reconciles gateway payment outcomes onto the order ledger. Two
// channels feed it, the browser confirmation and the server webhook; either
// may arrive first, twice, or not at all, and the ledger must converge to the
// same state regardless.
type Service interface {
	ConfirmPayment(ctx context.Context, userID uuid.UUID, input ConfirmPaymentInput) (*models.Order, error)
	ApplyGatewayOutcome(ctx context.Context, outcome GatewayOutcome) error
}

type service struct {
	orders   orders.Repository
	carts    cart.Repository
	tx       txRunner
	verifier *razorpay.SignatureVerifier
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
}

// NewService wires the reconciliation engine.
func NewService(ordersRepo orders.Repository, carts cart.Repository, tx txRunner, verifier *razorpay.SignatureVerifier, paymentMetrics *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:   ordersRepo,
		carts:    carts,
		tx:       tx,
		verifier: verifier,
		metrics:  paymentMetrics,
		logg:     logg,
	}, nil
}

// ConfirmPayment applies the browser-side confirmation. The success
// transition and the cart clear commit together, and only when the guarded
// UPDATE actually moved the row; a webhook that won the race turns this call
// into an acknowledged no-op.
func (s *service) ConfirmPayment(ctx context.Context, userID uuid.UUID, input ConfirmPaymentInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, input.RazorpayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if !s.verifier.VerifyPaymentSignature(input.RazorpayOrderID, input.RazorpayPaymentID, input.RazorpaySignature) {
		s.metrics.ObserveSignatureRejection()
		if _, err := s.orders.MarkPaymentRejected(ctx, input.RazorpayOrderID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record rejected payment")
		}
		s.logg.Warn(ctx, "payment confirmation signature did not verify")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature verification failed")
	}

	applied, err := s.applySuccess(ctx, input.RazorpayOrderID, input.RazorpayPaymentID, input.RazorpaySignature, order.UserID)
	if err != nil {
		// The order must not stay Pending because this side faulted. Fail the
		// payment and cancel the order so the attempt has a terminal record;
		// the buyer retries checkout rather than waiting on a row that will
		// never reconcile.
		if _, failErr := s.orders.MarkPaymentRejected(ctx, input.RazorpayOrderID); failErr != nil {
			s.logg.Error(ctx, "failing payment after a storage fault did not apply", failErr)
		}
		return nil, err
	}
	if applied {
		s.metrics.ObserveOutcome(metrics.ChannelClient, resultSuccess)
		s.logg.Info(ctx, "payment confirmed, order marked paid")
		return s.reload(ctx, input.RazorpayOrderID)
	}

	return s.resolveUnapplied(ctx, metrics.ChannelClient, input.RazorpayOrderID)
}

// ApplyGatewayOutcome applies a webhook-delivered result. The caller has
// already authenticated the delivery against the raw body.
func (s *service) ApplyGatewayOutcome(ctx context.Context, outcome GatewayOutcome) error {
	if outcome.GatewayOrderID == "" || outcome.PaymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway outcome is missing identifiers")
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, outcome.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, fmt.Sprintf("webhook references unknown gateway order %s", outcome.GatewayOrderID))
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if !outcome.Captured {
		applied, err := s.orders.MarkPaymentFailed(ctx, outcome.GatewayOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed payment")
		}
		if applied {
			s.metrics.ObserveOutcome(metrics.ChannelWebhook, resultFailed)
			s.logg.Info(ctx, "gateway reported payment failure")
		} else {
			s.metrics.ObserveDuplicate(metrics.ChannelWebhook)
		}
		return nil
	}

	applied, err := s.applySuccess(ctx, outcome.GatewayOrderID, outcome.PaymentID, outcome.Signature, order.UserID)
	if err != nil {
		return err
	}
	if applied {
		s.metrics.ObserveOutcome(metrics.ChannelWebhook, resultSuccess)
		s.logg.Info(ctx, "webhook payment captured, order marked paid")
		return nil
	}

	_, err = s.resolveUnapplied(ctx, metrics.ChannelWebhook, outcome.GatewayOrderID)
	if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeStateConflict {
		// The order was cancelled before the capture arrived. The money is
		// with the gateway; flag it for a manual refund instead of failing
		// the delivery and provoking endless retries.
		s.logg.Error(ctx, "captured payment arrived for a cancelled order, refund required", err)
		return nil
	}
	return err
}

// applySuccess runs the success transition and the cart clear in one
// transaction. The clear only happens when the guarded UPDATE moved the row,
// so a duplicate or late notification never wipes a rebuilt cart.
func (s *service) applySuccess(ctx context.Context, gatewayOrderID, paymentID, signature string, userID uuid.UUID) (bool, error) {
	var applied bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		applied, err = s.orders.WithTx(tx).MarkPaymentSuccess(ctx, gatewayOrderID, paymentID, signature)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record successful payment")
		}
		if !applied {
			return nil
		}
		if err := s.carts.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// resolveUnapplied decides what a zero-row success transition means: a
// duplicate of an already-reconciled payment, a payment already failed, or a
// capture racing a cancellation.
func (s *service) resolveUnapplied(ctx context.Context, channel, gatewayOrderID string) (*models.Order, error) {
	order, err := s.reload(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	if order.Status == enums.OrderStatusCancelled {
		if _, err := s.orders.MarkPaymentFailed(ctx, gatewayOrderID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed payment")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order was cancelled before the payment completed")
	}

	if order.PaymentStatus == enums.PaymentStatusSuccess {
		s.metrics.ObserveDuplicate(channel)
		s.logg.Info(ctx, "payment already reconciled, duplicate notification ignored")
		return order, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment was already marked failed")
}

func (s *service) reload(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
