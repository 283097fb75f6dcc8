package webhooks

import (
	"context"
	"fmt"

	"github.com/shalom-garden/storefront-backend/internal/payments"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
	"github.com/shalom-garden/storefront-backend/pkg/metrics"
	"github.com/shalom-garden/storefront-backend/pkg/razorpay"
)

// Service authenticates, deduplicates and dispatches gateway webhook
// deliveries. Verification runs over the exact raw body bytes; any mutation
// of the body before this point breaks the signature.
type Service interface {
	Handle(ctx context.Context, body []byte, signature string) error
}

type service struct {
	payments payments.Service
	verifier *razorpay.SignatureVerifier
	guard    *IdempotencyGuard
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
}

// NewService wires the webhook pipeline.
func NewService(paymentsSvc payments.Service, verifier *razorpay.SignatureVerifier, guard *IdempotencyGuard, paymentMetrics *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if paymentsSvc == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		payments: paymentsSvc,
		verifier: verifier,
		guard:    guard,
		metrics:  paymentMetrics,
		logg:     logg,
	}, nil
}

func (s *service) Handle(ctx context.Context, body []byte, signature string) error {
	if !s.verifier.VerifyWebhookSignature(body, signature) {
		s.metrics.ObserveSignatureRejection()
		s.logg.Warn(ctx, "webhook signature did not verify")
		// A bad signature answers 400 like a missing one; the gateway treats
		// both as non-retryable delivery errors.
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook signature verification failed")
	}

	event, err := ParseEvent(body)
	if err != nil {
		return err
	}

	ctx = s.logg.WithField(ctx, "webhook_event", event.Name)

	if !event.IsPaymentEvent() {
		s.logg.Info(ctx, "ignoring unhandled webhook event")
		return nil
	}

	entity := event.Payload.Payment.Entity
	if entity.ID == "" || entity.OrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook payment entity is incomplete")
	}

	claimed, err := s.guard.CheckAndMark(ctx, event.Name, entity.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim webhook delivery")
	}
	if !claimed {
		s.logg.Info(ctx, "duplicate webhook delivery suppressed")
		return nil
	}

	outcome := payments.GatewayOutcome{
		PaymentID:      entity.ID,
		GatewayOrderID: entity.OrderID,
		Captured:       event.Name == EventPaymentCaptured,
		Signature:      signature,
	}

	if err := s.payments.ApplyGatewayOutcome(ctx, outcome); err != nil {
		// Give the claim back so the gateway's retry is not swallowed.
		if relErr := s.guard.Release(ctx, event.Name, entity.ID); relErr != nil {
			s.logg.Error(ctx, "releasing webhook claim failed", relErr)
		}
		return err
	}
	return nil
}
