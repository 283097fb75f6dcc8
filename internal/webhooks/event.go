package webhooks

import (
	"encoding/json"

	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
)

// Gateway event types the reconciliation engine consumes. Anything else is
// acknowledged and dropped.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// Event is the gateway webhook envelope, decoded only as far as the payment
// entity the ledger needs.
type Event struct {
	Name    string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentEntity is the payment object nested in the event payload.
type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// ParseEvent decodes the raw webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook body")
	}
	if event.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook body has no event name")
	}
	return &event, nil
}

// IsPaymentEvent reports whether the event carries a payment outcome.
func (e *Event) IsPaymentEvent() bool {
	return e.Name == EventPaymentCaptured || e.Name == EventPaymentFailed
}
