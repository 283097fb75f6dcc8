package payments

// ConfirmPaymentInput is the browser-side confirmation posted after the
// gateway widget closes. The signature covers "order_id|payment_id".
type ConfirmPaymentInput struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// GatewayOutcome is a payment result extracted from an authenticated webhook
// event. Signature carries the webhook header value that authenticated the
// delivery, recorded on the order for audit.
type GatewayOutcome struct {
	PaymentID      string
	GatewayOrderID string
	Captured       bool
	Signature      string
}
