package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier authenticates gateway notifications. The two channels
// sign different canonical forms with different secrets: the browser
// confirmation signs "orderID|paymentID" with the key secret, the webhook
// signs the raw request body with the webhook secret. Callers supply the
// canonical form; the verifier never re-derives it.
type SignatureVerifier struct {
	keySecret     string
	webhookSecret string
}

// NewSignatureVerifier builds a verifier over the two shared secrets.
func NewSignatureVerifier(keySecret, webhookSecret string) *SignatureVerifier {
	return &SignatureVerifier{keySecret: keySecret, webhookSecret: webhookSecret}
}

// VerifyPaymentSignature checks the client-confirmation signature over
// "orderID|paymentID".
func (v *SignatureVerifier) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if v == nil || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return verify([]byte(orderID+"|"+paymentID), signature, v.keySecret)
}

// VerifyWebhookSignature checks the webhook signature over the exact raw body
// bytes that were received.
func (v *SignatureVerifier) VerifyWebhookSignature(body []byte, signature string) bool {
	if v == nil || len(body) == 0 || signature == "" {
		return false
	}
	return verify(body, signature, v.webhookSecret)
}

func verify(message []byte, signature, secret string) bool {
	if secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
