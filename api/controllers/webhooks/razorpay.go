package webhooks

import (
	"io"
	"net/http"

	"github.com/shalom-garden/storefront-backend/api/responses"
	webhooksvc "github.com/shalom-garden/storefront-backend/internal/webhooks"
	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
)

const signatureHeader = "X-Razorpay-Signature"

// webhookBodyLimit caps how much of a delivery is read. Gateway payloads are
// small; anything larger is not a legitimate event.
const webhookBodyLimit = 1 << 20

// RazorpayWebhook handles gateway payment notifications. The body must reach
// the verifier byte-for-byte as received, so it is read raw before anything
// touches it.
func RazorpayWebhook(svc webhooksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(signatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook signature missing"))
			return
		}

		if err := svc.Handle(ctx, body, signature); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
