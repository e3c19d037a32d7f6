package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/vetlink/backend/api/responses"
	subsvc "github.com/vetlink/backend/internal/subscriptions"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/logger"
	"github.com/vetlink/backend/pkg/paystack"
)

const maxWebhookBodyBytes = 1 << 20

type paymentConfirmer interface {
	Confirm(ctx context.Context, reference string) (*subsvc.ConfirmResult, error)
}

// SignatureValidator verifies the gateway digest over a raw webhook body.
type SignatureValidator interface {
	ValidSignature(body []byte, signature string) bool
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// Paystack handles charge events. The signature is verified over the raw
// body before anything is decoded; after that, a settlement failure surfaces
// as an error status so the gateway redelivers.
func Paystack(svc paymentConfirmer, validator SignatureValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		if validator == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "signature validator unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(paystack.SignatureHeader)
		if !validator.ValidSignature(payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var event paystackEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		if event.Event != "charge.success" {
			// Acknowledge unhandled event types so the gateway stops
			// redelivering them.
			if logg != nil {
				logg.Info(logg.WithField(ctx, "event", event.Event), "webhook.ignored")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		reference := strings.TrimSpace(event.Data.Reference)
		if reference == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event missing reference"))
			return
		}

		result, err := svc.Confirm(ctx, reference)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			fields := map[string]any{
				"reference":         reference,
				"already_processed": result.AlreadyProcessed,
			}
			logg.Info(logg.WithFields(ctx, fields), "webhook.processed")
		}
		responses.WriteSuccess(w, map[string]bool{"already_processed": result.AlreadyProcessed})
	}
}
