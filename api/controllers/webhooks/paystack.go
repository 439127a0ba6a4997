package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/responses"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/eventlog"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/reconcile"
	paystackwebhook "github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/webhooks/paystack"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

type signatureVerifier interface {
	Verify(payload []byte, header string) error
}

type replayGuard interface {
	CheckAndMark(ctx context.Context, payload []byte) (bool, error)
	Delete(ctx context.Context, payload []byte) error
}

type taskDispatcher interface {
	Enqueue(ctx context.Context, task reconcile.Task) bool
}

type eventRecorder interface {
	Append(ctx context.Context, entry eventlog.Entry)
}

type adminAlerter interface {
	AdminAlert(ctx context.Context, title, message string, link *string) error
}

// PaystackWebhook ingests provider payment events. Every delivery is
// recorded in the event log, including ones that fail signature
// verification; only verified events reach the reconciliation queue.
// The handler acknowledges before reconciliation runs so the provider
// never retries on our processing latency.
func PaystackWebhook(verifier signatureVerifier, guard replayGuard, dispatcher taskDispatcher, events eventRecorder, alerts adminAlerter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if verifier == nil || guard == nil || dispatcher == nil || events == nil || alerts == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook pipeline unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(paystackwebhook.SignatureHeader)
		if verifyErr := verifier.Verify(payload, sigHeader); verifyErr != nil {
			events.Append(ctx, eventlog.Entry{
				EventType: "unverified",
				Payload:   payload,
				Verified:  false,
				Notes:     "signature verification failed",
			})
			// a bad signature on the payment endpoint is either a provider
			// misconfiguration or someone submitting forged events
			if alertErr := alerts.AdminAlert(ctx, "Webhook signature verification failed",
				fmt.Sprintf("A Paystack delivery from %s failed signature verification.", r.RemoteAddr), nil); alertErr != nil && logg != nil {
				logg.Error(ctx, "webhook.admin_alert_failed", alertErr)
			}
			responses.WriteError(ctx, logg, w, verifyErr)
			return
		}

		var event paystackwebhook.WebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			// the delivery is authentic but undecodable; a retry would
			// carry the same bytes, so acknowledge instead of erroring
			events.Append(ctx, eventlog.Entry{
				EventType: "malformed",
				Payload:   payload,
				Verified:  true,
				Notes:     "payload did not decode",
			})
			if logg != nil {
				logg.Error(ctx, "webhook.malformed_payload", err)
			}
			responses.WriteSuccess(w, nil)
			return
		}

		events.Append(ctx, eventlog.Entry{
			EventType: event.Event,
			Reference: event.Reference(),
			Payload:   payload,
			Verified:  true,
		})

		seen, err := guard.CheckAndMark(ctx, payload)
		if err != nil {
			// the guard is best-effort; the ledger's compare-and-set
			// transitions make a duplicate apply harmless, so reconcile
			// anyway rather than bouncing a verified event
			if logg != nil {
				logg.Error(ctx, "webhook.replay_guard_failed", err)
			}
		} else if seen {
			responses.WriteSuccess(w, nil)
			return
		}

		if !dispatcher.Enqueue(ctx, reconcile.Task{Event: &event, Source: "webhook"}) {
			// let the provider's retry find an empty guard slot
			_ = guard.Delete(ctx, payload)
		}

		responses.WriteSuccess(w, nil)
	}
}
