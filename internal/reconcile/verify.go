package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/eventlog"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	paystackwebhook "github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/webhooks/paystack"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/paystack"
)

type transactionVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error)
}

type eventRecorder interface {
	Append(ctx context.Context, entry eventlog.Entry)
}

// VerifyService is the reconciliation fallback for missed webhooks: it
// asks the provider for the transaction's current state, synthesizes the
// matching event, and pushes it through the same engine.
type VerifyService struct {
	provider transactionVerifier
	engine   applier
	events   eventRecorder
	ledger   ledger.Repository
}

// VerifyResult reports the reconciliation outcome and the order's state
// after it.
type VerifyResult struct {
	Outcome Outcome       `json:"outcome"`
	Order   *models.Order `json:"order"`
}

// NewVerifyService wires the verify fallback.
func NewVerifyService(provider transactionVerifier, engine applier, events eventRecorder, repo ledger.Repository) (*VerifyService, error) {
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider client required")
	}
	if engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reconcile engine required")
	}
	if events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event log required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger repository required")
	}
	return &VerifyService{provider: provider, engine: engine, events: events, ledger: repo}, nil
}

// Verify reconciles one reference synchronously against the provider's
// current view.
func (s *VerifyService) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	txn, err := s.provider.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	if !txn.IsConclusive() {
		// the charge is still in flight on the provider side; record what
		// we saw and leave the ledger alone until a terminal verdict lands
		payload, _ := json.Marshal(txn)
		s.events.Append(ctx, eventlog.Entry{
			EventType: "verify.inconclusive",
			Reference: txn.Reference,
			Payload:   payload,
			Verified:  true,
			Notes:     fmt.Sprintf("provider reports status %q", txn.Status),
		})
		order, err := s.ledger.FindByReference(ctx, reference, ledger.ExpandBuyer, ledger.ExpandChef)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return &VerifyResult{Outcome: OutcomeInconclusive, Order: order}, nil
	}

	event := synthesizeEvent(txn)

	payload, _ := json.Marshal(event)
	s.events.Append(ctx, eventlog.Entry{
		EventType: event.Event,
		Reference: event.Reference(),
		Payload:   payload,
		Verified:  true,
		Notes:     "synthesized by verify endpoint",
	})

	outcome, err := s.engine.Apply(ctx, event)
	if err != nil {
		return nil, err
	}

	order, err := s.ledger.FindByReference(ctx, reference, ledger.ExpandBuyer, ledger.ExpandChef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return &VerifyResult{Outcome: outcome, Order: order}, nil
}

// synthesizeEvent converts a verify response into the event shape the
// engine consumes.
func synthesizeEvent(txn *paystack.TransactionData) *paystackwebhook.WebhookEvent {
	name := paystackwebhook.EventChargeFailed
	if txn.IsSuccess() {
		name = paystackwebhook.EventChargeSuccess
	}

	event := &paystackwebhook.WebhookEvent{
		Event: name,
		Data: paystackwebhook.EventData{
			ID:              txn.ID,
			Status:          txn.Status,
			Reference:       txn.Reference,
			Amount:          txn.Amount,
			GatewayResponse: txn.GatewayResponse,
			Channel:         txn.Channel,
			Currency:        txn.Currency,
			Customer:        paystackwebhook.Customer{Email: txn.Customer.Email},
			Authorization: paystackwebhook.Authorization{
				AuthorizationCode: txn.Authorization.AuthorizationCode,
				Channel:           txn.Authorization.Channel,
				Bank:              txn.Authorization.Bank,
			},
			Metadata: txn.Metadata,
		},
	}
	if txn.PaidAt != "" {
		if at, err := time.Parse(time.RFC3339, txn.PaidAt); err == nil {
			utc := at.UTC()
			event.Data.PaidAt = &utc
		}
	}
	return event
}
