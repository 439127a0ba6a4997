package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	paystackwebhook "github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/webhooks/paystack"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/metrics"
)

type notifier interface {
	OrderPaid(ctx context.Context, order *models.Order) error
	OrderFailed(ctx context.Context, order *models.Order, reason string) error
	OrderExpired(ctx context.Context, order *models.Order) error
	AdminAlert(ctx context.Context, title, message string, link *string) error
}

// Engine applies verified payment events to the order ledger. Every
// decision is idempotent: replays and races resolve through the ledger's
// compare-and-set transitions, so applying the same event twice, in any
// order, converges on the same terminal state.
type Engine struct {
	ledger   ledger.Repository
	notifier notifier
	logg     *logger.Logger
	metrics  *metrics.ReconcileMetrics
	now      func() time.Time
}

// NewEngine wires the reconciliation engine.
func NewEngine(repo ledger.Repository, n notifier, logg *logger.Logger, m *metrics.ReconcileMetrics) (*Engine, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger repository required")
	}
	if n == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	return &Engine{
		ledger:   repo,
		notifier: n,
		logg:     logg,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Apply reconciles one event against the ledger and returns what happened.
// A non-nil error means a dependency failed and the event should be retried.
func (e *Engine) Apply(ctx context.Context, ev *paystackwebhook.WebhookEvent) (Outcome, error) {
	start := e.now()
	outcome, err := e.apply(ctx, ev)
	if e.metrics != nil {
		e.metrics.IncOutcome(ev.Event, outcome.String())
		e.metrics.ObserveDuration(ev.Event, e.now().Sub(start))
	}
	if e.logg != nil {
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"event_type": ev.Event,
			"reference":  ev.Reference(),
			"outcome":    outcome.String(),
		})
		if err != nil {
			e.logg.Error(logCtx, "reconcile.apply_failed", err)
		} else {
			e.logg.Info(logCtx, "reconcile.applied")
		}
	}
	return outcome, err
}

func (e *Engine) apply(ctx context.Context, ev *paystackwebhook.WebhookEvent) (Outcome, error) {
	if !ev.IsKnown() {
		return OutcomeIgnored, nil
	}

	if !ev.IsChargeEvent() {
		// transfer settlement is a payout concern; surface it to the
		// admin channel and stop
		return e.transferAlert(ctx, ev)
	}

	reference := ev.Reference()
	if reference == "" {
		return OutcomeIgnored, nil
	}

	order, err := e.ledger.FindByReference(ctx, reference, ledger.ExpandBuyer)
	if err != nil {
		return OutcomeError, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by reference")
	}
	if order == nil {
		e.alert(ctx, "Payment event for unknown order",
			fmt.Sprintf("Received %s for reference %s but no order matches it.", ev.Event, reference), nil)
		return OutcomeUnknownReference, nil
	}

	if order.FlaggedAt != nil {
		return OutcomeFlagged, nil
	}

	switch ev.Event {
	case paystackwebhook.EventChargeSuccess:
		return e.applyChargeSuccess(ctx, order, ev)
	case paystackwebhook.EventChargeFailed:
		// failure never displaces a settled or lapsed order
		if order.PaymentStatus.IsTerminal() {
			return OutcomeReplay, nil
		}
		return e.applyChargeFailed(ctx, order, ev)
	}
	return OutcomeIgnored, nil
}

func (e *Engine) applyChargeSuccess(ctx context.Context, order *models.Order, ev *paystackwebhook.WebhookEvent) (Outcome, error) {
	// a charge.success envelope can still carry a non-success inner
	// status (abandoned, reversed); treat it as a failure before any
	// financial scrutiny of its numbers
	if !strings.EqualFold(ev.Data.Status, "success") {
		if order.PaymentStatus.IsTerminal() {
			return OutcomeReplay, nil
		}
		return e.applyChargeFailed(ctx, order, ev)
	}

	switch order.PaymentStatus {
	case enums.PaymentStatusPaid:
		// replay of a settled charge; a crash between MarkPaid and the
		// notification claim must not lose the buyer's receipt
		if err := e.settlePaidNotification(ctx, order); err != nil {
			return OutcomeError, err
		}
		return OutcomeReplay, nil
	case enums.PaymentStatusExpired:
		// the voucher window already closed; a late settlement does not
		// reopen it
		return OutcomeReplay, nil
	}

	if ev.Data.Amount != order.TotalPesewas {
		reason := fmt.Sprintf("amount mismatch: event carries %d, order expects %d", ev.Data.Amount, order.TotalPesewas)
		return e.flag(ctx, order, reason)
	}

	if mismatch := e.payerMismatch(order, ev); mismatch != "" {
		return e.flag(ctx, order, mismatch)
	}

	if expired, at := e.voucherLapsed(order, ev); expired {
		result, err := e.ledger.MarkExpired(ctx, order.ID, fmt.Sprintf("voucher expired at %s", at.Format(time.RFC3339)), e.now())
		if err != nil {
			return OutcomeError, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order expired")
		}
		if !result.Updated {
			return OutcomeReplay, nil
		}
		if err := e.notifier.OrderExpired(ctx, order); err != nil {
			e.logNotifyFailure(ctx, order, err)
		}
		return OutcomeExpired, nil
	}

	paidAt := e.now()
	if ev.Data.PaidAt != nil {
		paidAt = ev.Data.PaidAt.UTC()
	}
	update := ledger.PaidUpdate{
		PaidAt:        paidAt,
		ProviderTxnID: fmt.Sprintf("%d", ev.Data.ID),
		Channel:       ev.Data.Channel,
		Metadata:      ev.Data.Metadata,
	}

	result, err := e.ledger.MarkPaid(ctx, order.ID, update)
	if err != nil {
		return OutcomeError, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if !result.Updated {
		// a concurrent worker won the transition; it may not have claimed
		// the notification yet
		if err := e.settlePaidNotification(ctx, order); err != nil {
			return OutcomeError, err
		}
		return OutcomeReplay, nil
	}

	if err := e.settlePaidNotification(ctx, order); err != nil {
		return OutcomeError, err
	}
	return OutcomePaid, nil
}

// settlePaidNotification claims the one-shot paid notification and, when
// this caller wins the claim, sends the buyer receipt. The claim only
// matches paid orders, so racing with a failure transition is harmless.
func (e *Engine) settlePaidNotification(ctx context.Context, order *models.Order) error {
	claim, err := e.ledger.ClaimPaidNotification(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim paid notification")
	}
	if claim.Updated {
		if err := e.notifier.OrderPaid(ctx, order); err != nil {
			e.logNotifyFailure(ctx, order, err)
		}
	}
	return nil
}

func (e *Engine) applyChargeFailed(ctx context.Context, order *models.Order, ev *paystackwebhook.WebhookEvent) (Outcome, error) {
	reason := strings.TrimSpace(ev.Data.GatewayResponse)
	if reason == "" {
		reason = "charge did not settle"
	}

	result, err := e.ledger.MarkFailed(ctx, order.ID, reason, e.now())
	if err != nil {
		return OutcomeError, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
	}
	if !result.Updated {
		return OutcomeReplay, nil
	}

	if err := e.notifier.OrderFailed(ctx, order, reason); err != nil {
		e.logNotifyFailure(ctx, order, err)
	}
	return OutcomeFailed, nil
}

func (e *Engine) flag(ctx context.Context, order *models.Order, reason string) (Outcome, error) {
	result, err := e.ledger.FlagMismatch(ctx, order.ID, reason, e.now())
	if err != nil {
		return OutcomeError, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag order mismatch")
	}
	if !result.Updated {
		// lost the race to another event; leave the existing flag alone
		return OutcomeReplay, nil
	}

	link := fmt.Sprintf("/admin/orders/%s", order.ID)
	e.alert(ctx, "Order flagged for review",
		fmt.Sprintf("Order %s was flagged: %s", order.ID, reason), &link)
	return OutcomeMismatch, nil
}

// payerMismatch returns a non-empty reason when the event's customer does
// not match the order's buyer.
func (e *Engine) payerMismatch(order *models.Order, ev *paystackwebhook.WebhookEvent) string {
	email := strings.TrimSpace(ev.Data.Customer.Email)
	if email == "" || order.Buyer == nil {
		return ""
	}
	if strings.EqualFold(email, order.Buyer.Email) {
		return ""
	}
	return fmt.Sprintf("payer mismatch: event customer %s, order buyer %s", email, order.Buyer.Email)
}

// voucherLapsed reports whether a voucher-authorized order's window closed
// before the charge settled.
func (e *Engine) voucherLapsed(order *models.Order, ev *paystackwebhook.WebhookEvent) (bool, time.Time) {
	if order.AuthorizationType != enums.AuthorizationTypeVoucher || order.VoucherExpiresAt == nil {
		return false, time.Time{}
	}
	settled := e.now()
	if ev.Data.PaidAt != nil {
		settled = ev.Data.PaidAt.UTC()
	}
	if settled.After(*order.VoucherExpiresAt) {
		return true, *order.VoucherExpiresAt
	}
	return false, time.Time{}
}

func (e *Engine) transferAlert(ctx context.Context, ev *paystackwebhook.WebhookEvent) (Outcome, error) {
	title := "Transfer settled"
	if ev.Event == paystackwebhook.EventTransferFailed {
		title = "Transfer failed"
	}
	message := fmt.Sprintf("Paystack reported %s for reference %s (amount %d).", ev.Event, ev.Reference(), ev.Data.Amount)
	e.alert(ctx, title, message, nil)
	return OutcomeAdminAlerted, nil
}

func (e *Engine) alert(ctx context.Context, title, message string, link *string) {
	if err := e.notifier.AdminAlert(ctx, title, message, link); err != nil && e.logg != nil {
		e.logg.Error(ctx, "reconcile.admin_alert_failed", err)
	}
}

func (e *Engine) logNotifyFailure(ctx context.Context, order *models.Order, err error) {
	if e.logg == nil {
		return
	}
	logCtx := e.logg.WithOrderID(ctx, order.ID.String())
	e.logg.Error(logCtx, "reconcile.notify_failed", err)
}
