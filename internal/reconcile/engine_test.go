package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	paystackwebhook "github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/webhooks/paystack"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memLedger implements ledger.Repository in memory with the same
// compare-and-set semantics as the real thing.
type memLedger struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	byRef  map[string]uuid.UUID
}

func newMemLedger() *memLedger {
	return &memLedger{
		orders: map[uuid.UUID]*models.Order{},
		byRef:  map[string]uuid.UUID{},
	}
}

func (m *memLedger) WithTx(tx *gorm.DB) ledger.Repository { return m }

func (m *memLedger) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	m.byRef[order.PaymentReference] = order.ID
	return nil
}

func (m *memLedger) FindByID(ctx context.Context, id uuid.UUID, expand ...ledger.Expand) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *order
	return &clone, nil
}

func (m *memLedger) FindByReference(ctx context.Context, reference string, expand ...ledger.Expand) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byRef[reference]
	if !ok {
		return nil, nil
	}
	clone := *m.orders[id]
	return &clone, nil
}

func (m *memLedger) FindLapsedVoucherOrders(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, order := range m.orders {
		if order.PaymentStatus == enums.PaymentStatusPending && order.FlaggedAt == nil &&
			order.AuthorizationType == enums.AuthorizationTypeVoucher &&
			order.VoucherExpiresAt != nil && order.VoucherExpiresAt.Before(cutoff) {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (m *memLedger) FindFlaggedOrders(ctx context.Context, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, order := range m.orders {
		if order.FlaggedAt != nil {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (m *memLedger) MarkPaid(ctx context.Context, id uuid.UUID, update ledger.PaidUpdate) (ledger.CASResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return ledger.CASResult{}, nil
	}
	if (order.PaymentStatus != enums.PaymentStatusPending && order.PaymentStatus != enums.PaymentStatusFailed) || order.FlaggedAt != nil {
		return ledger.CASResult{Found: true}, nil
	}
	order.PaymentStatus = enums.PaymentStatusPaid
	order.FailureReason = nil
	paidAt := update.PaidAt
	order.PaidAt = &paidAt
	txn := update.ProviderTxnID
	order.ProviderTxnID = &txn
	return ledger.CASResult{Updated: true, Found: true}, nil
}

func (m *memLedger) MarkFailed(ctx context.Context, id uuid.UUID, reason string, now time.Time) (ledger.CASResult, error) {
	return m.terminal(id, enums.PaymentStatusFailed, reason)
}

func (m *memLedger) MarkExpired(ctx context.Context, id uuid.UUID, reason string, now time.Time) (ledger.CASResult, error) {
	return m.terminal(id, enums.PaymentStatusExpired, reason)
}

func (m *memLedger) terminal(id uuid.UUID, status enums.PaymentStatus, reason string) (ledger.CASResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return ledger.CASResult{}, nil
	}
	if order.PaymentStatus != enums.PaymentStatusPending || order.FlaggedAt != nil {
		return ledger.CASResult{Found: true}, nil
	}
	order.PaymentStatus = status
	order.FailureReason = &reason
	return ledger.CASResult{Updated: true, Found: true}, nil
}

func (m *memLedger) FlagMismatch(ctx context.Context, id uuid.UUID, reason string, now time.Time) (ledger.CASResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return ledger.CASResult{}, nil
	}
	if (order.PaymentStatus != enums.PaymentStatusPending && order.PaymentStatus != enums.PaymentStatusFailed) || order.FlaggedAt != nil {
		return ledger.CASResult{Found: true}, nil
	}
	order.FlaggedAt = &now
	order.FlagReason = &reason
	return ledger.CASResult{Updated: true, Found: true}, nil
}

func (m *memLedger) ClearFlag(ctx context.Context, id uuid.UUID) (ledger.CASResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return ledger.CASResult{}, nil
	}
	if order.FlaggedAt == nil {
		return ledger.CASResult{Found: true}, nil
	}
	order.FlaggedAt = nil
	order.FlagReason = nil
	return ledger.CASResult{Updated: true, Found: true}, nil
}

func (m *memLedger) ClaimPaidNotification(ctx context.Context, id uuid.UUID) (ledger.CASResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return ledger.CASResult{}, nil
	}
	if order.PaymentStatus != enums.PaymentStatusPaid || order.NotifiedPaid {
		return ledger.CASResult{Found: true}, nil
	}
	order.NotifiedPaid = true
	return ledger.CASResult{Updated: true, Found: true}, nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	paid        int
	failed      int
	expired     int
	adminAlerts []string
}

func (r *recordingNotifier) OrderPaid(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid++
	return nil
}

func (r *recordingNotifier) OrderFailed(ctx context.Context, order *models.Order, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
	return nil
}

func (r *recordingNotifier) OrderExpired(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired++
	return nil
}

func (r *recordingNotifier) AdminAlert(ctx context.Context, title, message string, link *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adminAlerts = append(r.adminAlerts, title)
	return nil
}

func seedPendingOrder(t *testing.T, repo *memLedger, mutate func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:               uuid.New(),
		MealID:           uuid.New(),
		BuyerID:          uuid.New(),
		ChefID:           uuid.New(),
		Quantity:         1,
		UnitPricePesewas: 5500,
		TotalPesewas:     5500,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentReference: "PL-" + uuid.NewString()[:8],
		Buyer:            &models.User{ID: uuid.New(), Email: "ama@example.com"},
	}
	if mutate != nil {
		mutate(order)
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func newTestEngine(t *testing.T, repo *memLedger, n *recordingNotifier) *Engine {
	t.Helper()
	engine, err := NewEngine(repo, n, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func successEvent(order *models.Order) *paystackwebhook.WebhookEvent {
	return &paystackwebhook.WebhookEvent{
		Event: paystackwebhook.EventChargeSuccess,
		Data: paystackwebhook.EventData{
			ID:        4099260516,
			Status:    "success",
			Reference: order.PaymentReference,
			Amount:    order.TotalPesewas,
			Channel:   "mobile_money",
			Customer:  paystackwebhook.Customer{Email: "ama@example.com"},
		},
	}
}

func failedEvent(order *models.Order) *paystackwebhook.WebhookEvent {
	return &paystackwebhook.WebhookEvent{
		Event: paystackwebhook.EventChargeFailed,
		Data: paystackwebhook.EventData{
			Status:          "failed",
			Reference:       order.PaymentReference,
			Amount:          order.TotalPesewas,
			GatewayResponse: "insufficient funds",
			Customer:        paystackwebhook.Customer{Email: "ama@example.com"},
		},
	}
}

func TestChargeSuccessSettlesPendingOrder(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	outcome, err := engine.Apply(context.Background(), successEvent(order))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomePaid {
		t.Fatalf("expected paid outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid status, got %s", stored.PaymentStatus)
	}
	if notifier.paid != 1 {
		t.Fatalf("expected 1 paid notification, got %d", notifier.paid)
	}
}

func TestReplayedSuccessIsNoOp(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)
	ev := successEvent(order)

	if _, err := engine.Apply(context.Background(), ev); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	outcome, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if outcome != OutcomeReplay {
		t.Fatalf("expected replay outcome, got %s", outcome)
	}
	if notifier.paid != 1 {
		t.Fatalf("replay must not re-notify, got %d notifications", notifier.paid)
	}
}

func TestSuccessSupersedesStaleFailure(t *testing.T) {
	// out-of-order delivery: charge.failed lands before the
	// charge.success that actually settled the payment
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	if _, err := engine.Apply(context.Background(), failedEvent(order)); err != nil {
		t.Fatalf("apply failed event: %v", err)
	}

	outcome, err := engine.Apply(context.Background(), successEvent(order))
	if err != nil {
		t.Fatalf("apply success event: %v", err)
	}
	if outcome != OutcomePaid {
		t.Fatalf("expected paid outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("confirmed charge must settle the order, got %s", stored.PaymentStatus)
	}
	if stored.FailureReason != nil {
		t.Fatalf("stale failure reason must be cleared, got %q", *stored.FailureReason)
	}
	if notifier.paid != 1 {
		t.Fatalf("expected 1 paid notification, got %d", notifier.paid)
	}
}

func TestPaidOrderIgnoresLateFailure(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	if _, err := engine.Apply(context.Background(), successEvent(order)); err != nil {
		t.Fatalf("apply success event: %v", err)
	}

	outcome, err := engine.Apply(context.Background(), failedEvent(order))
	if err != nil {
		t.Fatalf("apply failed event: %v", err)
	}
	if outcome != OutcomeReplay {
		t.Fatalf("expected replay outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("paid status must stick, got %s", stored.PaymentStatus)
	}
	if notifier.failed != 0 {
		t.Fatal("no failure notification expected")
	}
}

func TestExpiredOrderIgnoresLateSuccess(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)

	lapsed := time.Now().UTC().Add(-2 * time.Hour)
	order := seedPendingOrder(t, repo, func(o *models.Order) {
		o.AuthorizationType = enums.AuthorizationTypeVoucher
		o.VoucherExpiresAt = &lapsed
	})

	if _, err := engine.Apply(context.Background(), successEvent(order)); err != nil {
		t.Fatalf("apply first success: %v", err)
	}

	// the voucher window does not reopen for a retried settlement
	outcome, err := engine.Apply(context.Background(), successEvent(order))
	if err != nil {
		t.Fatalf("apply second success: %v", err)
	}
	if outcome != OutcomeReplay {
		t.Fatalf("expected replay outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusExpired {
		t.Fatalf("expired status must stick, got %s", stored.PaymentStatus)
	}
	if notifier.paid != 0 {
		t.Fatal("no paid notification expected")
	}
}

func TestAmountMismatchFlagsOrder(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	ev := successEvent(order)
	ev.Data.Amount = 9999

	outcome, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeMismatch {
		t.Fatalf("expected mismatch outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("flagged order must stay pending, got %s", stored.PaymentStatus)
	}
	if stored.FlaggedAt == nil || stored.FlagReason == nil {
		t.Fatal("expected flag columns to be set")
	}
	if len(notifier.adminAlerts) != 1 {
		t.Fatalf("expected 1 admin alert, got %d", len(notifier.adminAlerts))
	}
}

func TestFlaggedOrderDoesNotProgress(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	mismatch := successEvent(order)
	mismatch.Data.Amount = 9999
	if _, err := engine.Apply(context.Background(), mismatch); err != nil {
		t.Fatalf("apply mismatch: %v", err)
	}

	// a clean success arrives afterwards; the flag blocks it
	outcome, err := engine.Apply(context.Background(), successEvent(order))
	if err != nil {
		t.Fatalf("apply success: %v", err)
	}
	if outcome != OutcomeFlagged {
		t.Fatalf("expected flagged outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("flagged order must stay pending, got %s", stored.PaymentStatus)
	}
}

func TestClearedFlagAllowsReconciliation(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	mismatch := successEvent(order)
	mismatch.Data.Amount = 9999
	if _, err := engine.Apply(context.Background(), mismatch); err != nil {
		t.Fatalf("apply mismatch: %v", err)
	}

	if _, err := repo.ClearFlag(context.Background(), order.ID); err != nil {
		t.Fatalf("clear flag: %v", err)
	}

	outcome, err := engine.Apply(context.Background(), successEvent(order))
	if err != nil {
		t.Fatalf("apply success: %v", err)
	}
	if outcome != OutcomePaid {
		t.Fatalf("expected paid outcome after clearing flag, got %s", outcome)
	}
}

func TestPayerMismatchFlagsOrder(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	ev := successEvent(order)
	ev.Data.Customer.Email = "attacker@example.com"

	outcome, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeMismatch {
		t.Fatalf("expected mismatch outcome, got %s", outcome)
	}
}

func TestVoucherExpiryMarksOrderExpired(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)

	lapsed := time.Now().UTC().Add(-2 * time.Hour)
	order := seedPendingOrder(t, repo, func(o *models.Order) {
		o.AuthorizationType = enums.AuthorizationTypeVoucher
		o.VoucherExpiresAt = &lapsed
	})

	outcome, err := engine.Apply(context.Background(), successEvent(order))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeExpired {
		t.Fatalf("expected expired outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusExpired {
		t.Fatalf("expected expired status, got %s", stored.PaymentStatus)
	}
	if notifier.expired != 1 {
		t.Fatalf("expected 1 expiry notification, got %d", notifier.expired)
	}
}

func TestVoucherStillValidSettlesNormally(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)

	future := time.Now().UTC().Add(2 * time.Hour)
	order := seedPendingOrder(t, repo, func(o *models.Order) {
		o.AuthorizationType = enums.AuthorizationTypeVoucher
		o.VoucherExpiresAt = &future
	})

	outcome, err := engine.Apply(context.Background(), successEvent(order))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomePaid {
		t.Fatalf("expected paid outcome, got %s", outcome)
	}
}

func TestSuccessEventWithNonSuccessStatusFails(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	ev := successEvent(order)
	ev.Data.Status = "abandoned"
	ev.Data.GatewayResponse = "abandoned by customer"

	outcome, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected failed status, got %s", stored.PaymentStatus)
	}
	if notifier.failed != 1 {
		t.Fatalf("expected 1 failure notification, got %d", notifier.failed)
	}
}

func TestAbandonedChargeWithWrongAmountFailsWithoutFlag(t *testing.T) {
	// an abandoned attempt often carries a zero or partial amount; the
	// inner status verdict comes before any financial scrutiny
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	ev := successEvent(order)
	ev.Data.Status = "abandoned"
	ev.Data.Amount = 0
	ev.Data.GatewayResponse = "abandoned by customer"

	outcome, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.FlaggedAt != nil {
		t.Fatal("abandoned charge must not flag the order")
	}
	if len(notifier.adminAlerts) != 0 {
		t.Fatalf("expected no admin alerts, got %d", len(notifier.adminAlerts))
	}
}

func TestReplayClaimsUnsentPaidNotification(t *testing.T) {
	// a crash between the paid transition and the notification claim
	// leaves notified_paid false; the replay must pick it up
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, func(o *models.Order) {
		o.PaymentStatus = enums.PaymentStatusPaid
		o.NotifiedPaid = false
	})

	outcome, err := engine.Apply(context.Background(), successEvent(order))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeReplay {
		t.Fatalf("expected replay outcome, got %s", outcome)
	}
	if notifier.paid != 1 {
		t.Fatalf("expected the replay to send the paid notification, got %d", notifier.paid)
	}

	// a further replay does not notify again
	if _, err := engine.Apply(context.Background(), successEvent(order)); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if notifier.paid != 1 {
		t.Fatalf("expected exactly one paid notification, got %d", notifier.paid)
	}
}

func TestChargeFailedRecordsReason(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)

	outcome, err := engine.Apply(context.Background(), failedEvent(order))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", outcome)
	}

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.FailureReason == nil || *stored.FailureReason != "insufficient funds" {
		t.Fatalf("expected failure reason, got %v", stored.FailureReason)
	}
}

func TestUnknownReferenceAlertsAdmin(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)

	ev := &paystackwebhook.WebhookEvent{
		Event: paystackwebhook.EventChargeSuccess,
		Data:  paystackwebhook.EventData{Status: "success", Reference: "PL-nope", Amount: 100},
	}

	outcome, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeUnknownReference {
		t.Fatalf("expected unknown reference outcome, got %s", outcome)
	}
	if len(notifier.adminAlerts) != 1 {
		t.Fatalf("expected admin alert, got %d", len(notifier.adminAlerts))
	}
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)

	ev := &paystackwebhook.WebhookEvent{Event: "subscription.create"}
	outcome, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Fatalf("expected ignored outcome, got %s", outcome)
	}
}

func TestTransferEventsOnlyAlertAdmin(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)

	for _, name := range []string{paystackwebhook.EventTransferSuccess, paystackwebhook.EventTransferFailed} {
		ev := &paystackwebhook.WebhookEvent{Event: name, Data: paystackwebhook.EventData{Reference: "TRF-1"}}
		outcome, err := engine.Apply(context.Background(), ev)
		if err != nil {
			t.Fatalf("apply %s: %v", name, err)
		}
		if outcome != OutcomeAdminAlerted {
			t.Fatalf("expected admin alerted outcome for %s, got %s", name, outcome)
		}
	}
	if len(notifier.adminAlerts) != 2 {
		t.Fatalf("expected 2 admin alerts, got %d", len(notifier.adminAlerts))
	}
}

func TestConcurrentDuplicatesNotifyOnce(t *testing.T) {
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)
	order := seedPendingOrder(t, repo, nil)
	ev := successEvent(order)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = engine.Apply(context.Background(), ev)
		}()
	}
	wg.Wait()

	stored, _ := repo.FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid status, got %s", stored.PaymentStatus)
	}
	if notifier.paid != 1 {
		t.Fatalf("expected exactly one paid notification, got %d", notifier.paid)
	}
}

func TestBothDeliveryOrdersConvergeOnPaid(t *testing.T) {
	// a settled charge ends paid no matter which event lands first
	repo := newMemLedger()
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, repo, notifier)

	first := seedPendingOrder(t, repo, nil)
	if _, err := engine.Apply(context.Background(), successEvent(first)); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Apply(context.Background(), failedEvent(first)); err != nil {
		t.Fatal(err)
	}
	stored, _ := repo.FindByID(context.Background(), first.ID)
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("success-first order must stay paid, got %s", stored.PaymentStatus)
	}

	second := seedPendingOrder(t, repo, nil)
	if _, err := engine.Apply(context.Background(), failedEvent(second)); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Apply(context.Background(), successEvent(second)); err != nil {
		t.Fatal(err)
	}
	stored, _ = repo.FindByID(context.Background(), second.ID)
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("failure-first order must end paid, got %s", stored.PaymentStatus)
	}
	if notifier.paid != 2 {
		t.Fatalf("expected one paid notification per order, got %d", notifier.paid)
	}
}
