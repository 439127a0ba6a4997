package reconcile

// Outcome labels what the engine did with one inbound event. Used for
// metrics and structured logs.
type Outcome string

const (
	// OutcomePaid means the order moved to paid from pending or from a
	// stale failed state.
	OutcomePaid Outcome = "paid"
	// OutcomeFailed means the order moved pending -> failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeExpired means the voucher lapsed and the order moved pending -> expired.
	OutcomeExpired Outcome = "expired"
	// OutcomeMismatch means the event contradicted the order and the order was flagged.
	OutcomeMismatch Outcome = "mismatch"
	// OutcomeReplay means the order was already terminal or another worker won the race.
	OutcomeReplay Outcome = "replay"
	// OutcomeFlagged means the order carries an unresolved flag and was left untouched.
	OutcomeFlagged Outcome = "flagged"
	// OutcomeIgnored means the event type is not one Potluck reconciles.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeUnknownReference means no order matches the event's reference.
	OutcomeUnknownReference Outcome = "unknown_reference"
	// OutcomeAdminAlerted means the event only produced an admin notification.
	OutcomeAdminAlerted Outcome = "admin_alerted"
	// OutcomeInconclusive means the provider's view of the charge is still
	// in flight and the ledger was left untouched.
	OutcomeInconclusive Outcome = "inconclusive"
	// OutcomeError means a dependency failed before a decision was reached.
	OutcomeError Outcome = "error"
)

func (o Outcome) String() string {
	return string(o)
}
