package paystack

import "encoding/json"

// TransactionStatus values reported inside provider payloads. A success
// event can still carry a non-success inner status; callers must check
// Status, not just the event type.
const (
	TransactionStatusSuccess   = "success"
	TransactionStatusFailed    = "failed"
	TransactionStatusAbandoned = "abandoned"
)

type verifyEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    TransactionData `json:"data"`
}

// TransactionData is the provider's view of one payment attempt.
type TransactionData struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          string          `json:"paid_at"`
	Channel         string          `json:"channel"`
	Currency        string          `json:"currency"`
	Customer        Customer        `json:"customer"`
	Authorization   Authorization   `json:"authorization"`
	Metadata        json.RawMessage `json:"metadata"`
}

// Customer identifies the payer on the provider side.
type Customer struct {
	Email string `json:"email"`
}

// Authorization describes how the charge was authorized.
type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	Channel           string `json:"channel"`
	Bank              string `json:"bank"`
}

// IsSuccess reports whether the inner transaction status is success.
func (t *TransactionData) IsSuccess() bool {
	return t != nil && t.Status == TransactionStatusSuccess
}

// IsConclusive reports whether the provider has reached a final verdict
// on the charge. Statuses like pending or ongoing mean the payer may
// still complete it.
func (t *TransactionData) IsConclusive() bool {
	if t == nil {
		return false
	}
	switch t.Status {
	case TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusAbandoned:
		return true
	}
	return false
}
