package paystack

import (
	"encoding/json"
	"strings"
	"time"
)

// Event names Potluck consumes. Anything else is acknowledged and ignored.
const (
	EventChargeSuccess   = "charge.success"
	EventChargeFailed    = "charge.failed"
	EventTransferSuccess = "transfer.success"
	EventTransferFailed  = "transfer.failed"
)

// WebhookEvent is the decoded body of one Paystack webhook delivery.
type WebhookEvent struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// EventData carries the transaction snapshot inside a webhook event.
// Amount is in pesewas (Paystack minor units).
type EventData struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          *time.Time      `json:"paid_at"`
	Channel         string          `json:"channel"`
	Currency        string          `json:"currency"`
	Customer        Customer        `json:"customer"`
	Authorization   Authorization   `json:"authorization"`
	Metadata        json.RawMessage `json:"metadata"`
}

type Customer struct {
	Email string `json:"email"`
}

type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	Channel           string `json:"channel"`
	Bank              string `json:"bank"`
}

// Reference returns the trimmed transaction reference.
func (e *WebhookEvent) Reference() string {
	return strings.TrimSpace(e.Data.Reference)
}

// IsKnown reports whether this event name is one Potluck reconciles.
func (e *WebhookEvent) IsKnown() bool {
	switch e.Event {
	case EventChargeSuccess, EventChargeFailed, EventTransferSuccess, EventTransferFailed:
		return true
	}
	return false
}

// IsChargeEvent reports whether the event settles a buyer charge.
func (e *WebhookEvent) IsChargeEvent() bool {
	return e.Event == EventChargeSuccess || e.Event == EventChargeFailed
}
