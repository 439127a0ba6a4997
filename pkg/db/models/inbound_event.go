package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// InboundEvent is the append-only audit record of one webhook delivery (or
// one synthetic verify-path event). Rows are written for every delivery,
// verified or not, and never mutated.
type InboundEvent struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType  string          `gorm:"column:event_type;not null"`
	Reference  string          `gorm:"column:reference;index:ix_inbound_events_reference"`
	Payload    json.RawMessage `gorm:"column:payload;type:jsonb"`
	Verified   bool            `gorm:"column:verified;not null"`
	Notes      *string         `gorm:"column:notes"`
	ReceivedAt time.Time       `gorm:"column:received_at;autoCreateTime"`
}
