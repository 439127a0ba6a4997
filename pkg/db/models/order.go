package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
)

// Order represents one buyer's purchase of N units of one meal.
//
// All monetary fields are integer pesewas computed once at placement from
// the commission-rate snapshot; they are never recomputed on payment
// confirmation. Payment columns are mutated only through the ledger's
// compare-and-set primitives.
type Order struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MealID uuid.UUID `gorm:"column:meal_id;type:uuid;not null"`
	BuyerID uuid.UUID `gorm:"column:buyer_id;type:uuid;not null"`
	ChefID  uuid.UUID `gorm:"column:chef_id;type:uuid;not null"`

	Quantity                int             `gorm:"column:quantity;not null"`
	UnitPricePesewas        int64           `gorm:"column:unit_price_pesewas;not null"`
	TotalPesewas            int64           `gorm:"column:total_pesewas;not null"`
	CommissionRate          decimal.Decimal `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	ChefEarningsPesewas     int64           `gorm:"column:chef_earnings_pesewas;not null"`
	PlatformEarningsPesewas int64           `gorm:"column:platform_earnings_pesewas;not null"`

	PaymentMethod     enums.PaymentMethod     `gorm:"column:payment_method;type:payment_method;not null;default:'card'"`
	PaymentStatus     enums.PaymentStatus     `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentReference  string                  `gorm:"column:payment_reference;not null;uniqueIndex:ux_orders_payment_reference"`
	ProviderTxnID     *string                 `gorm:"column:provider_txn_id"`
	Channel           *string                 `gorm:"column:channel"`
	AuthorizationType enums.AuthorizationType `gorm:"column:authorization_type;type:authorization_type;not null;default:'standard'"`
	VoucherExpiresAt  *time.Time              `gorm:"column:voucher_expires_at"`
	ProviderMetadata  json.RawMessage         `gorm:"column:provider_metadata;type:jsonb"`
	FailureReason     *string                 `gorm:"column:failure_reason"`

	// Mismatch sub-state: status stays pending, but a flagged order never
	// progresses automatically.
	FlaggedAt  *time.Time `gorm:"column:flagged_at"`
	FlagReason *string    `gorm:"column:flag_reason"`

	// NotifiedPaid dedupes success notifications across event replays.
	NotifiedPaid bool `gorm:"column:notified_paid;not null;default:false"`

	PaidAt      *time.Time `gorm:"column:paid_at"`
	AcceptedAt  *time.Time `gorm:"column:accepted_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Buyer *User `gorm:"foreignKey:BuyerID"`
	Chef  *User `gorm:"foreignKey:ChefID"`
	Meal  *Meal `gorm:"foreignKey:MealID"`
}
