package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Meal is a chef's listing. Orders snapshot PricePesewas and the effective
// commission rate at placement, so later edits never move settled money.
type Meal struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChefID       uuid.UUID `gorm:"column:chef_id;type:uuid;not null;index"`
	Title        string    `gorm:"column:title;not null"`
	PricePesewas int64     `gorm:"column:price_pesewas;not null"`
	// CommissionRate overrides the platform default when set.
	CommissionRate *decimal.Decimal `gorm:"column:commission_rate;type:numeric(6,4)"`
	Available      bool             `gorm:"column:available;not null;default:true"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
