package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
)

// User is the minimal account row the payment core depends on: the payer
// identity check compares webhook customer emails against Email.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string         `gorm:"column:email;not null;uniqueIndex:ux_users_email"`
	Name      string         `gorm:"column:name;not null"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null;default:'buyer'"`
	Approved  bool           `gorm:"column:approved;not null;default:false"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
