package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
)

// Notification stores in-app notification payloads. Admin-scoped rows have
// no user id and are surfaced on the administrative channel.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID                 `gorm:"type:uuid;index"`
	Scope     enums.NotificationScope    `gorm:"type:notification_scope;not null"`
	Type      enums.NotificationType     `gorm:"type:notification_type;not null"`
	Priority  enums.NotificationPriority `gorm:"type:notification_priority;not null;default:'normal'"`
	Title     string                     `gorm:"type:text;not null"`
	Message   string                     `gorm:"type:text;not null"`
	Link      *string                    `gorm:"type:text"`
	ReadAt    *time.Time                 `gorm:"type:timestamptz"`
	CreatedAt time.Time                  `gorm:"type:timestamptz;default:now()"`
}
