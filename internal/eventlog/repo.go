package eventlog

import (
	"context"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists inbound event rows. The table is append-only; there
// are no update or delete helpers on purpose.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.InboundEvent) error
	ListByReference(ctx context.Context, params listEventsParams) ([]models.InboundEvent, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an event log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listEventsParams struct {
	Reference string
	Limit     int
	Cursor    *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, event *models.InboundEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repositoryImpl) ListByReference(ctx context.Context, params listEventsParams) ([]models.InboundEvent, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.InboundEvent{}).Where("reference = ?", params.Reference)
	if params.Cursor != nil {
		query = query.Where("(received_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var events []models.InboundEvent
	if err := query.Order("received_at DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	if len(events) > normalized {
		next := events[normalized]
		events = events[:normalized]
		return events, &pagination.Cursor{CreatedAt: next.ReceivedAt, ID: next.ID}, nil
	}
	return events, nil, nil
}
