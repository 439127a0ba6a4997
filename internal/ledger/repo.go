package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns every mutation of an order's payment columns. All
// transitions are single-statement compare-and-set updates: the WHERE
// clause encodes the expected current state, and RowsAffected tells the
// caller whether it won. Two workers applying the same event concurrently
// can both read pending, but only one UPDATE matches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID, expand ...Expand) (*models.Order, error)
	FindByReference(ctx context.Context, reference string, expand ...Expand) (*models.Order, error)
	FindLapsedVoucherOrders(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	FindFlaggedOrders(ctx context.Context, limit int) ([]models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID, update PaidUpdate) (CASResult, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, now time.Time) (CASResult, error)
	MarkExpired(ctx context.Context, id uuid.UUID, reason string, now time.Time) (CASResult, error)
	FlagMismatch(ctx context.Context, id uuid.UUID, reason string, now time.Time) (CASResult, error)
	ClearFlag(ctx context.Context, id uuid.UUID) (CASResult, error)
	ClaimPaidNotification(ctx context.Context, id uuid.UUID) (CASResult, error)
}

// Expand names an order association a lookup should load alongside the
// payment columns. Callers ask for exactly what they need; the default
// is the bare row.
type Expand string

const (
	ExpandBuyer Expand = "Buyer"
	ExpandChef  Expand = "Chef"
	ExpandMeal  Expand = "Meal"
)

// PaidUpdate carries the provider fields recorded on a successful charge.
type PaidUpdate struct {
	PaidAt        time.Time
	ProviderTxnID string
	Channel       string
	Metadata      json.RawMessage
}

// CASResult reports the outcome of a compare-and-set transition.
type CASResult struct {
	Updated bool
	Found   bool
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an order ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID, expand ...Expand) (*models.Order, error) {
	var order models.Order
	err := r.expanded(ctx, expand).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindByReference(ctx context.Context, reference string, expand ...Expand) (*models.Order, error) {
	var order models.Order
	err := r.expanded(ctx, expand).First(&order, "payment_reference = ?", reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) expanded(ctx context.Context, expand []Expand) *gorm.DB {
	query := r.db.WithContext(ctx)
	for _, assoc := range expand {
		query = query.Preload(string(assoc))
	}
	return query
}

func (r *repositoryImpl) FindLapsedVoucherOrders(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND flagged_at IS NULL AND authorization_type = ? AND voucher_expires_at IS NOT NULL AND voucher_expires_at < ?",
			enums.PaymentStatusPending, enums.AuthorizationTypeVoucher, cutoff).
		Order("voucher_expires_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repositoryImpl) FindFlaggedOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("flagged_at IS NOT NULL").
		Order("flagged_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repositoryImpl) MarkPaid(ctx context.Context, id uuid.UUID, update PaidUpdate) (CASResult, error) {
	columns := map[string]any{
		"payment_status":  enums.PaymentStatusPaid,
		"paid_at":         update.PaidAt,
		"provider_txn_id": update.ProviderTxnID,
		"channel":         update.Channel,
		"failure_reason":  nil,
		"updated_at":      time.Now().UTC(),
	}
	if update.Metadata != nil {
		columns["provider_metadata"] = update.Metadata
	}

	// A confirmed charge supersedes an earlier failure: out-of-order
	// delivery can land charge.failed before the charge.success that
	// actually settled. Paid and expired stay sticky.
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status IN ? AND flagged_at IS NULL",
			id, []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusFailed}).
		UpdateColumns(columns)
	if result.Error != nil {
		return CASResult{}, result.Error
	}
	return r.resolve(ctx, id, result.RowsAffected)
}

func (r *repositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, reason string, now time.Time) (CASResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ? AND flagged_at IS NULL", id, enums.PaymentStatusPending).
		UpdateColumns(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"failure_reason": reason,
			"updated_at":     now,
		})
	if result.Error != nil {
		return CASResult{}, result.Error
	}
	return r.resolve(ctx, id, result.RowsAffected)
}

func (r *repositoryImpl) MarkExpired(ctx context.Context, id uuid.UUID, reason string, now time.Time) (CASResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ? AND flagged_at IS NULL", id, enums.PaymentStatusPending).
		UpdateColumns(map[string]any{
			"payment_status": enums.PaymentStatusExpired,
			"failure_reason": reason,
			"updated_at":     now,
		})
	if result.Error != nil {
		return CASResult{}, result.Error
	}
	return r.resolve(ctx, id, result.RowsAffected)
}

func (r *repositoryImpl) FlagMismatch(ctx context.Context, id uuid.UUID, reason string, now time.Time) (CASResult, error) {
	// guards the same states MarkPaid can act on
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status IN ? AND flagged_at IS NULL",
			id, []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusFailed}).
		UpdateColumns(map[string]any{
			"flagged_at":  now,
			"flag_reason": reason,
			"updated_at":  now,
		})
	if result.Error != nil {
		return CASResult{}, result.Error
	}
	return r.resolve(ctx, id, result.RowsAffected)
}

func (r *repositoryImpl) ClearFlag(ctx context.Context, id uuid.UUID) (CASResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND flagged_at IS NOT NULL", id).
		UpdateColumns(map[string]any{
			"flagged_at":  nil,
			"flag_reason": nil,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return CASResult{}, result.Error
	}
	return r.resolve(ctx, id, result.RowsAffected)
}

func (r *repositoryImpl) ClaimPaidNotification(ctx context.Context, id uuid.UUID) (CASResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ? AND notified_paid = ?", id, enums.PaymentStatusPaid, false).
		UpdateColumn("notified_paid", true)
	if result.Error != nil {
		return CASResult{}, result.Error
	}
	return r.resolve(ctx, id, result.RowsAffected)
}

func (r *repositoryImpl) resolve(ctx context.Context, id uuid.UUID, rowsAffected int64) (CASResult, error) {
	cas := CASResult{Updated: rowsAffected > 0}
	if cas.Updated {
		cas.Found = true
		return cas, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return CASResult{}, err
	}
	cas.Found = count > 0
	return cas, nil
}
