package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

const voucherExpiryBatchSize = 200

type expiryNotifier interface {
	OrderExpired(ctx context.Context, order *models.Order) error
}

type voucherLedger interface {
	FindLapsedVoucherOrders(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	MarkExpired(ctx context.Context, id uuid.UUID, reason string, now time.Time) (ledger.CASResult, error)
}

// VoucherExpiryJobParams configure the voucher sweep.
type VoucherExpiryJobParams struct {
	Logger   *logger.Logger
	Ledger   voucherLedger
	Notifier expiryNotifier
}

type voucherExpiryJob struct {
	logg     *logger.Logger
	ledger   voucherLedger
	notifier expiryNotifier
	now      func() time.Time
}

// NewVoucherExpiryJob builds the job that expires pending voucher orders
// whose authorization window lapsed without a settling event. The webhook
// path handles expiry when an event does arrive; this sweep covers orders
// the provider never calls back about.
func NewVoucherExpiryJob(params VoucherExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &voucherExpiryJob{
		logg:     params.Logger,
		ledger:   params.Ledger,
		notifier: params.Notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (j *voucherExpiryJob) Name() string { return "voucher-expiry" }

func (j *voucherExpiryJob) Run(ctx context.Context) error {
	now := j.now()
	lapsed, err := j.ledger.FindLapsedVoucherOrders(ctx, now, voucherExpiryBatchSize)
	if err != nil {
		return fmt.Errorf("find lapsed voucher orders: %w", err)
	}
	if len(lapsed) == 0 {
		return nil
	}

	var errs error
	expired := 0
	for i := range lapsed {
		order := &lapsed[i]
		reason := fmt.Sprintf("voucher expired at %s", order.VoucherExpiresAt.Format(time.RFC3339))
		result, err := j.ledger.MarkExpired(ctx, order.ID, reason, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		if !result.Updated {
			// settled or flagged since the query ran
			continue
		}
		expired++
		if err := j.notifier.OrderExpired(ctx, order); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify order %s: %w", order.ID, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(lapsed),
		"expired":    expired,
	})
	j.logg.Info(logCtx, "voucher expiry sweep finished")
	return errs
}
