package cron

import (
	"context"
	"fmt"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

const flaggedOrdersBatchSize = 100

type adminAlerter interface {
	AdminAlert(ctx context.Context, title, message string, link *string) error
}

type flaggedOrderReader interface {
	FindFlaggedOrders(ctx context.Context, limit int) ([]models.Order, error)
}

// FlaggedOrdersJobParams configure the flagged order reminder.
type FlaggedOrdersJobParams struct {
	Logger   *logger.Logger
	Ledger   flaggedOrderReader
	Notifier adminAlerter
}

type flaggedOrdersJob struct {
	logg     *logger.Logger
	ledger   flaggedOrderReader
	notifier adminAlerter
}

// NewFlaggedOrdersJob builds the job that reminds admins about orders
// stuck behind a mismatch flag. Flags only clear through the admin
// override, so unattended ones need periodic surfacing.
func NewFlaggedOrdersJob(params FlaggedOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &flaggedOrdersJob{
		logg:     params.Logger,
		ledger:   params.Ledger,
		notifier: params.Notifier,
	}, nil
}

func (j *flaggedOrdersJob) Name() string { return "flagged-orders-reminder" }

func (j *flaggedOrdersJob) Run(ctx context.Context) error {
	flagged, err := j.ledger.FindFlaggedOrders(ctx, flaggedOrdersBatchSize)
	if err != nil {
		return fmt.Errorf("find flagged orders: %w", err)
	}
	if len(flagged) == 0 {
		return nil
	}

	oldest := flagged[0]
	link := "/admin/orders/flagged"
	message := fmt.Sprintf("%d order(s) are flagged for review; oldest flagged at %s.",
		len(flagged), oldest.FlaggedAt.Format("2006-01-02 15:04"))
	if err := j.notifier.AdminAlert(ctx, "Flagged orders awaiting review", message, &link); err != nil {
		return fmt.Errorf("alert admins: %w", err)
	}

	logCtx := j.logg.WithField(ctx, "flagged", len(flagged))
	j.logg.Info(logCtx, "flagged order reminder sent")
	return nil
}
