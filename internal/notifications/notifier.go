package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

type payloadPublisher interface {
	Publish(ctx context.Context, payload Payload) error
}

// Notifier turns payment outcomes into notification events. Delivery goes
// through the broker; the worker owns persistence.
type Notifier struct {
	publisher payloadPublisher
	logg      *logger.Logger
}

// NewNotifier wires the notifier's publisher.
func NewNotifier(publisher payloadPublisher, logg *logger.Logger) (*Notifier, error) {
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification publisher required")
	}
	return &Notifier{publisher: publisher, logg: logg}, nil
}

// OrderPaid notifies buyer and chef that the charge settled. Both sends are
// attempted even when one fails.
func (n *Notifier) OrderPaid(ctx context.Context, order *models.Order) error {
	link := orderLink(order.ID)

	buyer := Payload{
		UserID:   ptr(order.BuyerID),
		Scope:    enums.NotificationScopeBuyer,
		Type:     enums.NotificationTypePaymentSuccess,
		Priority: enums.NotificationPriorityNormal,
		Title:    "Payment confirmed",
		Message:  fmt.Sprintf("Your payment of %s for order %s was confirmed.", formatPesewas(order.TotalPesewas), shortID(order.ID)),
		Link:     &link,
	}
	chef := Payload{
		UserID:   ptr(order.ChefID),
		Scope:    enums.NotificationScopeChef,
		Type:     enums.NotificationTypeOrderAlert,
		Priority: enums.NotificationPriorityNormal,
		Title:    "New paid order",
		Message:  fmt.Sprintf("Order %s is paid. Your earnings: %s.", shortID(order.ID), formatPesewas(order.ChefEarningsPesewas)),
		Link:     &link,
	}

	var errs error
	if err := n.publisher.Publish(ctx, buyer); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("notify buyer: %w", err))
	}
	if err := n.publisher.Publish(ctx, chef); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("notify chef: %w", err))
	}
	return errs
}

// OrderFailed notifies the buyer that the charge did not settle.
func (n *Notifier) OrderFailed(ctx context.Context, order *models.Order, reason string) error {
	link := orderLink(order.ID)
	message := fmt.Sprintf("Payment for order %s failed.", shortID(order.ID))
	if reason != "" {
		message = fmt.Sprintf("Payment for order %s failed: %s.", shortID(order.ID), reason)
	}

	return n.publisher.Publish(ctx, Payload{
		UserID:   ptr(order.BuyerID),
		Scope:    enums.NotificationScopeBuyer,
		Type:     enums.NotificationTypePaymentFailed,
		Priority: enums.NotificationPriorityNormal,
		Title:    "Payment failed",
		Message:  message,
		Link:     &link,
	})
}

// OrderExpired notifies the buyer that the mobile-money voucher lapsed
// before the charge settled.
func (n *Notifier) OrderExpired(ctx context.Context, order *models.Order) error {
	link := orderLink(order.ID)
	return n.publisher.Publish(ctx, Payload{
		UserID:   ptr(order.BuyerID),
		Scope:    enums.NotificationScopeBuyer,
		Type:     enums.NotificationTypePaymentFailed,
		Priority: enums.NotificationPriorityNormal,
		Title:    "Payment authorization expired",
		Message:  fmt.Sprintf("The payment authorization for order %s expired before the charge completed. Please place the order again.", shortID(order.ID)),
		Link:     &link,
	})
}

// AdminAlert raises a high-priority admin notification.
func (n *Notifier) AdminAlert(ctx context.Context, title, message string, link *string) error {
	return n.publisher.Publish(ctx, Payload{
		Scope:    enums.NotificationScopeAdmin,
		Type:     enums.NotificationTypeSecurityAlert,
		Priority: enums.NotificationPriorityHigh,
		Title:    title,
		Message:  message,
		Link:     link,
	})
}

func orderLink(id uuid.UUID) string {
	return fmt.Sprintf("/orders/%s", id)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func formatPesewas(amount int64) string {
	return fmt.Sprintf("GHS %d.%02d", amount/100, amount%100)
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
