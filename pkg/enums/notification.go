package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePaymentSuccess NotificationType = "payment_success"
	NotificationTypePaymentFailed  NotificationType = "payment_failed"
	NotificationTypeSecurityAlert  NotificationType = "security_alert"
	NotificationTypePayout         NotificationType = "payout"
	NotificationTypeOrderAlert     NotificationType = "order_alert"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePaymentSuccess,
	NotificationTypePaymentFailed,
	NotificationTypeSecurityAlert,
	NotificationTypePayout,
	NotificationTypeOrderAlert,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationScope identifies who a notification is addressed to.
type NotificationScope string

const (
	NotificationScopeBuyer NotificationScope = "buyer"
	NotificationScopeChef  NotificationScope = "chef"
	NotificationScopeAdmin NotificationScope = "admin"
)

var validNotificationScopes = []NotificationScope{
	NotificationScopeBuyer,
	NotificationScopeChef,
	NotificationScopeAdmin,
}

// IsValid checks whether the scope matches the canonical enum.
func (n NotificationScope) IsValid() bool {
	for _, candidate := range validNotificationScopes {
		if candidate == n {
			return true
		}
	}
	return false
}

// NotificationPriority ranks delivery urgency; high is reserved for
// administrative/security alerts.
type NotificationPriority string

const (
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// IsValid checks whether the priority matches the canonical enum.
func (n NotificationPriority) IsValid() bool {
	return n == NotificationPriorityNormal || n == NotificationPriorityHigh
}
