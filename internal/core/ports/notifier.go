package ports

import "context"

// NotificationKind labels a notification for logs and metrics.
type NotificationKind string

const (
	KindRegistration  NotificationKind = "registration"
	KindPasswordReset NotificationKind = "password_reset"
)

// Notification is a single outbound email.
type Notification struct {
	Kind    NotificationKind
	To      string
	Subject string
	HTML    string
}

// Notifier delivers a notification synchronously.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NotificationQueue accepts notifications for best-effort asynchronous delivery.
// Enqueue must not block the caller.
type NotificationQueue interface {
	Enqueue(n Notification)
}
