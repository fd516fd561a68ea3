// Package notify contains the push-notification dispatch used to tell a
// plan's doctor/patient that a new snapshot was saved. Dispatch is
// fire-and-forget: transport failures are logged, never surfaced to the
// caller's flow.
package notify

import "context"

// Notification is one push message addressed by topic (one topic per plan).
type Notification struct {
	Topic string
	Title string
	Body  string
	Data  map[string]string
}

// Notifier dispatches push notifications.
type Notifier interface {
	// Dispatch sends the notification, returning only transport setup
	// errors; delivery is best effort.
	Dispatch(ctx context.Context, n Notification) error
}

// Noop is used when no push credentials are configured.
type Noop struct{}

func (Noop) Dispatch(context.Context, Notification) error { return nil }
