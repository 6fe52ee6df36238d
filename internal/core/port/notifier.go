package port

import "context"

// Notifier delivers outbound messages to users. Delivery is fire-and-forget
// from the core's perspective: callers log failures but never roll back store
// state because of them.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
