package store

import "context"

// Variant selects the toast style for a notification.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is the outward signal the store emits after every mutation
// attempt, successful or rejected. It is the store's only side channel.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use; the HTTP layer plugs in a per-request collector that
// forwards them to the browser as toasts.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }
