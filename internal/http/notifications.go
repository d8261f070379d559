package http

import (
	"context"
	"log/slog"
	"sync"

	"fintrack/internal/store"
)

type notifyKey struct{}

// collector gathers the notifications a store operation emits during a
// single request so the handler can flush them into the HX-Trigger header.
type collector struct {
	mu    sync.Mutex
	notes []store.Notification
}

func (c *collector) add(n store.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *collector) list() []store.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]store.Notification, len(c.notes))
	copy(out, c.notes)
	return out
}

// withCollector installs a fresh collector on the context.
func withCollector(ctx context.Context) (context.Context, *collector) {
	c := &collector{}
	return context.WithValue(ctx, notifyKey{}, c), c
}

// ContextNotifier returns the store notifier: it routes each notification to
// the collector of the request that triggered the mutation. A notification
// emitted outside a request scope is only logged.
func ContextNotifier() store.Notifier {
	return store.NotifierFunc(func(ctx context.Context, n store.Notification) {
		if c, ok := ctx.Value(notifyKey{}).(*collector); ok {
			c.add(n)
			return
		}
		slog.DebugContext(ctx, "Notification outside request scope", "title", n.Title)
	})
}
