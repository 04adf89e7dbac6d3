// Package event is an in-process event bus. Listeners run synchronously in
// registration order unless dispatched with FireAsync.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/orderdesk/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any) error

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
)

// Listen registers a handler for the given event name.
func Listen(event string, handler Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[event] = append(handlers[event], handler)
}

// Has reports whether any handler listens for event.
func Has(event string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return len(handlers[event]) > 0
}

func snapshot(event string) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	hs := make([]Handler, len(handlers[event]))
	copy(hs, handlers[event])
	return hs
}

// Fire dispatches an event to every listener. A failing or panicking
// listener does not stop the rest; their errors are joined.
func Fire(ctx context.Context, event string, payload any) error {
	var errs []error
	for _, h := range snapshot(event) {
		if err := call(ctx, event, h, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FireAsync dispatches the event on a new goroutine and logs listener
// errors. The context is detached from the caller's cancellation.
func FireAsync(ctx context.Context, event string, payload any) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := Fire(ctx, event, payload); err != nil {
			logger.WithCtx(ctx).Error("event: listener failed", "event", event, "error", err)
		}
	}()
}

func call(ctx context.Context, event string, h Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event: %s: listener panic: %v", event, r)
		}
	}()
	if err := h(ctx, payload); err != nil {
		return fmt.Errorf("event: %s: %w", event, err)
	}
	return nil
}

// Flush removes all listeners.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
