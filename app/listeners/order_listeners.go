// Package listeners wires order events to their side effects: the stats
// cache and the live orders feed.
package listeners

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/pkg/event"
	"github.com/shashiranjanraj/orderdesk/pkg/ws"
)

// FeedMessage is what feed subscribers receive for every order write.
type FeedMessage struct {
	Event string               `json:"event"`
	Order services.OrderEvent `json:"order"`
}

var orderEvents = []string{
	services.EventOrderCreated,
	services.EventOrderUpdated,
	services.EventOrderDeleted,
}

// Register subscribes the order listeners. feed may be nil when nothing
// serves the live feed (CLI commands, tests).
func Register(stats *services.StatsService, feed *ws.Hub) {
	for _, name := range orderEvents {
		event.Listen(name, forgetStats(stats))
		if feed != nil {
			event.Listen(name, publish(feed, name))
		}
	}
}

func forgetStats(stats *services.StatsService) event.Handler {
	return func(ctx context.Context, _ any) error {
		return stats.Forget(ctx)
	}
}

func publish(feed *ws.Hub, name string) event.Handler {
	return func(_ context.Context, payload any) error {
		e, ok := payload.(services.OrderEvent)
		if !ok {
			return fmt.Errorf("listeners: %s: unexpected payload %T", name, payload)
		}
		return feed.Publish(FeedMessage{Event: name, Order: e})
	}
}
