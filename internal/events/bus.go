// Package events provides the in-process bus product snapshots travel on.
package events

import (
	EventBus "github.com/asaskevich/EventBus"
	"go.uber.org/fx"
)

var Module = fx.Module("events",
	fx.Provide(NewBus),
)

// NewBus returns a synchronous bus. Handlers run on the publisher's
// goroutine, in subscription order.
func NewBus() EventBus.Bus {
	return EventBus.New()
}
