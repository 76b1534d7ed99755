package commands

import (
	"context"

	"condobook/internal/app/bus"
)

// InMemoryBus routes each command to the single handler registered for its key.
type InMemoryBus struct {
	routes *bus.Registry[Command]
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: bus.NewRegistry[Command]("commands")}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	return b.routes.Route(ctx, cmd)
}

func (b *InMemoryBus) Keys() []string { return b.routes.Keys() }

func RegisterHandler[C Command, R any](b *InMemoryBus, key string, handler Handler[C, R]) {
	if b == nil || handler == nil {
		panic("commands: nil bus or handler for " + key)
	}
	bus.Bind(b.routes, key, handler.Handle)
}
