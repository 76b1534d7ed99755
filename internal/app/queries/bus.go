package queries

import (
	"context"

	"condobook/internal/app/bus"
)

type InMemoryBus struct {
	routes *bus.Registry[Query]
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: bus.NewRegistry[Query]("queries")}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	return b.routes.Route(ctx, query)
}

func (b *InMemoryBus) Keys() []string { return b.routes.Keys() }

func RegisterHandler[Q Query, R any](b *InMemoryBus, key string, handler Handler[Q, R]) {
	if b == nil || handler == nil {
		panic("queries: nil bus or handler for " + key)
	}
	bus.Bind(b.routes, key, handler.Handle)
}
