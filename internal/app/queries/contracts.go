package queries

import (
	"context"
	"errors"

	"condobook/internal/app/bus"
)

// Query reads amenities or calendar views and never mutates state.
type Query = bus.Message

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var ErrNilBus = errors.New("queries: nil bus")

// Ask runs query through b and narrows the result to R.
func Ask[Q Query, R any](ctx context.Context, b Bus, query Q) (R, error) {
	if b == nil {
		var zero R
		return zero, ErrNilBus
	}
	return bus.Result[R](b.Ask(ctx, query))
}
