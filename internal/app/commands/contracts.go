package commands

import (
	"context"
	"errors"

	"condobook/internal/app/bus"
)

// Command is a write intent: amenity configuration changes and booking
// lifecycle transitions.
type Command = bus.Message

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// Bus dispatches commands, usually through a middleware chain.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var ErrNilBus = errors.New("commands: nil bus")

// Dispatch sends cmd through b and narrows the result to R.
func Dispatch[C Command, R any](ctx context.Context, b Bus, cmd C) (R, error) {
	if b == nil {
		var zero R
		return zero, ErrNilBus
	}
	return bus.Result[R](b.Dispatch(ctx, cmd))
}
