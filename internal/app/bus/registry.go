// Package bus holds the routing table shared by the command and query buses.
package bus

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Message is anything routed by key: a command or a query.
type Message interface {
	Key() string
}

var (
	ErrNoRoute    = errors.New("bus: handler not found")
	ErrWrongType  = errors.New("bus: message type does not match handler")
	ErrResultType = errors.New("bus: result type mismatch")
)

type route[M Message] func(ctx context.Context, msg M) (any, error)

// Registry maps message keys to handlers. It is filled during wiring and only
// read afterwards, so it carries no lock.
type Registry[M Message] struct {
	kind   string
	routes map[string]route[M]
}

func NewRegistry[M Message](kind string) *Registry[M] {
	return &Registry[M]{kind: kind, routes: make(map[string]route[M])}
}

func (r *Registry[M]) Add(key string, fn func(ctx context.Context, msg M) (any, error)) {
	if key == "" {
		panic(r.kind + ": empty key registration")
	}
	if fn == nil {
		panic(r.kind + ": nil handler for " + key)
	}
	if _, exists := r.routes[key]; exists {
		panic(r.kind + ": duplicate registration for " + key)
	}
	r.routes[key] = fn
}

func (r *Registry[M]) Route(ctx context.Context, msg M) (any, error) {
	fn, ok := r.routes[msg.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNoRoute, r.kind, msg.Key())
	}
	return fn(ctx, msg)
}

// Keys lists registered keys in lexical order.
func (r *Registry[M]) Keys() []string {
	return slices.Sorted(maps.Keys(r.routes))
}

// Bind registers a handler written against the concrete message type T.
func Bind[M Message, T Message, R any](r *Registry[M], key string, handle func(ctx context.Context, msg T) (R, error)) {
	r.Add(key, func(ctx context.Context, msg M) (any, error) {
		typed, ok := any(msg).(T)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrWrongType, key, msg)
		}
		res, err := handle(ctx, typed)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
}

// Result narrows an untyped bus result to R. A nil result yields R's zero value.
func Result[R any](res any, err error) (R, error) {
	var zero R
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: got %T", ErrResultType, res)
	}
	return value, nil
}
