package middleware

import (
	"context"

	"condobook/internal/app/commands"
	"condobook/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// SelfManaged marks commands whose handler opens and commits its own unit so
// it can run side effects after the commit.
type SelfManaged interface {
	ManagesUnitOfWork() bool
}

// Transaction runs each command inside a unit of work and commits it when the
// handler succeeds. Self-managed commands, and commands dispatched while a unit
// is already in ctx, pass through untouched.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if selfManaged(cmd) {
				return next.Dispatch(ctx, cmd)
			}
			if _, ok := uow.FromContext(ctx); ok {
				return next.Dispatch(ctx, cmd)
			}
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			return inUnit(ctx, factory, opts, func(execCtx context.Context) (any, error) {
				return next.Dispatch(execCtx, cmd)
			})
		})
	}
}

func selfManaged(cmd commands.Command) bool {
	sm, ok := cmd.(SelfManaged)
	return ok && sm.ManagesUnitOfWork()
}

// inUnit commits after run succeeds and rolls back on any other exit,
// including a panic.
func inUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions, run func(context.Context) (any, error)) (any, error) {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	execCtx := uow.Inject(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	res, err := run(execCtx)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}
