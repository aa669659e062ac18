package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// sideEffects is the post-commit hook list of one operation. Hooks are
// queued while the operation runs and flushed only once it succeeded.
type sideEffects struct {
	op    string
	hooks []hook
}

func newSideEffects(op string) *sideEffects {
	return &sideEffects{op: op}
}

func (fx *sideEffects) add(name string, fn func(ctx context.Context) error) {
	fx.hooks = append(fx.hooks, hook{name: name, fn: fn})
}

// effectRunner runs each flushed hook list on its own goroutine, hooks in
// queue order. A failing or panicking hook is logged and the next one runs.
type effectRunner struct {
	log *slog.Logger
	wg  sync.WaitGroup
}

func newEffectRunner(log *slog.Logger) *effectRunner {
	return &effectRunner{log: log}
}

func (r *effectRunner) flush(ctx context.Context, fx *sideEffects) {
	if fx == nil || len(fx.hooks) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for _, h := range fx.hooks {
			r.runHook(ctx, fx.op, h)
		}
	}()
}

func (r *effectRunner) runHook(ctx context.Context, op string, h hook) {
	log := r.log.With(slog.String("op", op), slog.String("hook", h.name))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("side effect panicked", slog.Any("panic", rec))
		}
	}()

	if err := h.fn(ctx); err != nil {
		log.Warn("side effect failed", sl.Err(err))
	}
}

// wait blocks until every flushed hook list has finished.
func (r *effectRunner) wait() {
	r.wg.Wait()
}
