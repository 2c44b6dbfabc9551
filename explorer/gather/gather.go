// Package gather runs independent fetches concurrently and joins them with
// all-settle semantics: every task runs to completion and a failure in one
// never cancels or hides the results of the others.
package gather

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one independent unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// Result holds the outcome of a single Task.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Or returns the value, or fallback when the task failed.
func (r Result[T]) Or(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}

// Settle runs every task concurrently and waits for all of them. Results are
// returned in task order. Panics inside a task are converted into that task's
// error.
func Settle[T any](ctx context.Context, tasks ...Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))

	// plain group: no derived context, so one failure does not cancel siblings
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = run(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// SettleLimit is Settle with at most limit tasks in flight.
func SettleLimit[T any](ctx context.Context, limit int, tasks ...Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = run(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func run[T any](ctx context.Context, task Task[T]) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[T]{Err: fmt.Errorf("task panicked: %v", p)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Result[T]{Err: err}
	}
	v, err := task(ctx)
	return Result[T]{Value: v, Err: err}
}
