package daemon

import "context"

// Call runs fn on the host event loop through dispatch and waits for its
// result. If ctx ends first the result is dropped; fn still runs.
func Call[T any](ctx context.Context, dispatch func(func()), fn func() T) (T, error) {
	done := make(chan T, 1)
	dispatch(func() { done <- fn() })
	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Do is Call for functions that return only an error.
func Do(ctx context.Context, dispatch func(func()), fn func() error) error {
	err, callErr := Call(ctx, dispatch, fn)
	if callErr != nil {
		return callErr
	}
	return err
}
