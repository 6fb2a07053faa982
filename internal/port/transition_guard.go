package port

import "context"

type TransitionGuard interface {
	// Acquire marks a transition key as applied, returns false if it was
	// already marked by an earlier call.
	Acquire(ctx context.Context, key string) (bool, error)

	// Release drops the mark so a failed adjustment can be retried.
	Release(ctx context.Context, key string) error
}
