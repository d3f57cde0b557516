// Package optimistic formalizes the "apply now, revert on failure"
// pattern used for toggles and local-first mutations: the local change is
// applied immediately, the server call runs, and the captured previous
// state is restored when the call fails.
package optimistic

import "context"

// Update applies the local change, runs the server call, and reverts the
// local change when the call fails. The returned error is the server
// call's error, so the caller can surface it after the revert.
func Update(ctx context.Context, apply, revert func(), call func(context.Context) error) error {
	apply()
	if err := call(ctx); err != nil {
		revert()
		return err
	}
	return nil
}
