package action

import (
	"context"
	"fmt"
	"time"
)

// Sleep creates an asynchronous action that waits for the given duration.
// It is the only built-in delay primitive; cancellation interrupts the wait.
func Sleep(d time.Duration) Action {
	fn := NewAsyncFunc(fmt.Sprintf("sleep[%s]", d), nil, func(ctx context.Context, _ []any) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
	return New(fn)
}
