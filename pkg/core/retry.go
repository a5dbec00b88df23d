package core

import (
	"context"
	"fmt"
	"time"
)

// Retry calls attempt up to retryCount+1 times, waiting interval between
// attempts, and stops at the first success. It returns the number of attempts
// made and the last error. A cancelled ctx aborts the wait.
func Retry(ctx context.Context, retryCount int, interval time.Duration, attempt func(n int) error) (int, error) {
	if retryCount < 0 {
		retryCount = 0
	}

	var lastErr error
	attempts := 0
	for n := 0; n <= retryCount; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return attempts, fmt.Errorf("retry aborted: %w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(interval):
			}
		}

		attempts++
		if lastErr = attempt(n); lastErr == nil {
			return attempts, nil
		}
	}
	return attempts, lastErr
}
