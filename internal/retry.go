package internal

import (
	"context"
	"time"
)

// Retry runs fn up to 1+retries times, sleeping backoff between attempts.
// It stops early when ctx is cancelled and returns the last error seen.
func Retry(ctx context.Context, retries int, backoff time.Duration, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 && backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
