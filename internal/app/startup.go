package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WaitForDependency retries ping with exponential backoff so the process
// survives dependencies that come up slower than the container.
func WaitForDependency(ctx context.Context, name string, maxWait time.Duration, ping func(context.Context) error) error {
	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = maxWait
	op := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return ping(pingCtx)
	}
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		return fmt.Errorf("waiting for %s: %w", name, err)
	}
	slog.Info("dependency ready", slog.String("dependency", name))
	return nil
}
