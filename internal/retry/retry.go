//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package retry provides a bounded fixed-delay retry combinator.
package retry

import (
	"context"
	"fmt"
	"time"

	"trpc.group/trpc-go/goaleval/log"
)

// Do invokes fn up to attempts times, sleeping a fixed delay between failed
// attempts. Each attempt is independent; there is no backoff growth and no
// jitter. After exhausting the budget the last error is returned.
func Do[T any](ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts <= 0 {
		return zero, fmt.Errorf("retry attempts must be greater than 0")
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		log.Warnf("Attempt %d/%d failed: %v", attempt, attempts, err)
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
