package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Class tells the executor whether another attempt makes sense.
type Class int

const (
	Retryable Class = iota
	Permanent
)

// Policy configures exponential backoff with a cap and uniform jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration

	// Classify decides whether an error is retryable. Nil retries everything.
	Classify func(error) Class

	// OnRetry is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Default is the production policy: 6 attempts, 1s doubling up to 10s, plus
// up to 250ms of jitter.
func Default() Policy {
	return Policy{
		MaxAttempts: 6,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Jitter:      250 * time.Millisecond,
	}
}

// Delay returns the wait before attempt+1, without jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	wait := p.BaseDelay
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if wait > p.MaxDelay {
		wait = p.MaxDelay
	}
	return wait
}

// Do runs fn until it succeeds, returns a permanent error, or the attempt
// budget runs out. The last error is returned unmodified.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}

	classify := p.Classify
	if classify == nil {
		classify = func(error) Class { return Retryable }
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if classify(err) == Permanent {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := p.Delay(attempt)
		if p.Jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(p.Jitter)))
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = errors.New("retry: exhausted with no error")
	}
	return lastErr
}
