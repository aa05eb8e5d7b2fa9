// Package retry provides bounded exponential backoff for the classifier and
// dispatcher call sites.
package retry

import (
	"context"
	"time"

	"leadsniper-engine/internal/errkind"
)

// Policy caps the attempt count and shapes the delay between attempts.
type Policy struct {
	Attempts int           // total tries, including the first
	Base     time.Duration // delay before the second try; doubles after that
	Max      time.Duration // delay ceiling; 0 means uncapped
}

// Delay is the sleep before try n (the first try is n=0 and never sleeps).
// Strictly increasing until it hits Max.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	d := p.Base
	for i := 1; i < n; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Do runs fn until it succeeds, the attempt budget is spent, or ctx is
// canceled. Only transient failures are worth repeating: a Fatal, Malformed
// or Delivery tag on the returned error stops the loop immediately.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if serr := Sleep(ctx, p.Delay(i)); serr != nil {
				return serr
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		switch errkind.KindOf(err) {
		case errkind.Fatal, errkind.Malformed, errkind.Delivery:
			return err
		}
	}
	return err
}

// Sleep waits d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
