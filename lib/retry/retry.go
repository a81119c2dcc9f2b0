package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"codepool/entity"
)

// Policy bounds a compare-and-swap retry loop. Between attempts it sleeps
// an exponentially growing delay with jitter, so writers racing on a hot
// document do not retry in lockstep.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func Default() Policy {
	return Policy{
		Attempts:  5,
		BaseDelay: 25 * time.Millisecond,
		MaxDelay:  500 * time.Millisecond,
	}
}

// Do runs fn up to p.Attempts times, retrying only on entity.ErrConflict.
// Success or any other error ends the loop immediately. When the budget
// runs out it returns entity.ErrBusy.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, entity.ErrConflict) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(delay)):
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return entity.ErrBusy
}

// jitter spreads a delay over [d/2, d).
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := int64(d) / 2
	return time.Duration(half + rand.Int63n(half))
}
