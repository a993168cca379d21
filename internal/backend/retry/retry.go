// Package retry wraps a backend.Store with exponential backoff, per §4.9.
// Grounded on internal/backend/retry/backend_retry.go, adapted from the
// teacher's Handle-based Backend interface to the narrower path-based
// backend.Store used here.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/duskvault/duskvault/internal/backend"
	"github.com/duskvault/duskvault/internal/debug"
	"github.com/duskvault/duskvault/internal/reposerr"
)

// Policy configures the backoff parameters (§4.9 defaults table).
type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	Jitter      bool
}

// DefaultCloudPolicy is used for S3/Azure-family backends.
var DefaultCloudPolicy = Policy{MaxAttempts: 5, Initial: 100 * time.Millisecond, Max: 30 * time.Second, Multiplier: 2.0, Jitter: true}

// DefaultLocalPolicy is used for the local filesystem backend.
var DefaultLocalPolicy = Policy{MaxAttempts: 3, Initial: 50 * time.Millisecond, Max: 5 * time.Second, Multiplier: 2.0, Jitter: true}

// Report, when set, is called once per retried attempt with the operation
// name, the error that triggered the retry, and the backoff duration about
// to be waited.
type Store struct {
	backend.Store
	Policy Policy
	Report func(op string, err error, backoffDuration time.Duration)
}

var _ backend.Store = (*Store)(nil)

// New wraps be so that every operation is retried according to policy.
func New(be backend.Store, policy Policy, report func(string, error, time.Duration)) *Store {
	return &Store{Store: be, Policy: policy, Report: report}
}

func (s *Store) newBackoff() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     s.Policy.Initial,
		RandomizationFactor: 0,
		Multiplier:          s.Policy.Multiplier,
		MaxInterval:         s.Policy.Max,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	if s.Policy.Jitter {
		b.RandomizationFactor = 0.25
	}
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(max(0, s.Policy.MaxAttempts-1)))
}

func (s *Store) retry(ctx context.Context, op string, f func() error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	b := backoff.WithContext(s.newBackoff(), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := f()
		if err == nil {
			return nil
		}
		if !reposerr.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, d time.Duration) {
		debug.Log("retry %s: attempt %d failed: %v, backing off %v", op, attempt, err, d)
		if s.Report != nil {
			s.Report(op, err, d)
		}
	})
}

func (s *Store) Init(ctx context.Context) error {
	return s.retry(ctx, "Init", func() error { return s.Store.Init(ctx) })
}

func (s *Store) Exists(ctx context.Context, path string) (exists bool, err error) {
	err = s.retry(ctx, fmt.Sprintf("Exists(%s)", path), func() error {
		var innerErr error
		exists, innerErr = s.Store.Exists(ctx, path)
		return innerErr
	})
	return exists, err
}

func (s *Store) Get(ctx context.Context, path string) (data []byte, err error) {
	err = s.retry(ctx, fmt.Sprintf("Get(%s)", path), func() error {
		var innerErr error
		data, innerErr = s.Store.Get(ctx, path)
		if s.Store.IsNotExist(innerErr) {
			return backoff.Permanent(innerErr)
		}
		return innerErr
	})
	return data, err
}

func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	return s.retry(ctx, fmt.Sprintf("Put(%s)", path), func() error {
		return s.Store.Put(ctx, path, data)
	})
}

func (s *Store) Delete(ctx context.Context, path string) error {
	return s.retry(ctx, fmt.Sprintf("Delete(%s)", path), func() error {
		return s.Store.Delete(ctx, path)
	})
}

func (s *Store) List(ctx context.Context, prefix string, fn func(string, backend.Info) error) error {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var innerErr error
	err := s.retry(ctx, fmt.Sprintf("List(%s)", prefix), func() error {
		return s.Store.List(listCtx, prefix, func(path string, info backend.Info) error {
			innerErr = fn(path, info)
			if innerErr != nil {
				cancel()
			}
			return innerErr
		})
	})
	if innerErr != nil {
		return innerErr
	}
	return err
}

func (s *Store) Stat(ctx context.Context, path string) (info backend.Info, err error) {
	err = s.retry(ctx, fmt.Sprintf("Stat(%s)", path), func() error {
		var innerErr error
		info, innerErr = s.Store.Stat(ctx, path)
		if s.Store.IsNotExist(innerErr) {
			return backoff.Permanent(innerErr)
		}
		return innerErr
	})
	return info, err
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
