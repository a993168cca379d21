package retry

import (
	"context"
	"testing"
	"time"

	"github.com/duskvault/duskvault/internal/backend"
	"github.com/duskvault/duskvault/internal/backend/mem"
	"github.com/duskvault/duskvault/internal/reposerr"
)

// flakyStore wraps a backend.Store and fails the first N calls to Get with a
// retryable error before delegating to the wrapped store.
type flakyStore struct {
	backend.Store
	failures int
	attempts int
}

func (f *flakyStore) Get(ctx context.Context, path string) ([]byte, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return nil, errTransient
	}
	return f.Store.Get(ctx, path)
}

var errTransient = transientErr{}

type transientErr struct{}

func (transientErr) Error() string { return "transient failure" }

func fastPolicy() Policy {
	return Policy{MaxAttempts: 5, Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2.0, Jitter: false}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	ctx := context.Background()
	inner := mem.New()
	_ = inner.Put(ctx, "data/x", []byte("ok"))

	flaky := &flakyStore{Store: inner, failures: 2}
	s := New(flaky, fastPolicy(), nil)

	got, err := s.Get(ctx, "data/x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "ok" {
		t.Fatalf("got %q, want %q", got, "ok")
	}
	if flaky.attempts != 3 {
		t.Fatalf("expected 3 attempts (2 failures + 1 success), got %d", flaky.attempts)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	inner := mem.New()
	_ = inner.Put(ctx, "data/x", []byte("ok"))

	flaky := &flakyStore{Store: inner, failures: 100}
	s := New(flaky, fastPolicy(), nil)

	_, err := s.Get(ctx, "data/x")
	if err == nil {
		t.Fatal("expected error after exceeding max attempts")
	}
	if flaky.attempts != fastPolicy().MaxAttempts {
		t.Fatalf("expected exactly %d attempts, got %d", fastPolicy().MaxAttempts, flaky.attempts)
	}
}

func TestRetryDoesNotRetryNotFound(t *testing.T) {
	ctx := context.Background()
	inner := mem.New()

	s := New(inner, fastPolicy(), nil)

	_, err := s.Get(ctx, "data/missing")
	if err == nil || !inner.IsNotExist(err) {
		t.Fatalf("expected IsNotExist error, got %v", err)
	}
}

func TestRetryDoesNotRetryNonRetryableSentinel(t *testing.T) {
	ctx := context.Background()
	inner := mem.New()

	attempts := 0
	failing := &alwaysFail{Store: inner, err: reposerr.ErrAuthentication, attempts: &attempts}
	s := New(failing, fastPolicy(), nil)

	_, err := s.Get(ctx, "data/x")
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("non-retryable sentinel should short-circuit after 1 attempt, got %d", attempts)
	}
}

type alwaysFail struct {
	backend.Store
	err      error
	attempts *int
}

func (a *alwaysFail) Get(_ context.Context, _ string) ([]byte, error) {
	*a.attempts++
	return nil, a.err
}

func (a *alwaysFail) IsNotExist(err error) bool {
	return false
}
