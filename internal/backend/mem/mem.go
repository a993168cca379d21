// Package mem implements backend.Store with an in-memory map. It is used
// for tests and the example/demo path; grounded on
// internal/backend/mem/mem_backend.go, simplified to the narrower path-based
// Store contract.
package mem

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/backend"
	"github.com/duskvault/duskvault/internal/debug"
)

var errNotFound = errors.New("not found")

type entry struct {
	data     []byte
	modified time.Time
}

// Backend is a mock backend that stores all data in a map in memory. It
// should only be used for tests and demos.
type Backend struct {
	mu   sync.RWMutex
	data map[string]entry
}

var _ backend.Store = (*Backend)(nil)

// New returns a new, empty in-memory backend.
func New() *Backend {
	debug.Log("created new memory backend")
	return &Backend{data: make(map[string]entry)}
}

func (b *Backend) Init(_ context.Context) error {
	return nil
}

func (b *Backend) Exists(_ context.Context, path string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data[path]
	return ok, nil
}

func (b *Backend) Get(_ context.Context, path string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.data[path]
	if !ok {
		return nil, errNotFound
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (b *Backend) Put(_ context.Context, path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	b.data[path] = entry{data: stored, modified: time.Now()}
	return nil
}

func (b *Backend) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, path)
	return nil
}

func (b *Backend) List(ctx context.Context, prefix string, fn func(path string, info backend.Info) error) error {
	b.mu.RLock()
	matches := make(map[string]entry)
	for p, e := range b.data {
		if strings.HasPrefix(p, prefix) {
			matches[p] = e
		}
	}
	b.mu.RUnlock()

	for p, e := range matches {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(p, backend.Info{Size: int64(len(e.data)), Modified: e.modified}); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (b *Backend) Stat(_ context.Context, path string) (backend.Info, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.data[path]
	if !ok {
		return backend.Info{}, errNotFound
	}
	return backend.Info{Size: int64(len(e.data)), Modified: e.modified}, nil
}

func (b *Backend) IsNotExist(err error) bool {
	return errors.Is(err, errNotFound)
}
