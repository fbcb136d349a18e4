package loader_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/san-kum/ambient/internal/events"
	"github.com/san-kum/ambient/internal/motion"
)

// fakeImport counts calls, optionally blocks until released, and fails the
// calls listed in fail (1-based).
type fakeImport struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	fail    map[int]error
}

func newFakeImport() *fakeImport {
	return &fakeImport{fail: make(map[int]error)}
}

func (f *fakeImport) blocking() *fakeImport {
	f.release = make(chan struct{})
	return f
}

func (f *fakeImport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeImport) Import(ctx context.Context) (motion.Module, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	release := f.release
	err := f.fail[n]
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return motion.NewSprings(60, motion.DefaultSpringOptions()), nil
}

// eagerHost fires every listener from its own goroutine as soon as it is
// registered, like a page that is already being scrolled.
type eagerHost struct {
	mu    sync.Mutex
	added int
}

func (h *eagerHost) AddOneShotListener(name events.Name, handler func()) (func(), error) {
	h.mu.Lock()
	h.added++
	h.mu.Unlock()

	var done atomic.Bool
	go func() {
		if done.CompareAndSwap(false, true) {
			handler()
		}
	}()
	return func() { done.Store(true) }, nil
}

func (h *eagerHost) Added() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.added
}
