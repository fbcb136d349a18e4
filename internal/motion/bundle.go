package motion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrFetch = errors.New("motion: runtime fetch failed")

// Bundle stands in for the separately shipped animation runtime. Import waits
// Delay (or until ctx ends) before handing out a fresh Springs, and the first
// FailFirst calls fail with ErrFetch.
type Bundle struct {
	Delay     time.Duration
	FailFirst int
	FPS       int
	Options   SpringOptions

	mu      sync.Mutex
	calls   int
	springs *Springs
}

func (b *Bundle) Import(ctx context.Context) (Module, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()

	if b.Delay > 0 {
		t := time.NewTimer(b.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if call <= b.FailFirst {
		return nil, fmt.Errorf("%w: attempt %d", ErrFetch, call)
	}

	s := NewSprings(b.FPS, b.Options)
	b.mu.Lock()
	b.springs = s
	b.mu.Unlock()
	return s, nil
}

func (b *Bundle) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Springs returns the runtime from the last successful import, or nil.
func (b *Bundle) Springs() *Springs {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.springs
}
