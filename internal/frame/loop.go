// Package frame runs per-frame callbacks. A Loop is either ticked by a host
// that already has a frame clock (the terminal UI) or runs its own ticker.
package frame

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MaxDelta caps the frame delta after a stall so a paused host does not
// launch particles across the field on resume.
const MaxDelta = 3.0

type Loop struct {
	mu     sync.Mutex
	next   uint64
	subs   map[uint64]func(dt float64)
	frames uint64
}

func NewLoop() *Loop {
	return &Loop{subs: make(map[uint64]func(dt float64))}
}

// Subscribe registers fn for every subsequent Tick. cancel is idempotent.
func (l *Loop) Subscribe(fn func(dt float64)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	id := l.next
	l.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

// Tick runs every subscriber once, in subscription order. dt is measured
// in frames.
func (l *Loop) Tick(dt float64) {
	l.mu.Lock()
	l.frames++
	ids := make([]uint64, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(float64), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.subs[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(dt)
	}
}

func (l *Loop) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Run ticks at fps until ctx is done. The delta passed to subscribers is the
// elapsed wall time in frames, capped at MaxDelta.
func (l *Loop) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		return errors.New("frame: fps must be positive")
	}
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Tick(Delta(now.Sub(last), fps))
			last = now
		}
	}
}

// Delta converts elapsed wall time into frames at fps.
func Delta(elapsed time.Duration, fps int) float64 {
	dt := elapsed.Seconds() * float64(fps)
	if dt <= 0 {
		return 1
	}
	if dt > MaxDelta {
		return MaxDelta
	}
	return dt
}
