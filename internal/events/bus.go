// Package events is an in-process host event surface. Hosts translate their
// raw input (terminal keys, mouse, WebSocket messages) into named events and
// Emit them; interested parties register one-shot listeners.
package events

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

type Name string

const (
	PointerDown Name = "pointerdown"
	PointerMove Name = "pointermove"
	KeyDown     Name = "keydown"
	Scroll      Name = "scroll"
	TouchStart  Name = "touchstart"
)

// DefaultTriggers are the engagement signals that count as first interaction.
func DefaultTriggers() []Name {
	return []Name{PointerDown, PointerMove, KeyDown, Scroll, TouchStart}
}

// ParseName accepts any of the default trigger names.
func ParseName(s string) (Name, error) {
	for _, n := range DefaultTriggers() {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedEvent, s)
}

var ErrUnsupportedEvent = errors.New("events: unsupported event")

type Bus struct {
	mu        sync.Mutex
	supported map[Name]bool
	next      uint64
	listeners map[Name]map[uint64]func()
}

// NewBus creates a bus. With no arguments every name is supported; otherwise
// only the given names accept listeners.
func NewBus(supported ...Name) *Bus {
	b := &Bus{listeners: make(map[Name]map[uint64]func())}
	if len(supported) > 0 {
		b.supported = make(map[Name]bool, len(supported))
		for _, n := range supported {
			b.supported[n] = true
		}
	}
	return b
}

// AddOneShotListener registers handler to run on the next Emit of name. The
// listener is removed before it runs. cancel is safe to call at any time.
func (b *Bus) AddOneShotListener(name Name, handler func()) (cancel func(), err error) {
	if handler == nil {
		return nil, errors.New("events: nil handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.supported != nil && !b.supported[name] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, name)
	}

	b.next++
	id := b.next
	if b.listeners[name] == nil {
		b.listeners[name] = make(map[uint64]func())
	}
	b.listeners[name][id] = handler

	return func() {
		b.mu.Lock()
		delete(b.listeners[name], id)
		b.mu.Unlock()
	}, nil
}

// Emit runs and removes every listener registered for name, in registration
// order. It returns how many ran.
func (b *Bus) Emit(name Name) int {
	b.mu.Lock()
	registered := b.listeners[name]
	delete(b.listeners, name)
	b.mu.Unlock()

	ids := make([]uint64, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		registered[id]()
	}
	return len(ids)
}

// Listeners reports how many listeners wait on name.
func (b *Bus) Listeners(name Name) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[name])
}
