// Package loader defers importing the animation runtime until the user first
// interacts, while handing out a facade that is safe to use from the start.
//
// Before the runtime arrives, and whenever an import fails, [Loader.Facade]
// returns [motion.Noop]: components render without motion instead of failing.
// A failed import is not terminal; the trigger listeners are re-armed and the
// next interaction, or the next [Loader.EnsureLoad], tries again.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/ambient/internal/events"
	"github.com/san-kum/ambient/internal/motion"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ImportFunc fetches the real runtime. It may block for as long as it likes.
type ImportFunc func(ctx context.Context) (motion.Module, error)

// EventSource is the host surface trigger listeners are registered on.
type EventSource interface {
	AddOneShotListener(name events.Name, handler func()) (cancel func(), err error)
}

// Config wires a Loader to its import function and the host's events.
type Config struct {
	Eager    bool
	Triggers []events.Name
	Import   ImportFunc
	Events   EventSource
	Logger   *zap.Logger
}

// Loader owns one deferred import of the animation runtime and the facade
// that stands in for it until the import succeeds.
type Loader struct {
	cfg    Config
	log    *zap.Logger
	noop   motion.Module
	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu       sync.Mutex
	status   Status
	module   motion.Module
	lastErr  error
	attempts int
	cancels  []func()
	closed   bool
	inflight bool
	waiters  []chan error
}

// New creates a loader owned by the caller. An eager loader starts importing
// immediately; otherwise one one-shot listener is registered per trigger.
func New(cfg Config) (*Loader, error) {
	if cfg.Import == nil {
		return nil, ErrNoImport
	}
	if len(cfg.Triggers) == 0 {
		cfg.Triggers = events.DefaultTriggers()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		cfg:    cfg,
		log:    log.Named("loader"),
		noop:   motion.Noop(),
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.Eager {
		l.EnsureLoad()
	} else {
		l.arm()
	}
	return l, nil
}

// Facade returns the real runtime once loaded and the no-op runtime otherwise.
func (l *Loader) Facade() motion.Module {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status == Loaded && l.module != nil {
		return l.module
	}
	return l.noop
}

func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Err returns the most recent import failure, nil after a successful load.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Attempts counts how many times the import function has been called.
func (l *Loader) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

// Armed reports how many trigger listeners are currently registered.
func (l *Loader) Armed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cancels)
}

// EnsureLoad starts the import unless one is running or has succeeded.
// Concurrent callers share the in-flight import. The returned channel yields
// the outcome exactly once and is then closed.
func (l *Loader) EnsureLoad() <-chan error {
	out := make(chan error, 1)

	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		out <- ErrClosed
		close(out)
		return out
	case l.status == Loaded:
		l.mu.Unlock()
		out <- nil
		close(out)
		return out
	}
	l.waiters = append(l.waiters, out)
	if l.inflight {
		l.mu.Unlock()
		return out
	}
	l.inflight = true
	l.status = Loading
	l.mu.Unlock()

	go l.settle(l.group.DoChan("import", l.load))
	return out
}

// settle waits for one attempt and reports it to every caller that joined
// it. Listeners are re-armed only once the attempt has left the group, so a
// trigger firing right away starts a fresh import.
func (l *Loader) settle(res <-chan singleflight.Result) {
	r := <-res

	l.mu.Lock()
	waiters := l.waiters
	l.waiters = nil
	l.inflight = false
	l.mu.Unlock()

	if r.Err != nil {
		l.arm()
	}
	for _, w := range waiters {
		w <- r.Err
		close(w)
	}
}

// Load is EnsureLoad for callers that want to wait, bounded by ctx.
func (l *Loader) Load(ctx context.Context) error {
	select {
	case err := <-l.EnsureLoad():
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loader) load() (any, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	// a load that finished between EnsureLoad and here must not repeat
	if l.status == Loaded {
		l.mu.Unlock()
		return nil, nil
	}
	l.status = Loading
	l.attempts++
	attempt := l.attempts
	l.mu.Unlock()

	l.log.Debug("importing animation runtime", zap.Int("attempt", attempt))
	start := time.Now()

	mod, err := l.callImport()
	if err == nil && mod == nil {
		err = ErrNilModule
	}
	if err != nil {
		lerr := &LoadError{Attempt: attempt, Err: err}
		l.mu.Lock()
		l.status = Failed
		l.lastErr = lerr
		l.mu.Unlock()

		l.log.Warn("animation runtime failed to load, keeping static facade",
			zap.Int("attempt", attempt),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return nil, lerr
	}

	l.mu.Lock()
	l.module = mod
	l.status = Loaded
	l.lastErr = nil
	l.mu.Unlock()
	l.disarm()

	l.log.Info("animation runtime loaded",
		zap.Int("attempt", attempt),
		zap.Duration("took", time.Since(start)))
	return nil, nil
}

func (l *Loader) callImport() (mod motion.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import panicked: %v", r)
		}
	}()
	return l.cfg.Import(l.ctx)
}

// arm registers the trigger listeners. Names the host cannot deliver are
// skipped.
func (l *Loader) arm() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || len(l.cancels) > 0 || l.status == Loaded || l.status == Loading {
		return
	}
	if l.cfg.Events == nil {
		l.log.Debug("no event source, waiting for explicit load")
		return
	}

	for _, name := range l.cfg.Triggers {
		cancel, err := l.cfg.Events.AddOneShotListener(name, l.onTrigger)
		if err != nil {
			l.log.Debug("trigger not registered", zap.String("event", string(name)), zap.Error(err))
			continue
		}
		l.cancels = append(l.cancels, cancel)
	}
	l.log.Debug("armed trigger listeners", zap.Int("count", len(l.cancels)))
}

func (l *Loader) disarm() {
	l.mu.Lock()
	cancels := l.cancels
	l.cancels = nil
	l.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (l *Loader) onTrigger() {
	l.disarm()
	l.EnsureLoad()
}

// Close removes any listeners and cancels the context given to imports.
// Calling it more than once is harmless.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.disarm()
	l.cancel()
}
