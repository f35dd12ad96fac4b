// Package bgremove wraps an external background-removal capability behind a
// lazily initialized handle.
package bgremove

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State of a Handle's initialization.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Remover strips the background from an encoded image and returns PNG bytes.
type Remover interface {
	Remove(ctx context.Context, img []byte) ([]byte, error)
}

// RemoverFunc adapts a function to Remover.
type RemoverFunc func(ctx context.Context, img []byte) ([]byte, error)

func (f RemoverFunc) Remove(ctx context.Context, img []byte) ([]byte, error) {
	return f(ctx, img)
}

// Initializer produces the Remover, e.g. by loading a model or probing a
// remote service. It runs at most once per Handle.
type Initializer func(ctx context.Context) (Remover, error)

// ErrUnavailable wraps the initialization error once a Handle has failed.
var ErrUnavailable = errors.New("background removal unavailable")

// Handle is started eagerly with Preload and awaited lazily on first use.
// A failed initialization is permanent for the life of the Handle.
type Handle struct {
	init Initializer

	mu      sync.Mutex
	state   State
	remover Remover
	err     error
	done    chan struct{}
}

func NewHandle(init Initializer) *Handle {
	return &Handle{init: init, done: make(chan struct{})}
}

// State returns the current initialization state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Preload starts initialization in the background if it has not started yet.
// ctx bounds the initialization itself, not the call.
func (h *Handle) Preload(ctx context.Context) {
	h.mu.Lock()
	if h.state != Uninitialized {
		h.mu.Unlock()
		return
	}
	h.state = Loading
	h.mu.Unlock()

	go h.run(ctx)
}

func (h *Handle) run(ctx context.Context) {
	r, err := h.initialize(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil && r == nil {
		err = errors.New("initializer returned no remover")
	}
	if err != nil {
		h.state = Failed
		h.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	} else {
		h.state = Ready
		h.remover = r
	}
	close(h.done)
}

// initialize calls the initializer, turning a panic into an error so that
// waiters are always released.
func (h *Handle) initialize(ctx context.Context) (r Remover, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("initializer panicked: %v", p)
		}
	}()
	return h.init(ctx)
}

// Await blocks until initialization finishes, starting it if needed.
func (h *Handle) Await(ctx context.Context) (Remover, error) {
	h.Preload(context.WithoutCancel(ctx))
	select {
	case <-h.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remover, h.err
}
