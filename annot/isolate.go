package annot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrIsolationActive is returned when a second isolation cycle is requested
// while one is already in flight. Callers are responsible for serializing
// export requests; the engine does not queue.
var ErrIsolationActive = errors.New("annot: isolation cycle already in flight")

// FrameWaiter yields control across rendering-frame boundaries so the
// pipeline can apply style changes before anything is measured or captured.
type FrameWaiter interface {
	Wait(ctx context.Context, frames int) error
}

// frameTicker waits real time at display-frame cadence.
type frameTicker struct {
	interval time.Duration
}

// NewFrameTicker returns the production FrameWaiter, ticking at ~60fps.
func NewFrameTicker() FrameWaiter {
	return frameTicker{interval: 16 * time.Millisecond}
}

func (t frameTicker) Wait(ctx context.Context, frames int) error {
	for i := 0; i < frames; i++ {
		timer := time.NewTimer(t.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Isolator temporarily replaces all active styling with the deterministic
// safe set around a capture action, and restores the original styling on
// every exit path. A failure to restore would leave the host permanently
// unstyled, so restoration is hung on defer and survives action errors and
// panics alike.
type Isolator struct {
	reg    *StyleRegistry
	frames FrameWaiter
	log    *slog.Logger
	busy   atomic.Bool
}

// IsolatorOption configures an Isolator.
type IsolatorOption func(*Isolator)

// WithFrameWaiter substitutes the frame-boundary source. Tests use a
// counting fake.
func WithFrameWaiter(w FrameWaiter) IsolatorOption {
	return func(i *Isolator) { i.frames = w }
}

// WithIsolatorLogger sets the logger for non-fatal restore-path noise.
func WithIsolatorLogger(l *slog.Logger) IsolatorOption {
	return func(i *Isolator) { i.log = l }
}

// NewIsolator creates an isolator over the given registry.
func NewIsolator(reg *StyleRegistry, opts ...IsolatorOption) *Isolator {
	iso := &Isolator{
		reg:    reg,
		frames: NewFrameTicker(),
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(iso)
	}
	return iso
}

// Isolate runs action with the safe style set active:
// snapshot every sheet, suppress them all, inject the safe sheet, settle
// two frame boundaries, run the action, then unconditionally remove the
// injection, restore the snapshot, and settle two more frames.
//
// Only one cycle may be in flight; concurrent calls fail with
// ErrIsolationActive. The wait points honor ctx, so an unresponsive
// backend is bounded by the caller's deadline rather than hanging forever.
func (i *Isolator) Isolate(ctx context.Context, action func(ctx context.Context) error) error {
	if !i.busy.CompareAndSwap(false, true) {
		return ErrIsolationActive
	}
	defer i.busy.Store(false)

	snap := i.reg.snapshotStates()
	i.reg.suppress()
	i.reg.Add(safeSheet())

	defer func() {
		i.reg.Remove(safeSheetID)
		i.reg.restoreStates(snap)
		// Restoration settles even when the caller's ctx is already
		// canceled; it must not be skippable.
		if err := i.frames.Wait(context.WithoutCancel(ctx), 2); err != nil {
			i.log.Warn("style restore settle interrupted", "error", err)
		}
	}()

	if err := i.frames.Wait(ctx, 2); err != nil {
		return fmt.Errorf("settle before capture: %w", err)
	}

	return action(ctx)
}
