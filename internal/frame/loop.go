// Package frame drives the per-slot acquire, record, submit and present cycle
// against an abstract Renderer.
package frame

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
)

// ErrSwapchainStale is returned by Acquire or Present when the presentation
// target no longer matches the swapchain. The loop rebuilds and carries on.
var ErrSwapchainStale = errors.New("swapchain is out of date")

// ErrSurfaceEmpty is returned by Rebuild while the presentation target has
// no area, such as a minimized window. The loop waits for window events
// before trying again.
var ErrSurfaceEmpty = errors.New("presentation surface is empty")

// Renderer is the GPU side of a frame. All methods are called from the loop
// goroutine only.
type Renderer interface {
	// WaitSlot blocks until the slot's previous submission has completed.
	WaitSlot(slot int) error
	// Acquire requests the next presentable image, signalling the slot's
	// availability semaphore when it is ready.
	Acquire(slot int) (image int, err error)
	// ResetSlot unsignals the slot's in-flight guard.
	ResetSlot(slot int) error
	Record(slot, image int) error
	Submit(slot int) error
	Present(slot, image int) error
	// WaitAll blocks until the in-flight guard of every slot not listed in
	// skip is signaled. Skipped slots were reset without a submission that
	// would signal them again.
	WaitAll(skip ...int) error
	// Rebuild recreates the swapchain and everything sized by it.
	Rebuild() error
}

// Events is the window event pump.
type Events interface {
	// Poll drains pending events without blocking and reports whether a
	// close was requested.
	Poll() bool
	// Wait blocks until at least one event arrives or a short timeout
	// passes, then behaves like Poll.
	Wait() bool
}

type Loop struct {
	Renderer Renderer
	Events   Events
	Slots    int
	// LogEvery is the number of frames between progress lines. Zero
	// disables them.
	LogEvery int
	Logger   *slog.Logger

	states []State
	frames int
	// unsubmitted is the slot whose guard was reset but never handed to a
	// queue submission, or -1.
	unsubmitted int
}

func NewLoop(renderer Renderer, events Events, slots int, logEvery int, logger *slog.Logger) *Loop {
	return &Loop{
		Renderer: renderer,
		Events:   events,
		Slots:    slots,
		LogEvery: logEvery,
		Logger:   logger,
	}
}

// Frames is the number of frames presented so far.
func (l *Loop) Frames() int {
	return l.frames
}

// State reports where the given slot currently is.
func (l *Loop) State(slot int) State {
	if slot < 0 || slot >= len(l.states) {
		return Idle
	}
	return l.states[slot]
}

// Run cycles frames until the window asks to close or ctx is done. Whatever
// way it returns, every in-flight slot has been waited on first.
func (l *Loop) Run(ctx context.Context) (err error) {
	if l.Slots < 1 {
		return errors.Newf("frame loop needs at least one slot, got %d", l.Slots)
	}
	if l.Logger == nil {
		l.Logger = slog.Default()
	}
	l.states = make([]State, l.Slots)
	l.unsubmitted = -1

	defer func() {
		var skip []int
		if l.unsubmitted >= 0 {
			skip = append(skip, l.unsubmitted)
		}
		if waitErr := l.Renderer.WaitAll(skip...); waitErr != nil {
			err = errors.CombineErrors(err, errors.Wrap(waitErr, "wait for in-flight frames"))
		}
	}()

	start := hrtime.Now()
	for {
		if ctx.Err() != nil {
			l.Logger.Info("frame loop cancelled", "frames", l.frames)
			return nil
		}
		if l.Events.Poll() {
			l.Logger.Info("close requested", "frames", l.frames, "elapsed", hrtime.Since(start))
			return nil
		}

		presented, err := l.step(l.frames % l.Slots)
		if err != nil {
			return err
		}
		if !presented {
			continue
		}

		l.frames++
		if l.LogEvery > 0 && l.frames%l.LogEvery == 0 {
			l.Logger.Info("frame", "count", l.frames, "elapsed", hrtime.Since(start))
		}
	}
}

// step runs one slot through its cycle. It reports false when the swapchain
// was rebuilt before anything was submitted, so the frame is retried.
func (l *Loop) step(slot int) (bool, error) {
	l.states[slot] = Acquiring
	if err := l.Renderer.WaitSlot(slot); err != nil {
		return false, errors.Wrapf(err, "wait for slot %d", slot)
	}

	image, err := l.Renderer.Acquire(slot)
	if errors.Is(err, ErrSwapchainStale) {
		l.states[slot] = Idle
		return false, l.rebuild("acquire")
	} else if err != nil {
		return false, errors.Wrapf(err, "acquire image for slot %d", slot)
	}

	// The guard is only reset once work is certain to be submitted for it,
	// otherwise the next WaitSlot on this slot would never return.
	l.unsubmitted = slot
	if err := l.Renderer.ResetSlot(slot); err != nil {
		return false, errors.Wrapf(err, "reset slot %d", slot)
	}

	l.states[slot] = Recording
	if err := l.Renderer.Record(slot, image); err != nil {
		return false, errors.Wrapf(err, "record slot %d image %d", slot, image)
	}

	l.states[slot] = Submitted
	if err := l.Renderer.Submit(slot); err != nil {
		return false, errors.Wrapf(err, "submit slot %d", slot)
	}
	l.unsubmitted = -1

	l.states[slot] = Presenting
	err = l.Renderer.Present(slot, image)
	l.states[slot] = Idle
	if errors.Is(err, ErrSwapchainStale) {
		return true, l.rebuild("present")
	} else if err != nil {
		return false, errors.Wrapf(err, "present slot %d image %d", slot, image)
	}

	return true, nil
}

func (l *Loop) rebuild(during string) error {
	l.Logger.Info("swapchain out of date, rebuilding", "during", during, "frames", l.frames)
	err := l.Renderer.Rebuild()
	if errors.Is(err, ErrSurfaceEmpty) {
		l.Logger.Debug("surface empty, waiting for window events")
		// a close seen here is reported again by the next Poll
		l.Events.Wait()
		return nil
	} else if err != nil {
		return errors.Wrap(err, "rebuild swapchain")
	}
	return nil
}
