// Package window owns the SDL2 window the renderer presents into and pumps
// its events.
package window

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
)

type Window struct {
	window *sdl.Window
	logger *slog.Logger
	closed bool
}

// New initializes SDL video and opens a fixed-size Vulkan-capable window.
func New(title string, width, height int, logger *slog.Logger) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{window: window, logger: logger}, nil
}

// SDL exposes the underlying window for surface creation.
func (w *Window) SDL() *sdl.Window {
	return w.window
}

// Poll drains every pending event without blocking. Once a close has been
// requested it keeps reporting true.
func (w *Window) Poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}

	return w.closed
}

// waitTimeout bounds Wait so the caller still notices cancellation.
const waitTimeout = 100 // milliseconds

// Wait blocks until an event arrives or waitTimeout passes, then drains the
// queue like Poll.
func (w *Window) Wait() bool {
	if event := sdl.WaitEventTimeout(waitTimeout); event != nil {
		w.handle(event)
	}
	return w.Poll()
}

func (w *Window) handle(event sdl.Event) {
	if closeRequested(event) {
		w.closed = true
	}
	if e, ok := event.(*sdl.WindowEvent); ok {
		w.logWindowEvent(e)
	}
}

func closeRequested(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return true
	case *sdl.WindowEvent:
		return e.Event == sdl.WINDOWEVENT_CLOSE
	}
	return false
}

func (w *Window) logWindowEvent(e *sdl.WindowEvent) {
	switch e.Event {
	case sdl.WINDOWEVENT_MINIMIZED:
		w.logger.Debug("window minimized")
	case sdl.WINDOWEVENT_RESTORED:
		w.logger.Debug("window restored")
	case sdl.WINDOWEVENT_SIZE_CHANGED:
		w.logger.Debug("window size changed", "width", e.Data1, "height", e.Data2)
	case sdl.WINDOWEVENT_CLOSE:
		w.logger.Info("window close requested")
	}
}

// Destroy closes the window and shuts SDL down.
func (w *Window) Destroy() error {
	err := w.window.Destroy()
	sdl.Quit()
	if err != nil {
		return errors.Wrap(err, "destroy window")
	}
	return nil
}
