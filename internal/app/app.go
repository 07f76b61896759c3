// Package app wires the window, the Vulkan renderer and the frame loop
// together for one run of the program.
package app

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/static-triangle/internal/config"
	"github.com/vkngwrapper/static-triangle/internal/frame"
	"github.com/vkngwrapper/static-triangle/internal/release"
	"github.com/vkngwrapper/static-triangle/internal/vulkan"
	"github.com/vkngwrapper/static-triangle/internal/window"
)

type App struct {
	cfg    config.Config
	logger *slog.Logger

	resources release.Stack
}

func New(cfg config.Config, logger *slog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run opens the window, sets up the renderer and draws until the window is
// closed or ctx is done. The renderer is torn down before the window.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		err = errors.CombineErrors(err, a.cleanup())
	}()

	if err := a.cfg.Validate(); err != nil {
		return errors.Wrap(err, "config")
	}

	win, err := window.New(a.cfg.Title, a.cfg.Width, a.cfg.Height, a.logger)
	if err != nil {
		return err
	}
	a.resources.Push("window", win.Destroy)

	renderer, err := vulkan.New(a.cfg, win.SDL(), a.logger)
	if err != nil {
		return errors.Wrap(err, "set up renderer")
	}
	a.resources.Push("renderer", renderer.Close)

	extent := renderer.Extent()
	a.logger.Info("renderer ready",
		"width", extent.Width,
		"height", extent.Height,
		"images", renderer.ImageCount(),
		"slots", a.cfg.FramesInFlight)

	loop := frame.NewLoop(renderer, win, a.cfg.FramesInFlight, a.cfg.LogEvery, a.logger)
	err = loop.Run(ctx)
	a.logger.Info("frame loop stopped", "frames", loop.Frames())

	return err
}

func (a *App) cleanup() error {
	return a.resources.Release()
}
