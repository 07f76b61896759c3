package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/static-triangle/internal/frame"
)

var (
	// ErrNoSuitableDevice is returned when no physical device offers a
	// single queue family that can both draw and present to the surface.
	ErrNoSuitableDevice = errors.New("no suitable physical device")

	// ErrSwapchainStale marks acquire and present failures that are fixed by
	// rebuilding the swapchain.
	ErrSwapchainStale = frame.ErrSwapchainStale
)

func stale(op string, res common.VkResult) error {
	return errors.Mark(errors.Newf("%s: %s", op, res), ErrSwapchainStale)
}
