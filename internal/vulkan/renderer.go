// Package vulkan draws the configured mesh with a fixed pipeline through
// vkngwrapper. Renderer implements frame.Renderer.
package vulkan

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/static-triangle/internal/config"
	"github.com/vkngwrapper/static-triangle/internal/frame"
	"github.com/vkngwrapper/static-triangle/internal/release"
)

var _ frame.Renderer = (*Renderer)(nil)

type Renderer struct {
	cfg    config.Config
	logger *slog.Logger
	window *sdl.Window

	loader         core.Loader
	instance       core1_0.Instance
	debugMessenger ext_debug_utils.Messenger
	surface        khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	device         core1_0.Device
	queueFamily    int
	queue          core1_0.Queue

	swapchainExtension khr_swapchain.Extension
	swapchain          khr_swapchain.Swapchain
	swapchainImages    []core1_0.Image
	swapchainFormat    core1_0.Format
	swapchainExtent    core1_0.Extent2D
	imageViews         []core1_0.ImageView
	framebuffers       []core1_0.Framebuffer

	renderPass          core1_0.RenderPass
	descriptorSetLayout core1_0.DescriptorSetLayout
	pipelineLayout      core1_0.PipelineLayout
	pipeline            core1_0.Pipeline

	commandPool    core1_0.CommandPool
	descriptorPool core1_0.DescriptorPool
	slots          []slot

	vertexCount int
	positions   deviceBuffer
	colors      deviceBuffer
	transform   deviceBuffer

	// resources live as long as the device. swapchainResources are sized
	// by the surface and released on every rebuild.
	resources          release.Stack
	swapchainResources release.Stack
}

// New performs context setup and the one-shot upload. On failure everything
// created so far is released before returning.
func New(cfg config.Config, window *sdl.Window, logger *slog.Logger) (r *Renderer, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "renderer config")
	}

	r = &Renderer{
		cfg:         cfg,
		logger:      logger,
		window:      window,
		vertexCount: cfg.Geometry.VertexCount(),
	}
	defer func() {
		if err != nil {
			err = errors.CombineErrors(err, r.release())
			r = nil
		}
	}()

	err = r.createInstance()
	if err != nil {
		return r, err
	}

	err = r.setupDebugMessenger()
	if err != nil {
		return r, err
	}

	err = r.createSurface()
	if err != nil {
		return r, err
	}

	err = r.pickPhysicalDevice()
	if err != nil {
		return r, err
	}

	err = r.createLogicalDevice()
	if err != nil {
		return r, err
	}

	err = r.createCommandPool()
	if err != nil {
		return r, err
	}

	err = r.createDescriptorSetLayout()
	if err != nil {
		return r, err
	}

	err = r.createPipelineLayout()
	if err != nil {
		return r, err
	}

	err = r.createSwapchainResources()
	if err != nil {
		return r, err
	}

	err = r.createBuffers()
	if err != nil {
		return r, err
	}

	err = r.upload()
	if err != nil {
		return r, err
	}

	err = r.createDescriptorPool()
	if err != nil {
		return r, err
	}

	return r, r.createSlots()
}

// Close waits for the device to go idle, then destroys everything in reverse
// creation order.
func (r *Renderer) Close() error {
	var err error
	if r.device != nil {
		if _, waitErr := r.device.WaitIdle(); waitErr != nil {
			err = errors.Wrap(waitErr, "wait for device idle")
		}
	}

	return errors.CombineErrors(err, r.release())
}

func (r *Renderer) release() error {
	return errors.CombineErrors(r.swapchainResources.Release(), r.resources.Release())
}

// Extent is the current swapchain image size.
func (r *Renderer) Extent() core1_0.Extent2D {
	return r.swapchainExtent
}

// ImageCount is the number of swapchain images.
func (r *Renderer) ImageCount() int {
	return len(r.swapchainImages)
}
