package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/static-triangle/internal/frame"
)

type swapchainSupport struct {
	Capabilities *khr_surface.Capabilities
	Formats      []khr_surface.Format
	PresentModes []khr_surface.PresentMode
}

func (r *Renderer) querySwapchainSupport(device core1_0.PhysicalDevice) (swapchainSupport, error) {
	var details swapchainSupport
	var err error

	details.Capabilities, _, err = r.surface.PhysicalDeviceSurfaceCapabilities(device)
	if err != nil {
		return details, errors.Wrap(err, "surface capabilities")
	}

	details.Formats, _, err = r.surface.PhysicalDeviceSurfaceFormats(device)
	if err != nil {
		return details, errors.Wrap(err, "surface formats")
	}

	details.PresentModes, _, err = r.surface.PhysicalDeviceSurfacePresentModes(device)
	if err != nil {
		return details, errors.Wrap(err, "surface present modes")
	}
	return details, nil
}

// chooseImageCount asks for one more image than the surface minimum, or
// minimum if that is larger, capped by the surface maximum when there is one.
func chooseImageCount(capabilities *khr_surface.Capabilities, minimum int) int {
	imageCount := capabilities.MinImageCount + 1
	if imageCount < minimum {
		imageCount = minimum
	}
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func chooseExtent(capabilities *khr_surface.Capabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}

// createSwapchainResources builds everything whose size follows the surface:
// the swapchain, its views, the render pass, the pipeline and framebuffers.
func (r *Renderer) createSwapchainResources() error {
	err := r.createSwapchain()
	if err != nil {
		return err
	}

	err = r.createImageViews()
	if err != nil {
		return err
	}

	err = r.createRenderPass()
	if err != nil {
		return err
	}

	err = r.createGraphicsPipeline()
	if err != nil {
		return err
	}

	return r.createFramebuffers()
}

func (r *Renderer) createSwapchain() error {
	support, err := r.querySwapchainSupport(r.physicalDevice)
	if err != nil {
		return err
	}
	if len(support.Formats) == 0 {
		return errors.New("surface reports no formats")
	}

	surfaceFormat := support.Formats[0]
	width, height := r.window.VulkanGetDrawableSize()
	extent := chooseExtent(support.Capabilities, int(width), int(height))
	imageCount := chooseImageCount(support.Capabilities, r.cfg.MinImageCount)

	swapchain, _, err := r.swapchainExtension.CreateSwapchain(r.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: r.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode: core1_0.SharingModeExclusive,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentModeFIFO,
		Clipped:        true,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	r.swapchainResources.PushFunc("swapchain", func() { swapchain.Destroy(nil) })

	r.swapchain = swapchain
	r.swapchainExtent = extent
	r.swapchainFormat = surfaceFormat.Format
	return nil
}

func (r *Renderer) createImageViews() error {
	images, _, err := r.swapchain.SwapchainImages()
	if err != nil {
		return errors.Wrap(err, "swapchain images")
	}
	r.swapchainImages = images
	r.imageViews = nil

	for i, image := range images {
		view, _, err := r.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   r.swapchainFormat,
			Components: core1_0.ComponentMapping{
				R: core1_0.ComponentSwizzleIdentity,
				G: core1_0.ComponentSwizzleIdentity,
				B: core1_0.ComponentSwizzleIdentity,
				A: core1_0.ComponentSwizzleIdentity,
			},
			SubresourceRange: colorSubresource,
		})
		if err != nil {
			return errors.Wrapf(err, "create image view %d", i)
		}
		r.swapchainResources.PushFunc("image view", func() { view.Destroy(nil) })
		r.imageViews = append(r.imageViews, view)
	}

	return nil
}

// Rebuild recreates the swapchain-sized resources after the surface
// reported out of date or suboptimal. A zero-sized drawable (minimized
// window) leaves the current swapchain in place and reports
// frame.ErrSurfaceEmpty.
func (r *Renderer) Rebuild() error {
	width, height := r.window.VulkanGetDrawableSize()
	if width == 0 || height == 0 {
		return errors.Wrapf(frame.ErrSurfaceEmpty, "drawable is %dx%d", width, height)
	}

	_, err := r.device.WaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	err = r.swapchainResources.Release()
	if err != nil {
		return err
	}

	err = r.createSwapchainResources()
	if err != nil {
		return err
	}

	r.logger.Info("swapchain rebuilt",
		"width", r.swapchainExtent.Width,
		"height", r.swapchainExtent.Height,
		"images", len(r.swapchainImages))
	return nil
}
