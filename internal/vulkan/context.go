package vulkan

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/core/core1_1"
	"github.com/vkngwrapper/core/core1_2"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	vkng_surface_sdl2 "github.com/vkngwrapper/integrations/sdl2"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

func (r *Renderer) createInstance() error {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.Wrap(err, "create loader")
	}
	r.loader = loader

	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    r.cfg.Title,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	// Add extensions
	sdlExtensions := r.window.VulkanGetInstanceExtensions()
	extensions, _, err := r.loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("createinstance: cannot initialize sdl: missing extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if r.cfg.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)

		// Add layers
		layers, _, err := r.loader.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}

		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Newf("createInstance: cannot add validation- layer %s not available- install LunarG Vulkan SDK", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		// Messages emitted during instance creation
		instanceOptions.Next = r.debugMessengerOptions()
	}

	r.instance, _, err = r.loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}
	instance := r.instance
	r.resources.PushFunc("instance", func() { instance.Destroy(nil) })

	return nil
}

func (r *Renderer) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning | ext_debug_utils.SeverityInfo,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    r.logDebug,
	}
}

func (r *Renderer) setupDebugMessenger() error {
	if !r.cfg.Validation {
		return nil
	}

	var err error
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(r.instance)
	r.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(r.instance, nil, r.debugMessengerOptions())
	if err != nil {
		return errors.Wrap(err, "create debug messenger")
	}
	messenger := r.debugMessenger
	r.resources.PushFunc("debug messenger", func() { messenger.Destroy(nil) })

	return nil
}

func (r *Renderer) createSurface() error {
	surfaceLoader := vkng_surface_sdl2.CreateExtensionFromInstance(r.instance)
	surface, _, err := surfaceLoader.CreateSurface(r.instance, r.window)
	if err != nil {
		return errors.Wrap(err, "create surface")
	}

	r.surface = surface
	r.resources.PushFunc("surface", func() { surface.Destroy(nil) })
	return nil
}

// deviceCandidate is a physical device that passed every hard requirement.
type deviceCandidate struct {
	device     core1_0.PhysicalDevice
	name       string
	driverType core1_0.PhysicalDeviceType
	family     int
	extensions []string
}

// deviceRank orders device types; lower is preferred.
var deviceRank = map[core1_0.PhysicalDeviceType]int{
	core1_0.PhysicalDeviceTypeDiscreteGPU:   0,
	core1_0.PhysicalDeviceTypeIntegratedGPU: 1,
	core1_0.PhysicalDeviceTypeVirtualGPU:    2,
	core1_0.PhysicalDeviceTypeCPU:           3,
	core1_0.PhysicalDeviceTypeOther:         4,
}

// chooseCandidate prefers discrete GPUs and otherwise keeps enumeration
// order.
func chooseCandidate(candidates []deviceCandidate) (deviceCandidate, error) {
	if len(candidates) == 0 {
		return deviceCandidate{}, ErrNoSuitableDevice
	}

	sorted := append([]deviceCandidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return deviceRank[sorted[i].driverType] < deviceRank[sorted[j].driverType]
	})
	return sorted[0], nil
}

func (r *Renderer) pickPhysicalDevice() error {
	physicalDevices, _, err := r.instance.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	var candidates []deviceCandidate
	for _, device := range physicalDevices {
		candidate, reason, err := r.inspectDevice(device)
		if err != nil {
			return err
		}
		if reason != "" {
			r.logger.Debug("skipping physical device", "device", candidate.name, "reason", reason)
			continue
		}
		candidates = append(candidates, candidate)
	}

	chosen, err := chooseCandidate(candidates)
	if err != nil {
		return errors.Wrapf(err, "none of %d devices has a graphics+present queue family, %s and descriptor indexing", len(physicalDevices), khr_swapchain.ExtensionName)
	}

	r.physicalDevice = chosen.device
	r.queueFamily = chosen.family
	r.logger.Info("selected physical device",
		"device", chosen.name,
		"type", chosen.driverType,
		"queueFamily", chosen.family,
		"extensions", chosen.extensions)
	return nil
}

// inspectDevice returns a non-empty reason when the device cannot be used.
func (r *Renderer) inspectDevice(device core1_0.PhysicalDevice) (deviceCandidate, string, error) {
	candidate := deviceCandidate{device: device}

	properties, err := device.Properties()
	if err != nil {
		return candidate, "", errors.Wrap(err, "physical device properties")
	}
	candidate.name = properties.DriverName
	candidate.driverType = properties.DriverType

	if !device.DeviceAPIVersion().IsAtLeast(common.Vulkan1_2) {
		return candidate, "vulkan 1.2 not supported", nil
	}

	extensions, _, err := device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return candidate, "", errors.Wrap(err, "enumerate device extensions")
	}
	for _, extension := range deviceExtensions {
		if _, hasExtension := extensions[extension]; !hasExtension {
			return candidate, "missing " + extension, nil
		}
	}
	candidate.extensions = append(candidate.extensions, deviceExtensions...)

	// Makes this compatible with vulkan portability, necessary to run on mac
	if _, supported := extensions[khr_portability_subset.ExtensionName]; supported {
		candidate.extensions = append(candidate.extensions, khr_portability_subset.ExtensionName)
	}

	if !supportsDescriptorIndexing(device) {
		return candidate, "descriptor indexing not supported", nil
	}

	family, found, err := r.findCombinedFamily(device)
	if err != nil {
		return candidate, "", err
	}
	if !found {
		return candidate, "no queue family supports both graphics and present", nil
	}
	candidate.family = family

	support, err := r.querySwapchainSupport(device)
	if err != nil {
		return candidate, "", err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return candidate, "surface has no formats or present modes", nil
	}

	return candidate, "", nil
}

func supportsDescriptorIndexing(device core1_0.PhysicalDevice) bool {
	instanceScoped := core1_1.PromoteInstanceScopedPhysicalDevice(device)
	if instanceScoped == nil {
		return false
	}

	indexing := core1_2.PhysicalDeviceDescriptorIndexingFeatures{}
	features := core1_1.PhysicalDeviceFeatures2{
		NextOutData: common.NextOutData{Next: &indexing},
	}
	if err := instanceScoped.Features2(&features); err != nil {
		return false
	}

	return indexing.DescriptorBindingUniformBufferUpdateAfterBind && indexing.DescriptorBindingPartiallyBound
}

// findCombinedFamily looks for one family that can both draw and present.
// Separate graphics and present families are not supported.
func (r *Renderer) findCombinedFamily(device core1_0.PhysicalDevice) (int, bool, error) {
	for queueFamilyIdx, queueFamily := range device.QueueFamilyProperties() {
		if (queueFamily.QueueFlags & core1_0.QueueGraphics) == 0 {
			continue
		}

		supported, _, err := r.surface.PhysicalDeviceSurfaceSupport(device, queueFamilyIdx)
		if err != nil {
			return 0, false, errors.Wrap(err, "query surface support")
		}
		if supported {
			return queueFamilyIdx, true, nil
		}
	}

	return 0, false, nil
}

func (r *Renderer) createLogicalDevice() error {
	var layerNames []string
	if r.cfg.Validation {
		layerNames = append(layerNames, validationLayers...)
	}

	candidate, _, err := r.inspectDevice(r.physicalDevice)
	if err != nil {
		return err
	}

	r.device, _, err = r.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: []core1_0.DeviceQueueCreateInfo{
			{
				QueueFamilyIndex: r.queueFamily,
				QueuePriorities:  []float32{1.0},
			},
		},
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: candidate.extensions,
		EnabledLayerNames:     layerNames,
		NextOptions: common.NextOptions{
			Next: core1_2.PhysicalDeviceDescriptorIndexingFeatures{
				DescriptorBindingUniformBufferUpdateAfterBind: true,
				DescriptorBindingPartiallyBound:               true,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}
	device := r.device
	r.resources.PushFunc("device", func() { device.Destroy(nil) })

	r.queue = r.device.GetQueue(r.queueFamily, 0)

	swapchainExtension := khr_swapchain.CreateExtensionFromDevice(r.device)
	if swapchainExtension == nil {
		return errors.Newf("%s is not active on the logical device", khr_swapchain.ExtensionName)
	}
	r.swapchainExtension = swapchainExtension

	return nil
}

func (r *Renderer) logDebug(msgType ext_debug_utils.MessageTypes, severity ext_debug_utils.MessageSeverities, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	logger := r.logger.With("type", msgType, "id", data.MessageIDName)
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		logger.Error(data.Message)
	case severity&ext_debug_utils.SeverityWarning != 0:
		logger.Warn(data.Message)
	case severity&ext_debug_utils.SeverityInfo != 0:
		logger.Info(data.Message)
	default:
		logger.Debug(data.Message)
	}
	return false
}
