package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/core/core1_2"
)

// slot is the per-frame state cycled with frame % len(slots).
type slot struct {
	available     core1_0.Semaphore
	finished      core1_0.Semaphore
	inFlight      core1_0.Fence
	commandBuffer core1_0.CommandBuffer
	descriptorSet core1_0.DescriptorSet
}

func (r *Renderer) createCommandPool() error {
	var err error
	r.commandPool, _, err = r.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: &r.queueFamily,
		Flags:            core1_0.CommandPoolCreateResetBuffer,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}
	pool := r.commandPool
	r.resources.PushFunc("command pool", func() { pool.Destroy(nil) })

	return nil
}

func (r *Renderer) createDescriptorPool() error {
	var err error
	r.descriptorPool, _, err = r.device.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		Flags:   core1_2.DescriptorPoolCreateUpdateAfterBind,
		MaxSets: r.cfg.FramesInFlight,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: r.cfg.FramesInFlight,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create descriptor pool")
	}
	pool := r.descriptorPool
	r.resources.PushFunc("descriptor pool", func() { pool.Destroy(nil) })

	return nil
}

// createSlots allocates one command buffer and descriptor set per slot and
// creates the sync objects. Guards start signaled so the first wait on each
// slot returns immediately.
func (r *Renderer) createSlots() error {
	count := r.cfg.FramesInFlight

	commandBuffers, _, err := r.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return errors.Wrap(err, "allocate frame command buffers")
	}
	device := r.device
	r.resources.PushFunc("frame command buffers", func() { device.FreeCommandBuffers(commandBuffers) })

	setLayouts := make([]core1_0.DescriptorSetLayout, count)
	for i := range setLayouts {
		setLayouts[i] = r.descriptorSetLayout
	}
	descriptorSets, _, err := r.device.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: r.descriptorPool,
		SetLayouts:     setLayouts,
	})
	if err != nil {
		return errors.Wrap(err, "allocate frame descriptor sets")
	}

	r.slots = make([]slot, count)
	for i := range r.slots {
		s := &r.slots[i]
		s.commandBuffer = commandBuffers[i]
		s.descriptorSet = descriptorSets[i]

		s.available, _, err = r.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrapf(err, "create image available semaphore %d", i)
		}
		available := s.available
		r.resources.PushFunc("image available semaphore", func() { available.Destroy(nil) })

		s.finished, _, err = r.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrapf(err, "create render finished semaphore %d", i)
		}
		finished := s.finished
		r.resources.PushFunc("render finished semaphore", func() { finished.Destroy(nil) })

		s.inFlight, _, err = r.device.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return errors.Wrapf(err, "create in flight fence %d", i)
		}
		inFlight := s.inFlight
		r.resources.PushFunc("in flight fence", func() { inFlight.Destroy(nil) })
	}

	return nil
}
