package vulkan

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/static-triangle/internal/staging"
)

func (r *Renderer) WaitSlot(slot int) error {
	_, err := r.device.WaitForFences(true, common.NoTimeout, []core1_0.Fence{r.slots[slot].inFlight})
	return err
}

func (r *Renderer) Acquire(slot int) (int, error) {
	imageIndex, res, err := r.swapchain.AcquireNextImage(common.NoTimeout, r.slots[slot].available, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, stale("acquire next image", res)
	} else if err != nil {
		return 0, err
	}

	return imageIndex, nil
}

func (r *Renderer) ResetSlot(slot int) error {
	_, err := r.device.ResetFences([]core1_0.Fence{r.slots[slot].inFlight})
	return err
}

// transformWrite points the slot's descriptor set at the whole transform
// buffer. It depends only on the slot, so writing it every frame is
// idempotent.
func (r *Renderer) transformWrite(slot int) core1_0.WriteDescriptorSet {
	return core1_0.WriteDescriptorSet{
		DstSet:          r.slots[slot].descriptorSet,
		DstBinding:      0,
		DstArrayElement: 0,

		DescriptorType: core1_0.DescriptorTypeUniformBuffer,

		BufferInfo: []core1_0.DescriptorBufferInfo{
			{
				Buffer: r.transform.buffer,
				Offset: 0,
				Range:  staging.TransformSize,
			},
		},
	}
}

func imageBarrier(image core1_0.Image, oldLayout, newLayout core1_0.ImageLayout, srcAccess, dstAccess core1_0.AccessFlags) []core1_0.ImageMemoryBarrier {
	return []core1_0.ImageMemoryBarrier{
		{
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               image,
			SubresourceRange:    colorSubresource,
		},
	}
}

// Record rewrites the slot's command buffer to clear and draw into the
// acquired image and leave it ready to present.
func (r *Renderer) Record(slot, image int) error {
	commandBuffer := r.slots[slot].commandBuffer

	_, err := commandBuffer.Reset(0)
	if err != nil {
		return errors.Wrap(err, "reset command buffer")
	}

	_, err = commandBuffer.Begin(core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	err = commandBuffer.CmdPipelineBarrier(
		core1_0.PipelineStageTopOfPipe,
		core1_0.PipelineStageColorAttachmentOutput,
		0, nil, nil,
		imageBarrier(r.swapchainImages[image],
			core1_0.ImageLayoutUndefined, core1_0.ImageLayoutColorAttachmentOptimal,
			0, core1_0.AccessColorAttachmentWrite),
	)
	if err != nil {
		return errors.Wrap(err, "transition to color attachment")
	}

	err = commandBuffer.CmdBeginRenderPass(core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
		RenderPass:  r.renderPass,
		Framebuffer: r.framebuffers[image],
		RenderArea: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: r.swapchainExtent,
		},
		ClearValues: []core1_0.ClearValue{
			core1_0.ClearValueFloat(r.cfg.ClearColor),
		},
	})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	err = r.device.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{r.transformWrite(slot)}, nil)
	if err != nil {
		return errors.Wrap(err, "update transform descriptor")
	}

	commandBuffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, r.pipeline)
	commandBuffer.CmdBindVertexBuffers([]core1_0.Buffer{r.positions.buffer, r.colors.buffer}, []int{0, 0})
	commandBuffer.CmdBindDescriptorSets(core1_0.PipelineBindPointGraphics, r.pipelineLayout, []core1_0.DescriptorSet{
		r.slots[slot].descriptorSet,
	}, nil)
	commandBuffer.CmdDraw(r.vertexCount, 1, 0, 0)
	commandBuffer.CmdEndRenderPass()

	err = commandBuffer.CmdPipelineBarrier(
		core1_0.PipelineStageColorAttachmentOutput,
		core1_0.PipelineStageBottomOfPipe,
		0, nil, nil,
		imageBarrier(r.swapchainImages[image],
			core1_0.ImageLayoutColorAttachmentOptimal, khr_swapchain.ImageLayoutPresentSrc,
			core1_0.AccessColorAttachmentWrite, 0),
	)
	if err != nil {
		return errors.Wrap(err, "transition to present")
	}

	_, err = commandBuffer.End()
	if err != nil {
		return errors.Wrap(err, "end command buffer")
	}

	return nil
}

func (r *Renderer) Submit(slot int) error {
	s := r.slots[slot]
	_, err := r.queue.Submit(s.inFlight, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{s.available},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{s.commandBuffer},
			SignalSemaphores: []core1_0.Semaphore{s.finished},
		},
	})
	return err
}

func (r *Renderer) Present(slot, image int) error {
	res, err := r.swapchainExtension.QueuePresent(r.queue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{r.slots[slot].finished},
		Swapchains:     []khr_swapchain.Swapchain{r.swapchain},
		ImageIndices:   []int{image},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return stale("present", res)
	} else if err != nil {
		return err
	}

	return nil
}

// WaitAll blocks until every slot's submitted work has finished. Slots in
// skip are not waited on.
func (r *Renderer) WaitAll(skip ...int) error {
	fences := make([]core1_0.Fence, 0, len(r.slots))
	for i, s := range r.slots {
		if slices.Contains(skip, i) {
			continue
		}
		fences = append(fences, s.inFlight)
	}
	if len(fences) == 0 {
		return nil
	}

	_, err := r.device.WaitForFences(true, common.NoTimeout, fences)
	return err
}
