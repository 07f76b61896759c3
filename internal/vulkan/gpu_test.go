package vulkan

import (
	"unsafe"

	"github.com/golang/mock/gomock"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/core/driver"
	"github.com/vkngwrapper/core/mocks"
)

// fakeGPU backs mocked buffers and allocations with host slices so that
// buffer copies and mapped writes behave like a unified-memory device.
type fakeGPU struct {
	ctrl     *gomock.Controller
	memories map[core1_0.DeviceMemory][]byte
	buffers  map[core1_0.Buffer][]byte
	copies   []core1_0.BufferCopy
}

func newFakeGPU(ctrl *gomock.Controller) *fakeGPU {
	return &fakeGPU{
		ctrl:     ctrl,
		memories: map[core1_0.DeviceMemory][]byte{},
		buffers:  map[core1_0.Buffer][]byte{},
	}
}

// expect wires buffer, memory and one-shot submission calls on device,
// physicalDevice and queue.
func (g *fakeGPU) expect(device *mocks.MockDevice, physicalDevice *mocks.MockPhysicalDevice, queue *mocks.MockQueue) {
	physicalDevice.EXPECT().MemoryProperties().Return(&core1_0.PhysicalDeviceMemoryProperties{
		MemoryTypes: []core1_0.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
		},
	}).AnyTimes()

	device.EXPECT().CreateBuffer(gomock.Nil(), gomock.Any()).DoAndReturn(
		func(callbacks *driver.AllocationCallbacks, o core1_0.BufferCreateInfo) (core1_0.Buffer, common.VkResult, error) {
			return g.newBuffer(o.Size), core1_0.VKSuccess, nil
		}).AnyTimes()

	device.EXPECT().AllocateMemory(gomock.Nil(), gomock.Any()).DoAndReturn(
		func(callbacks *driver.AllocationCallbacks, o core1_0.MemoryAllocateInfo) (core1_0.DeviceMemory, common.VkResult, error) {
			return g.newMemory(o.AllocationSize), core1_0.VKSuccess, nil
		}).AnyTimes()

	device.EXPECT().AllocateCommandBuffers(gomock.Any()).DoAndReturn(
		func(o core1_0.CommandBufferAllocateInfo) ([]core1_0.CommandBuffer, common.VkResult, error) {
			return []core1_0.CommandBuffer{g.newCommandBuffer()}, core1_0.VKSuccess, nil
		}).AnyTimes()
	device.EXPECT().FreeCommandBuffers(gomock.Any()).AnyTimes()

	device.EXPECT().CreateFence(gomock.Nil(), core1_0.FenceCreateInfo{}).DoAndReturn(
		func(callbacks *driver.AllocationCallbacks, o core1_0.FenceCreateInfo) (core1_0.Fence, common.VkResult, error) {
			fence := mocks.EasyMockFence(g.ctrl)
			fence.EXPECT().Destroy(gomock.Nil())
			return fence, core1_0.VKSuccess, nil
		}).AnyTimes()

	queue.EXPECT().Submit(gomock.Not(gomock.Nil()), gomock.Len(1)).Return(core1_0.VKSuccess, nil).AnyTimes()
	device.EXPECT().WaitForFences(true, common.NoTimeout, gomock.Len(1)).Return(core1_0.VKSuccess, nil).AnyTimes()
}

func (g *fakeGPU) newBuffer(size int) core1_0.Buffer {
	buffer := mocks.EasyMockBuffer(g.ctrl)
	buffer.EXPECT().MemoryRequirements().Return(&core1_0.MemoryRequirements{
		Size:           size,
		Alignment:      4,
		MemoryTypeBits: 0b11,
	}).AnyTimes()
	buffer.EXPECT().BindBufferMemory(gomock.Any(), 0).DoAndReturn(
		func(memory core1_0.DeviceMemory, offset int) (common.VkResult, error) {
			g.buffers[buffer] = g.memories[memory]
			return core1_0.VKSuccess, nil
		})
	buffer.EXPECT().Destroy(gomock.Nil()).AnyTimes()
	return buffer
}

func (g *fakeGPU) newMemory(size int) core1_0.DeviceMemory {
	backing := make([]byte, size)
	memory := mocks.EasyMockDeviceMemory(g.ctrl)
	memory.EXPECT().Map(0, gomock.Any(), core1_0.MemoryMapFlags(0)).DoAndReturn(
		func(offset, size int, flags core1_0.MemoryMapFlags) (unsafe.Pointer, common.VkResult, error) {
			return unsafe.Pointer(&backing[offset]), core1_0.VKSuccess, nil
		}).AnyTimes()
	memory.EXPECT().Unmap().AnyTimes()
	memory.EXPECT().Free(gomock.Nil()).AnyTimes()
	g.memories[memory] = backing
	return memory
}

func (g *fakeGPU) newCommandBuffer() core1_0.CommandBuffer {
	commandBuffer := mocks.EasyMockCommandBuffer(g.ctrl)
	commandBuffer.EXPECT().Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	}).Return(core1_0.VKSuccess, nil)
	commandBuffer.EXPECT().CmdCopyBuffer(gomock.Any(), gomock.Any(), gomock.Len(1)).DoAndReturn(
		func(src, dst core1_0.Buffer, regions []core1_0.BufferCopy) error {
			region := regions[0]
			g.copies = append(g.copies, region)
			copy(g.buffers[dst][region.DstOffset:region.DstOffset+region.Size], g.buffers[src][region.SrcOffset:region.SrcOffset+region.Size])
			return nil
		}).AnyTimes()
	commandBuffer.EXPECT().End().Return(core1_0.VKSuccess, nil)
	return commandBuffer
}
