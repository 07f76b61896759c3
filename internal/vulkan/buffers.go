package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/static-triangle/internal/release"
)

type deviceBuffer struct {
	name   string
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
	size   int
}

// createBuffer allocates a buffer with its own memory allocation and
// registers both on stack.
func (r *Renderer) createBuffer(stack *release.Stack, name string, size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (deviceBuffer, error) {
	result := deviceBuffer{name: name, size: size}

	buffer, _, err := r.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return result, errors.Wrapf(err, "create %s buffer", name)
	}
	stack.PushFunc(name+" buffer", func() { buffer.Destroy(nil) })
	result.buffer = buffer

	memRequirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := r.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		return result, errors.Wrapf(err, "%s buffer", name)
	}

	memory, _, err := r.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return result, errors.Wrapf(err, "allocate %s memory", name)
	}
	stack.PushFunc(name+" memory", func() { memory.Free(nil) })
	result.memory = memory

	_, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		return result, errors.Wrapf(err, "bind %s memory", name)
	}

	return result, nil
}

func (r *Renderer) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := r.physicalDevice.MemoryProperties()
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type matches filter %#x with properties %s", typeFilter, properties)
}

// mapBytes maps size bytes of a host-visible allocation and hands them to fn.
// The memory is unmapped before mapBytes returns.
func mapBytes(memory core1_0.DeviceMemory, size int, fn func(data []byte) error) error {
	memoryPtr, _, err := memory.Map(0, size, 0)
	if err != nil {
		return errors.Wrap(err, "map memory")
	}
	defer memory.Unmap()

	return fn(unsafe.Slice((*byte)(memoryPtr), size))
}
