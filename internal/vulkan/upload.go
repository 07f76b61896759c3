package vulkan

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/static-triangle/internal/camera"
	"github.com/vkngwrapper/static-triangle/internal/geometry"
	"github.com/vkngwrapper/static-triangle/internal/release"
	"github.com/vkngwrapper/static-triangle/internal/staging"
)

// createBuffers allocates the device-local destinations of the upload.
// TransferSrc is set so the contents can be read back for verification.
func (r *Renderer) createBuffers() error {
	layout := staging.NewLayout(r.vertexCount)
	var err error

	r.positions, err = r.createBuffer(&r.resources, "positions", layout.PositionsSize(),
		core1_0.BufferUsageVertexBuffer|core1_0.BufferUsageTransferDst|core1_0.BufferUsageTransferSrc,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}

	r.colors, err = r.createBuffer(&r.resources, "colors", layout.ColorsSize(),
		core1_0.BufferUsageVertexBuffer|core1_0.BufferUsageTransferDst|core1_0.BufferUsageTransferSrc,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}

	r.transform, err = r.createBuffer(&r.resources, "transform", staging.TransformSize,
		core1_0.BufferUsageUniformBuffer|core1_0.BufferUsageTransferDst|core1_0.BufferUsageTransferSrc,
		core1_0.MemoryPropertyDeviceLocal)
	return err
}

// destinations lines up with staging.Layout.Regions.
func (r *Renderer) destinations() []deviceBuffer {
	return []deviceBuffer{r.positions, r.colors, r.transform}
}

// upload writes the packed record into a host-visible staging buffer, copies
// each region into its device-local buffer and blocks until the copy is
// done. The staging buffer does not outlive the call.
func (r *Renderer) upload() (err error) {
	layout := staging.NewLayout(r.vertexCount)
	transform := r.cfg.Camera.Transform(r.cfg.Aspect())

	var scratch release.Stack
	defer func() {
		err = errors.CombineErrors(err, scratch.Release())
	}()

	stagingBuffer, err := r.createBuffer(&scratch, "staging", r.cfg.StagingSize,
		core1_0.BufferUsageTransferSrc,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return err
	}

	err = mapBytes(stagingBuffer.memory, layout.Size(), func(data []byte) error {
		return layout.Encode(data, r.cfg.Geometry, transform)
	})
	if err != nil {
		return errors.Wrap(err, "write staging record")
	}

	destinations := r.destinations()
	err = r.submitOnce("upload", func(commandBuffer core1_0.CommandBuffer) error {
		for i, region := range layout.Regions() {
			err := commandBuffer.CmdCopyBuffer(stagingBuffer.buffer, destinations[i].buffer, []core1_0.BufferCopy{
				{
					SrcOffset: region.SrcOffset,
					DstOffset: 0,
					Size:      region.Size,
				},
			})
			if err != nil {
				return errors.Wrapf(err, "copy %s", region.Name)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug("uploaded staging record", "bytes", layout.Size(), "vertices", r.vertexCount)

	if !r.cfg.VerifyUpload {
		return nil
	}

	uploaded, err := r.readBack(layout)
	if err != nil {
		return err
	}
	err = uploaded.compare(r.cfg.Geometry, transform)
	if err != nil {
		return errors.Wrap(err, "verify upload")
	}
	r.logger.Info("upload verified", "positions", uploaded.Positions, "colors", uploaded.Colors)

	return nil
}

// submitOnce records a single-use command buffer with fn, submits it with a
// dedicated fence and waits for that fence. The command buffer and fence are
// released before returning.
func (r *Renderer) submitOnce(name string, fn func(commandBuffer core1_0.CommandBuffer) error) (err error) {
	var scratch release.Stack
	defer func() {
		err = errors.CombineErrors(err, scratch.Release())
	}()

	commandBuffers, _, err := r.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return errors.Wrapf(err, "allocate %s command buffer", name)
	}
	scratch.PushFunc(name+" command buffer", func() { r.device.FreeCommandBuffers(commandBuffers) })
	commandBuffer := commandBuffers[0]

	_, err = commandBuffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Wrapf(err, "begin %s command buffer", name)
	}

	err = fn(commandBuffer)
	if err != nil {
		return err
	}

	_, err = commandBuffer.End()
	if err != nil {
		return errors.Wrapf(err, "end %s command buffer", name)
	}

	fence, _, err := r.device.CreateFence(nil, core1_0.FenceCreateInfo{})
	if err != nil {
		return errors.Wrapf(err, "create %s fence", name)
	}
	scratch.PushFunc(name+" fence", func() { fence.Destroy(nil) })

	_, err = r.queue.Submit(fence, []core1_0.SubmitInfo{
		{
			CommandBuffers: []core1_0.CommandBuffer{commandBuffer},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "submit %s", name)
	}

	_, err = r.device.WaitForFences(true, common.NoTimeout, []core1_0.Fence{fence})
	if err != nil {
		return errors.Wrapf(err, "wait for %s", name)
	}

	return nil
}

// uploaded is what the device-local buffers hold after the transfer.
type uploaded struct {
	Positions []mgl32.Vec2
	Colors    []mgl32.Vec3
	Transform camera.Transform
}

// readBack copies every destination buffer into a host-visible buffer, laid
// out like the staging record, and decodes it.
func (r *Renderer) readBack(layout staging.Layout) (result uploaded, err error) {
	var scratch release.Stack
	defer func() {
		err = errors.CombineErrors(err, scratch.Release())
	}()

	readback, err := r.createBuffer(&scratch, "readback", layout.Size(),
		core1_0.BufferUsageTransferDst,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return result, err
	}

	regions := layout.Regions()
	destinations := r.destinations()
	err = r.submitOnce("readback", func(commandBuffer core1_0.CommandBuffer) error {
		for i, region := range regions {
			err := commandBuffer.CmdCopyBuffer(destinations[i].buffer, readback.buffer, []core1_0.BufferCopy{
				{
					SrcOffset: 0,
					DstOffset: region.SrcOffset,
					Size:      region.Size,
				},
			})
			if err != nil {
				return errors.Wrapf(err, "read back %s", region.Name)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	err = mapBytes(readback.memory, layout.Size(), func(data []byte) error {
		var err error
		result.Positions, err = staging.DecodePositions(data[regions[0].SrcOffset : regions[0].SrcOffset+regions[0].Size])
		if err != nil {
			return err
		}
		result.Colors, err = staging.DecodeColors(data[regions[1].SrcOffset : regions[1].SrcOffset+regions[1].Size])
		if err != nil {
			return err
		}
		result.Transform, err = staging.DecodeTransform(data[regions[2].SrcOffset : regions[2].SrcOffset+regions[2].Size])
		return err
	})
	return result, err
}

// compare requires every float to match bit for bit.
func (u uploaded) compare(mesh geometry.Mesh, transform camera.Transform) error {
	if len(u.Positions) != len(mesh.Positions) || len(u.Colors) != len(mesh.Colors) {
		return errors.Newf("read back %d positions and %d colors, uploaded %d and %d",
			len(u.Positions), len(u.Colors), len(mesh.Positions), len(mesh.Colors))
	}

	for i := range mesh.Positions {
		if !sameBits(u.Positions[i][:], mesh.Positions[i][:]) {
			return errors.Newf("position %d: read back %v, uploaded %v", i, u.Positions[i], mesh.Positions[i])
		}
	}
	for i := range mesh.Colors {
		if !sameBits(u.Colors[i][:], mesh.Colors[i][:]) {
			return errors.Newf("color %d: read back %v, uploaded %v", i, u.Colors[i], mesh.Colors[i])
		}
	}
	if !sameBits(u.Transform.Proj[:], transform.Proj[:]) {
		return errors.New("projection matrix differs")
	}
	if !sameBits(u.Transform.View[:], transform.View[:]) {
		return errors.New("view matrix differs")
	}

	return nil
}

func sameBits(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}
