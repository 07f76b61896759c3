package vulkan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/core/mocks"
	"github.com/vkngwrapper/static-triangle/internal/config"
	"github.com/vkngwrapper/static-triangle/internal/logging"
	"github.com/vkngwrapper/static-triangle/internal/staging"
)

func newUploadRenderer(t *testing.T) (*Renderer, *fakeGPU) {
	ctrl := gomock.NewController(t)

	device := mocks.NewMockDevice(ctrl)
	physicalDevice := mocks.NewMockPhysicalDevice(ctrl)
	queue := mocks.EasyMockQueue(ctrl)

	gpu := newFakeGPU(ctrl)
	gpu.expect(device, physicalDevice, queue)

	cfg := config.Default()
	r := &Renderer{
		cfg:            cfg,
		logger:         logging.Nop(),
		device:         device,
		physicalDevice: physicalDevice,
		queue:          queue,
		commandPool:    mocks.NewMockCommandPool(ctrl),
		vertexCount:    cfg.Geometry.VertexCount(),
	}
	t.Cleanup(func() {
		require.NoError(t, r.resources.Release())
	})

	return r, gpu
}

func TestUploadCopiesEachRegion(t *testing.T) {
	r, gpu := newUploadRenderer(t)
	r.cfg.VerifyUpload = false

	require.NoError(t, r.createBuffers())
	require.NoError(t, r.upload())

	layout := staging.NewLayout(3)
	require.Equal(t, []core1_0.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: 24},
		{SrcOffset: 24, DstOffset: 0, Size: 36},
		{SrcOffset: 60, DstOffset: 0, Size: staging.TransformSize},
	}, gpu.copies)

	total := 0
	for i, region := range layout.Regions() {
		require.Equal(t, r.destinations()[i].size, region.Size, region.Name)
		total += region.Size
	}
	require.Equal(t, layout.Size(), total)
}

func TestUploadReadBack(t *testing.T) {
	r, _ := newUploadRenderer(t)

	require.NoError(t, r.createBuffers())
	require.NoError(t, r.upload())

	uploaded, err := r.readBack(staging.NewLayout(3))
	require.NoError(t, err)

	require.Equal(t, []mgl32.Vec2{{0, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}, uploaded.Positions)
	require.Equal(t, []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, uploaded.Colors)
	require.Equal(t, r.cfg.Camera.Transform(r.cfg.Aspect()), uploaded.Transform)
}

func TestUploadedCompareDetectsMismatch(t *testing.T) {
	r, _ := newUploadRenderer(t)
	transform := r.cfg.Camera.Transform(r.cfg.Aspect())

	good := uploaded{
		Positions: append([]mgl32.Vec2(nil), r.cfg.Geometry.Positions...),
		Colors:    append([]mgl32.Vec3(nil), r.cfg.Geometry.Colors...),
		Transform: transform,
	}
	require.NoError(t, good.compare(r.cfg.Geometry, transform))

	bad := good
	bad.Colors = []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 0.99}}
	require.ErrorContains(t, bad.compare(r.cfg.Geometry, transform), "color 2")

	short := good
	short.Positions = short.Positions[:2]
	require.Error(t, short.compare(r.cfg.Geometry, transform))
}
