package staging

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/static-triangle/internal/camera"
	"github.com/vkngwrapper/static-triangle/internal/geometry"
)

func TestLayoutOffsets(t *testing.T) {
	layout := NewLayout(3)

	require.Equal(t, 24, layout.PositionsSize())
	require.Equal(t, 36, layout.ColorsSize())
	require.Equal(t, 0, layout.PositionsOffset())
	require.Equal(t, 24, layout.ColorsOffset())
	require.Equal(t, 60, layout.TransformOffset())
	require.Equal(t, 188, layout.Size())
}

func TestRegionsCoverRecord(t *testing.T) {
	for _, vertexCount := range []int{3, 6, 300} {
		layout := NewLayout(vertexCount)
		regions := layout.Regions()
		require.Len(t, regions, 3)

		total := 0
		next := 0
		for _, region := range regions {
			require.Equal(t, next, region.SrcOffset, region.Name)
			next += region.Size
			total += region.Size
		}
		require.Equal(t, layout.Size(), total)

		require.Equal(t, layout.PositionsSize(), regions[0].Size)
		require.Equal(t, layout.ColorsSize(), regions[1].Size)
		require.Equal(t, TransformSize, regions[2].Size)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	mesh := geometry.Triangle()
	transform := camera.Default().Transform(1080.0 / 720.0)
	layout := NewLayout(mesh.VertexCount())

	record := make([]byte, 1024)
	require.NoError(t, layout.Encode(record, mesh, transform))

	regions := layout.Regions()
	slice := func(r Region) []byte { return record[r.SrcOffset : r.SrcOffset+r.Size] }

	positions, err := DecodePositions(slice(regions[0]))
	require.NoError(t, err)
	colors, err := DecodeColors(slice(regions[1]))
	require.NoError(t, err)
	decoded, err := DecodeTransform(slice(regions[2]))
	require.NoError(t, err)

	require.Equal(t, []mgl32.Vec2{{0, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}, positions)
	require.Equal(t, []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, colors)
	for i := range transform.Proj {
		require.Equal(t, math.Float32bits(transform.Proj[i]), math.Float32bits(decoded.Proj[i]))
		require.Equal(t, math.Float32bits(transform.View[i]), math.Float32bits(decoded.View[i]))
	}

	// Bytes past the record stay untouched
	for _, b := range record[layout.Size():] {
		require.Zero(t, b)
	}
}

func TestEncodeRejectsShortDestination(t *testing.T) {
	layout := NewLayout(3)
	err := layout.Encode(make([]byte, layout.Size()-1), geometry.Triangle(), camera.Transform{})
	require.ErrorContains(t, err, "needs 188 bytes")
}

func TestEncodeRejectsVertexCountMismatch(t *testing.T) {
	layout := NewLayout(6)
	err := layout.Encode(make([]byte, 1024), geometry.Triangle(), camera.Transform{})
	require.Error(t, err)
}

func TestDecodeRejectsRaggedBuffers(t *testing.T) {
	_, err := DecodePositions(make([]byte, 7))
	require.Error(t, err)
	_, err = DecodeColors(make([]byte, 13))
	require.Error(t, err)
	_, err = DecodeTransform(make([]byte, 64))
	require.Error(t, err)
}
