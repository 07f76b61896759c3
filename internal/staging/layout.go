// Package staging describes the packed record written into the host-visible
// staging buffer and the copies that move it into device-local buffers.
package staging

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/static-triangle/internal/camera"
	"github.com/vkngwrapper/static-triangle/internal/geometry"
)

const (
	PositionStride = 2 * 4
	ColorStride    = 3 * 4
	MatrixSize     = 16 * 4
	TransformSize  = 2 * MatrixSize
)

// Region is one buffer-to-buffer copy out of the staging record. The
// destination offset is always zero.
type Region struct {
	Name      string
	SrcOffset int
	Size      int
}

// Layout places positions, colors, projection and view back to back.
type Layout struct {
	VertexCount int
}

func NewLayout(vertexCount int) Layout {
	return Layout{VertexCount: vertexCount}
}

func (l Layout) PositionsSize() int { return l.VertexCount * PositionStride }
func (l Layout) ColorsSize() int    { return l.VertexCount * ColorStride }

func (l Layout) PositionsOffset() int { return 0 }
func (l Layout) ColorsOffset() int    { return l.PositionsSize() }
func (l Layout) TransformOffset() int { return l.ColorsOffset() + l.ColorsSize() }

// Size is the total byte length of the packed record.
func (l Layout) Size() int {
	return l.TransformOffset() + TransformSize
}

// Regions returns the positions, colors and transform copies in that order.
func (l Layout) Regions() []Region {
	return []Region{
		{Name: "positions", SrcOffset: l.PositionsOffset(), Size: l.PositionsSize()},
		{Name: "colors", SrcOffset: l.ColorsOffset(), Size: l.ColorsSize()},
		{Name: "transform", SrcOffset: l.TransformOffset(), Size: TransformSize},
	}
}

func write(buf *bytes.Buffer, data any) error {
	return binary.Write(buf, common.ByteOrder, data)
}

// Encode packs the mesh and transform into dst, which must hold at least
// Size bytes.
func (l Layout) Encode(dst []byte, mesh geometry.Mesh, transform camera.Transform) error {
	if mesh.VertexCount() != l.VertexCount {
		return errors.Newf("layout expects %d vertices, mesh has %d", l.VertexCount, mesh.VertexCount())
	}
	if len(dst) < l.Size() {
		return errors.Newf("staging record needs %d bytes, destination has %d", l.Size(), len(dst))
	}

	buf := &bytes.Buffer{}
	buf.Grow(l.Size())
	for _, data := range []any{mesh.Positions, mesh.Colors, transform.Proj, transform.View} {
		if err := write(buf, data); err != nil {
			return errors.Wrap(err, "encode staging record")
		}
	}

	copy(dst, buf.Bytes())
	return nil
}

func read(src []byte, data any) error {
	return binary.Read(bytes.NewReader(src), common.ByteOrder, data)
}

// DecodePositions reads back a positions buffer.
func DecodePositions(src []byte) ([]mgl32.Vec2, error) {
	if len(src)%PositionStride != 0 {
		return nil, errors.Newf("positions buffer length %d is not a multiple of %d", len(src), PositionStride)
	}

	positions := make([]mgl32.Vec2, len(src)/PositionStride)
	return positions, read(src, positions)
}

// DecodeColors reads back a colors buffer.
func DecodeColors(src []byte) ([]mgl32.Vec3, error) {
	if len(src)%ColorStride != 0 {
		return nil, errors.Newf("colors buffer length %d is not a multiple of %d", len(src), ColorStride)
	}

	colors := make([]mgl32.Vec3, len(src)/ColorStride)
	return colors, read(src, colors)
}

// DecodeTransform reads back a transform buffer.
func DecodeTransform(src []byte) (camera.Transform, error) {
	var transform camera.Transform
	if len(src) != TransformSize {
		return transform, errors.Newf("transform buffer length %d, want %d", len(src), TransformSize)
	}

	err := read(src, &transform)
	return transform, err
}
