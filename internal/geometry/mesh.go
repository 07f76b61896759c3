// Package geometry describes the static vertex data drawn by the renderer.
package geometry

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is a non-indexed triangle list. Positions are bound at vertex
// binding 0 and colors at binding 1.
type Mesh struct {
	Positions []mgl32.Vec2
	Colors    []mgl32.Vec3
}

// Triangle returns the default red/green/blue triangle.
func Triangle() Mesh {
	return Mesh{
		Positions: []mgl32.Vec2{
			{0, -0.5},
			{0.5, 0.5},
			{-0.5, 0.5},
		},
		Colors: []mgl32.Vec3{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
	}
}

func (m Mesh) VertexCount() int {
	return len(m.Positions)
}

// Validate checks that the mesh can be drawn as a triangle list.
func (m Mesh) Validate() error {
	if len(m.Positions) == 0 {
		return errors.New("mesh has no vertices")
	}
	if len(m.Positions) != len(m.Colors) {
		return errors.Newf("mesh has %d positions but %d colors", len(m.Positions), len(m.Colors))
	}
	if len(m.Positions)%3 != 0 {
		return errors.Newf("mesh vertex count %d is not a multiple of 3", len(m.Positions))
	}

	return nil
}

// Load reads a mesh from an .obj, .gltf or .glb file.
func Load(path string) (Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return OpenOBJ(path)
	case ".gltf", ".glb":
		return FromGLTF(path)
	}

	return Mesh{}, errors.Newf("unsupported mesh format: %s", path)
}
