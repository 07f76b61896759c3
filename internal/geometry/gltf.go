package geometry

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// FromGLTF loads every triangle primitive of a .gltf or .glb file.
func FromGLTF(path string) (Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return Mesh{}, errors.Wrapf(err, "gltf open %q", path)
	}

	return FromGLTFDocument(doc)
}

// FromGLTFDocument flattens the document's triangle primitives, expanding
// indices. POSITION supplies x and y; COLOR_0 supplies the color, white
// when absent.
func FromGLTFDocument(doc *gltf.Document) (Mesh, error) {
	var mesh Mesh
	for meshIndex, gm := range doc.Meshes {
		for primIndex, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}

			posIndex, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				return Mesh{}, errors.Newf("mesh %d primitive %d has no POSITION", meshIndex, primIndex)
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIndex], nil)
			if err != nil {
				return Mesh{}, errors.Wrapf(err, "mesh %d primitive %d positions", meshIndex, primIndex)
			}

			var colors [][4]uint8
			if colorIndex, ok := prim.Attributes[gltf.COLOR_0]; ok {
				colors, err = modeler.ReadColor(doc, doc.Accessors[colorIndex], nil)
				if err != nil {
					return Mesh{}, errors.Wrapf(err, "mesh %d primitive %d colors", meshIndex, primIndex)
				}
			}

			var indices []uint32
			if prim.Indices != nil {
				indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return Mesh{}, errors.Wrapf(err, "mesh %d primitive %d indices", meshIndex, primIndex)
				}
			} else {
				indices = make([]uint32, len(positions))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}

			for _, index := range indices {
				if int(index) >= len(positions) {
					return Mesh{}, errors.Newf("mesh %d primitive %d index %d out of range", meshIndex, primIndex, index)
				}

				p := positions[index]
				mesh.Positions = append(mesh.Positions, mgl32.Vec2{p[0], p[1]})

				color := white
				if int(index) < len(colors) {
					c := colors[index]
					color = mgl32.Vec3{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255}
				}
				mesh.Colors = append(mesh.Colors, color)
			}
		}
	}

	return mesh, mesh.Validate()
}
