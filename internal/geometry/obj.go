package geometry

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

var white = mgl32.Vec3{1, 1, 1}

// OpenOBJ loads an OBJ file, picking up a sibling .mtl file when one exists.
func OpenOBJ(path string) (Mesh, error) {
	objFile, err := os.Open(path)
	if err != nil {
		return Mesh{}, errors.Wrapf(err, "open %s", path)
	}
	defer objFile.Close()

	var mtl io.Reader
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
	if mtlFile, err := os.Open(mtlPath); err == nil {
		defer mtlFile.Close()
		mtl = mtlFile
	}

	return FromOBJ(objFile, mtl)
}

// FromOBJ flattens every face of every object into a triangle list. Only
// the x and y coordinates are kept. Vertex colors come from the face
// material's diffuse color, or white when the material is unknown.
func FromOBJ(objReader, mtlReader io.Reader) (Mesh, error) {
	// the decoder reads from the material reader unconditionally
	if mtlReader == nil {
		mtlReader = strings.NewReader("")
	}

	decoder, err := obj.DecodeReader(objReader, mtlReader)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "decode obj")
	}

	var mesh Mesh
	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			color := white
			if mat, ok := decoder.Materials[face.Material]; ok {
				color = mgl32.Vec3{mat.Diffuse.R, mat.Diffuse.G, mat.Diffuse.B}
			}

			// Fan-triangulate polygons
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range []int{0, i - 1, i} {
					vertInd := face.Vertices[corner]
					if vertInd < 0 || vertInd*3+1 >= len(decoder.Vertices) {
						return Mesh{}, errors.Newf("face references missing vertex %d", vertInd)
					}

					mesh.Positions = append(mesh.Positions, mgl32.Vec2{
						decoder.Vertices[vertInd*3],
						decoder.Vertices[vertInd*3+1],
					})
					mesh.Colors = append(mesh.Colors, color)
				}
			}
		}
	}

	return mesh, mesh.Validate()
}
