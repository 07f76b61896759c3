// Package camera builds the projection and view matrices uploaded to the
// transform uniform buffer.
package camera

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// FovY is the vertical field of view in radians.
	FovY float32
	Near float32
	Far  float32
}

// Transform is the std140 layout of the uniform block read by the vertex
// shader: projection first, then view, both column-major.
type Transform struct {
	Proj mgl32.Mat4
	View mgl32.Mat4
}

func Default() Camera {
	return Camera{
		Eye:    mgl32.Vec3{2, 2, 2},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 0, 1},
		FovY:   mgl32.DegToRad(45),
		Near:   0.1,
		Far:    10,
	}
}

func (c Camera) Validate() error {
	if c.FovY <= 0 {
		return errors.Newf("camera field of view must be positive, got %f", c.FovY)
	}
	if c.Near <= 0 || c.Far <= c.Near {
		return errors.Newf("camera clip planes near=%f far=%f are invalid", c.Near, c.Far)
	}
	if c.Eye.Sub(c.Target).Len() == 0 {
		return errors.New("camera eye and target coincide")
	}

	return nil
}

// Transform computes a right-handed GL perspective and look-at for the
// given width/height aspect ratio.
func (c Camera) Transform(aspect float32) Transform {
	return Transform{
		Proj: mgl32.Perspective(c.FovY, aspect, c.Near, c.Far),
		View: mgl32.LookAtV(c.Eye, c.Target, c.Up),
	}
}
