// Package config holds the compile-time parameters of the renderer. There
// are no flags or environment variables; Default is what the binary runs.
package config

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/static-triangle/internal/camera"
	"github.com/vkngwrapper/static-triangle/internal/geometry"
	"github.com/vkngwrapper/static-triangle/internal/staging"
)

type Config struct {
	Title  string
	Width  int
	Height int

	// FramesInFlight is the number of rotating frame slots.
	FramesInFlight int
	// MinImageCount is the lower bound requested for the swapchain.
	MinImageCount int

	ClearColor [4]float32
	Camera     camera.Camera
	Geometry   geometry.Mesh

	// Validation enables the Khronos validation layer and routes its
	// messages to the logger.
	Validation bool
	// VerifyUpload reads the uploaded buffers back to the host and compares
	// them with what was written.
	VerifyUpload bool

	// LogEvery is the number of frames between progress log lines.
	LogEvery int
	// StagingSize is the byte size of the host-visible staging buffer.
	StagingSize int
}

func Default() Config {
	return Config{
		Title:          "Static Triangle",
		Width:          1080,
		Height:         720,
		FramesInFlight: 3,
		MinImageCount:  3,
		ClearColor:     [4]float32{0, 0, 0, 1},
		Camera:         camera.Default(),
		Geometry:       geometry.Triangle(),
		Validation:     false,
		VerifyUpload:   true,
		LogEvery:       60,
		StagingSize:    1024,
	}
}

// WithMesh returns a copy of c drawing the mesh stored at path instead of
// the built-in triangle. The staging buffer grows to fit the mesh.
func (c Config) WithMesh(path string) (Config, error) {
	mesh, err := geometry.Load(path)
	if err != nil {
		return c, errors.Wrapf(err, "load mesh %s", path)
	}

	c.Geometry = mesh
	if size := staging.NewLayout(mesh.VertexCount()).Size(); size > c.StagingSize {
		c.StagingSize = size
	}
	return c, nil
}

// Aspect is the width/height ratio used for the projection matrix.
func (c Config) Aspect() float32 {
	return float32(c.Width) / float32(c.Height)
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("window size %dx%d is invalid", c.Width, c.Height)
	}
	if c.FramesInFlight < 1 {
		return errors.Newf("frames in flight must be at least 1, got %d", c.FramesInFlight)
	}
	if c.MinImageCount < 1 {
		return errors.Newf("min image count must be at least 1, got %d", c.MinImageCount)
	}
	if c.LogEvery < 1 {
		return errors.Newf("log interval must be at least 1 frame, got %d", c.LogEvery)
	}

	if err := c.Camera.Validate(); err != nil {
		return errors.Wrap(err, "camera")
	}
	if err := c.Geometry.Validate(); err != nil {
		return errors.Wrap(err, "geometry")
	}

	recordSize := staging.NewLayout(c.Geometry.VertexCount()).Size()
	if recordSize > c.StagingSize {
		return errors.Newf("staging record of %d bytes does not fit in %d byte staging buffer", recordSize, c.StagingSize)
	}

	return nil
}
