package scene

import (
	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/geometry"
	"github.com/df07/go-photon-cache/pkg/lights"
	"github.com/df07/go-photon-cache/pkg/material"
)

// NewCausticScene creates a scene with a point light above a glass
// sphere focusing light onto a matte floor
func NewCausticScene() *Scene {
	camera := NewCamera(CameraConfig{
		Center:      core.NewVec3(0, 5, -10),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40.0,
		AspectRatio: 1.0,
	})

	s := NewScene(camera)

	white := material.NewMatte(core.NewSpectrum(0.73, 0.73, 0.73))
	glass := material.NewGlass(
		core.NewSpectrum(1, 1, 1),
		core.NewSpectrum(1, 1, 1),
		1.5,
	)

	// Floor - XZ plane at y=0
	s.AddPrimitive(geometry.NewQuad(
		core.NewVec3(-10, 0, -10),
		core.NewVec3(20, 0, 0),
		core.NewVec3(0, 0, 20),
	), white)

	// Glass sphere above the floor
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(0, 2, 0), 1), glass)

	// Point light above the sphere: refracted light focuses below
	s.AddLight(lights.NewPointLight(core.NewVec3(0, 6, 0), core.NewSpectrum(100, 100, 100)))

	return s
}
