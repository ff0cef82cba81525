package scene

import (
	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/geometry"
	"github.com/df07/go-photon-cache/pkg/lights"
	"github.com/df07/go-photon-cache/pkg/material"
)

// NewCornellScene creates a classic Cornell box scene with quad walls
// and area lighting
func NewCornellScene() *Scene {
	camera := NewCamera(CameraConfig{
		Center:      core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt:      core.NewVec3(278, 278, 0),    // Look at the center of the box
		Up:          core.NewVec3(0, 1, 0),        // Standard up direction
		VFov:        40.0,
		AspectRatio: 1.0, // Square aspect ratio for Cornell box
	})

	s := NewScene(camera)

	// Create materials
	white := material.NewMatte(core.NewSpectrum(0.73, 0.73, 0.73))
	red := material.NewMatte(core.NewSpectrum(0.65, 0.05, 0.05))
	green := material.NewMatte(core.NewSpectrum(0.12, 0.45, 0.15))

	// Cornell box dimensions (standard 555x555x555 units)
	boxSize := 555.0

	// Floor (white) - XZ plane at y=0
	s.AddPrimitive(geometry.NewQuad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, 0, boxSize),
	), white)

	// Ceiling (white) - XZ plane at y=boxSize
	s.AddPrimitive(geometry.NewQuad(
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, 0, boxSize),
	), white)

	// Back wall (white) - XY plane at z=boxSize
	s.AddPrimitive(geometry.NewQuad(
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, boxSize, 0),
	), white)

	// Left wall (red) - YZ plane at x=0
	s.AddPrimitive(geometry.NewQuad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(0, boxSize, 0),
	), red)

	// Right wall (green) - YZ plane at x=boxSize
	s.AddPrimitive(geometry.NewQuad(
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(0, 0, boxSize),
	), green)

	// Area light slightly below the ceiling; the edge order makes the
	// normal face down into the box
	lightQuad := geometry.NewQuad(
		core.NewVec3(213, boxSize-1, 227),
		core.NewVec3(130, 0, 0),
		core.NewVec3(0, 0, 105),
	)
	s.AddLight(lights.NewQuadLight(lightQuad, core.NewSpectrum(15, 15, 15)))

	return s
}
