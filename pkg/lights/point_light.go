package lights

import (
	"math"

	"github.com/df07/go-photon-cache/pkg/core"
)

// PointLight is an isotropic point emitter
type PointLight struct {
	Position  core.Vec3
	Intensity core.Spectrum // Radiant intensity (power per solid angle)
}

// NewPointLight creates a new point light
func NewPointLight(position core.Vec3, intensity core.Spectrum) *PointLight {
	return &PointLight{Position: position, Intensity: intensity}
}

// Emit samples an emitted ray uniformly over the sphere of directions
func (p *PointLight) Emit(u0, u1, u2, u3, u4 float64) (core.Vec3, core.Vec3, float64, core.Spectrum) {
	dir := core.SampleOnUnitSphere(u2, u3)
	emitPdfW := 1.0 / (4 * math.Pi)

	return p.Position, dir, emitPdfW, p.Intensity
}
