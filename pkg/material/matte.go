package material

import (
	"math"

	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/photongi"
)

// Matte represents a perfectly diffuse material
type Matte struct {
	Albedo core.Spectrum // Base reflectance
}

// NewMatte creates a new matte material
func NewMatte(albedo core.Spectrum) *Matte {
	return &Matte{Albedo: albedo}
}

// Type implements the Material interface
func (m *Matte) Type() photongi.MaterialType {
	return photongi.MaterialMatte
}

// IsPhotonGIEnabled implements the Material interface: photons are
// deposited on diffuse surfaces
func (m *Matte) IsPhotonGIEnabled() bool {
	return true
}

// shadingNormal orients the shading normal toward the interaction side
func shadingNormal(hp photongi.HitPoint) core.Vec3 {
	if hp.IntoObject {
		return hp.ShadeN
	}
	return hp.ShadeN.Negate()
}

// Sample generates a cosine-weighted direction in the hemisphere around
// the shading normal. The returned weight is the albedo: BRDF times
// cosine over the cosine-weighted pdf.
func (m *Matte) Sample(hp photongi.HitPoint, u0, u1 float64) (core.Vec3, core.Spectrum, float64, photongi.BSDFEvent) {
	normal := shadingNormal(hp)
	dir := core.SampleCosineHemisphere(normal, u0, u1)

	cosTheta := dir.Dot(normal)
	if cosTheta <= 0 {
		return core.Vec3{}, core.Spectrum{}, 0, photongi.DiffuseEvent | photongi.ReflectEvent
	}
	pdf := cosTheta / math.Pi

	return dir, m.Albedo, pdf, photongi.DiffuseEvent | photongi.ReflectEvent
}

// Evaluate returns the BRDF value for the given incoming direction,
// cosine term included: albedo/π · |cos|
func (m *Matte) Evaluate(hp photongi.HitPoint, dir core.Vec3) (core.Spectrum, photongi.BSDFEvent) {
	cosTheta := dir.Dot(shadingNormal(hp))
	if cosTheta <= 0 {
		return core.Spectrum{}, photongi.DiffuseEvent | photongi.ReflectEvent
	}

	return m.Albedo.Multiply(cosTheta / math.Pi), photongi.DiffuseEvent | photongi.ReflectEvent
}

// EvaluateTotal returns the albedo: the hemispherical integral of the
// BRDF times cosine
func (m *Matte) EvaluateTotal(hp photongi.HitPoint) core.Spectrum {
	return m.Albedo
}
