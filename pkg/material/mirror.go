package material

import (
	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/photongi"
)

// Mirror represents a perfectly specular reflector
type Mirror struct {
	Kr core.Spectrum // Reflection tint
}

// NewMirror creates a new mirror material
func NewMirror(kr core.Spectrum) *Mirror {
	return &Mirror{Kr: kr}
}

// Type implements the Material interface
func (m *Mirror) Type() photongi.MaterialType {
	return photongi.MaterialMirror
}

// IsPhotonGIEnabled implements the Material interface: specular
// surfaces never store photons
func (m *Mirror) IsPhotonGIEnabled() bool {
	return false
}

// reflect calculates the reflection of a vector v off a surface with normal n
func reflect(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// Sample returns the mirror direction. Deterministic: the pdf is 1.
func (m *Mirror) Sample(hp photongi.HitPoint, u0, u1 float64) (core.Vec3, core.Spectrum, float64, photongi.BSDFEvent) {
	normal := shadingNormal(hp)
	dir := reflect(hp.IncomingDir.Normalize(), normal)

	return dir, m.Kr, 1, photongi.SpecularEvent | photongi.ReflectEvent
}

// Evaluate returns black: a delta BRDF has no finite value
func (m *Mirror) Evaluate(hp photongi.HitPoint, dir core.Vec3) (core.Spectrum, photongi.BSDFEvent) {
	return core.Spectrum{}, photongi.SpecularEvent | photongi.ReflectEvent
}

// EvaluateTotal returns the reflection tint
func (m *Mirror) EvaluateTotal(hp photongi.HitPoint) core.Spectrum {
	return m.Kr
}
