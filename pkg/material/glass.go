package material

import (
	"math"

	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/photongi"
)

// Glass represents a transparent dielectric that both reflects and
// refracts
type Glass struct {
	Kr              core.Spectrum // Reflection tint
	Kt              core.Spectrum // Transmission tint
	RefractiveIndex float64       // Index of refraction (e.g. 1.5 for glass)
}

// NewGlass creates a new glass material
func NewGlass(kr, kt core.Spectrum, refractiveIndex float64) *Glass {
	return &Glass{Kr: kr, Kt: kt, RefractiveIndex: refractiveIndex}
}

// Type implements the Material interface
func (g *Glass) Type() photongi.MaterialType {
	return photongi.MaterialGlass
}

// IsPhotonGIEnabled implements the Material interface: specular
// surfaces never store photons
func (g *Glass) IsPhotonGIEnabled() bool {
	return false
}

// Sample chooses reflection or refraction by the Fresnel reflectance
func (g *Glass) Sample(hp photongi.HitPoint, u0, u1 float64) (core.Vec3, core.Spectrum, float64, photongi.BSDFEvent) {
	var refractionRatio float64
	if hp.IntoObject {
		refractionRatio = 1.0 / g.RefractiveIndex // Entering the material
	} else {
		refractionRatio = g.RefractiveIndex // Exiting the material
	}

	normal := shadingNormal(hp)
	unitDirection := hp.IncomingDir.Normalize()

	cosTheta := math.Min(unitDirection.Negate().Dot(normal), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	// Check for total internal reflection
	cannotRefract := refractionRatio*sinTheta > 1.0

	if cannotRefract || reflectance(cosTheta, refractionRatio) > u0 {
		dir := reflect(unitDirection, normal)
		return dir, g.Kr, 1, photongi.SpecularEvent | photongi.ReflectEvent
	}

	dir := refract(unitDirection, normal, refractionRatio)
	return dir, g.Kt, 1, photongi.SpecularEvent | photongi.TransmitEvent
}

// Evaluate returns black: a delta BSDF has no finite value
func (g *Glass) Evaluate(hp photongi.HitPoint, dir core.Vec3) (core.Spectrum, photongi.BSDFEvent) {
	return core.Spectrum{}, photongi.SpecularEvent
}

// EvaluateTotal returns the transmission tint
func (g *Glass) EvaluateTotal(hp photongi.HitPoint) core.Spectrum {
	return g.Kt
}

// refract calculates the refraction of a vector using Snell's law
func refract(uv, n core.Vec3, etaiOverEtat float64) core.Vec3 {
	cosTheta := math.Min(uv.Negate().Dot(n), 1.0)
	rOutPerp := uv.Add(n.Multiply(cosTheta)).Multiply(etaiOverEtat)
	rOutParallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel)
}

// reflectance calculates the Fresnel reflectance using Schlick's approximation
func reflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
