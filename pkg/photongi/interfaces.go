package photongi

import (
	"github.com/df07/go-photon-cache/pkg/core"
)

// BSDFEvent is a bit set describing a scattering event
type BSDFEvent int

const (
	DiffuseEvent BSDFEvent = 1 << iota
	GlossyEvent
	SpecularEvent
	ReflectEvent
	TransmitEvent
)

// MaterialType identifies the material class of a surface interaction
type MaterialType int

const (
	MaterialMatte MaterialType = iota
	MaterialMirror
	MaterialGlass
)

// HitPoint describes the geometry of a surface interaction
type HitPoint struct {
	P           core.Vec3 // Hit point
	ShadeN      core.Vec3 // Shading normal (outward facing)
	IncomingDir core.Vec3 // Incoming ray direction, pointing toward the surface
	IntoObject  bool      // Whether the incoming ray enters the surface
}

// Material is the scattering oracle of a surface interaction.
//
// Sample returns a scattered direction and the throughput weight
// (BSDF value times cosine over pdf) ready to multiply into a path
// flux; a black weight means the path terminates. Evaluate returns the
// BSDF value for a given incoming direction, cosine term included.
// EvaluateTotal returns the albedo: the hemispherical integral of the
// BSDF times cosine.
type Material interface {
	Type() MaterialType
	IsPhotonGIEnabled() bool
	Sample(hp HitPoint, u0, u1 float64) (dir core.Vec3, weight core.Spectrum, pdf float64, event BSDFEvent)
	Evaluate(hp HitPoint, dir core.Vec3) (core.Spectrum, BSDFEvent)
	EvaluateTotal(hp HitPoint) core.Spectrum
}

// BSDF binds a surface interaction to its material oracle
type BSDF struct {
	HitPoint HitPoint
	Material Material
}

// IsPhotonGIEnabled returns true if photons may be deposited on this surface
func (b *BSDF) IsPhotonGIEnabled() bool {
	return b.Material.IsPhotonGIEnabled()
}

// GetMaterialType returns the material class of the interaction
func (b *BSDF) GetMaterialType() MaterialType {
	return b.Material.Type()
}

// Sample samples a scattered direction from the interaction
func (b *BSDF) Sample(u0, u1 float64) (core.Vec3, core.Spectrum, float64, BSDFEvent) {
	return b.Material.Sample(b.HitPoint, u0, u1)
}

// Evaluate evaluates the BSDF for an incoming direction, cosine included
func (b *BSDF) Evaluate(dir core.Vec3) (core.Spectrum, BSDFEvent) {
	return b.Material.Evaluate(b.HitPoint, dir)
}

// EvaluateTotal returns the albedo of the interaction
func (b *BSDF) EvaluateTotal() core.Spectrum {
	return b.Material.EvaluateTotal(b.HitPoint)
}

// Light is a light source able to sample its own emission
type Light interface {
	// Emit samples an emitted ray. It returns the ray origin and
	// direction, the emission pdf (solid angle times area measure) and
	// the emitted flux. A black flux means the sample failed.
	Emit(u0, u1, u2, u3, u4 float64) (origin, dir core.Vec3, emitPdfW float64, flux core.Spectrum)
}

// LightStrategy selects a light source for emission sampling
type LightStrategy interface {
	// SampleLights picks a light and returns it with its selection
	// probability. A nil light means the scene has no light sources.
	SampleLights(u float64) (Light, float64)
}

// Camera generates primary rays and ray times
type Camera interface {
	// GenerateRayTime maps a uniform sample to a ray time
	GenerateRayTime(u float64) float64

	// GenerateRay generates a camera ray through normalized film
	// coordinates (filmU, filmV) at the given time
	GenerateRay(filmU, filmV, time float64) core.Ray
}

// Scene is the geometry oracle the cache traces against
type Scene interface {
	// Intersect traces the ray and returns the surface interaction and
	// the connection throughput (volume transmittance along the ray).
	// passThrough drives transparency decisions inside the scene.
	Intersect(ray *core.Ray, passThrough float64) (bsdf *BSDF, connectionThroughput core.Spectrum, hit bool)

	// Camera returns the scene camera
	Camera() Camera

	// EmitLightStrategy returns the emission light sampling strategy
	EmitLightStrategy() LightStrategy

	// BBox returns the bounding box of the scene geometry
	BBox() core.AABB
}
