package photongi

import (
	"github.com/df07/go-photon-cache/pkg/core"
)

// Photon is a quantum of light energy deposited at a surface
// intersection. Immutable once stored.
type Photon struct {
	P     core.Vec3     // Position
	D     core.Vec3     // Incoming direction, pointing toward the surface
	Alpha core.Spectrum // Energy
	N     core.Vec3     // Landing surface normal
}

// RadiancePhoton caches the full diffuse outgoing radiance at its
// position and normal. OutgoingRadiance holds the surface albedo from
// creation until pre-integration rewrites it in place.
type RadiancePhoton struct {
	P                core.Vec3
	N                core.Vec3
	OutgoingRadiance core.Spectrum
}

// VisibilityParticle marks a surface point the camera can see
type VisibilityParticle struct {
	P        core.Vec3
	N        core.Vec3
	IsVolume bool
}

// NearPhoton is a spatial query result: an entry index into the queried
// population and the squared distance to the query point
type NearPhoton struct {
	EntryIndex int
	Distance2  float64
}
