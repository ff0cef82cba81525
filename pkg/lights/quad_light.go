package lights

import (
	"math"

	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/geometry"
)

// QuadLight is a diffuse area light over a quad surface, emitting from
// the side its normal faces
type QuadLight struct {
	Quad     *geometry.Quad
	Emission core.Spectrum // Emitted radiance
}

// NewQuadLight creates a new quad area light
func NewQuadLight(quad *geometry.Quad, emission core.Spectrum) *QuadLight {
	return &QuadLight{Quad: quad, Emission: emission}
}

// Emit samples an emitted ray: a uniform point on the quad surface and
// a cosine-weighted direction in the hemisphere around its normal
func (q *QuadLight) Emit(u0, u1, u2, u3, u4 float64) (core.Vec3, core.Vec3, float64, core.Spectrum) {
	origin := q.Quad.Corner.
		Add(q.Quad.U.Multiply(u0)).
		Add(q.Quad.V.Multiply(u1))

	normal := q.Quad.Normal()
	dir := core.SampleCosineHemisphere(normal, u2, u3)

	cosTheta := dir.Dot(normal)
	if cosTheta <= 0 {
		return core.Vec3{}, core.Vec3{}, 0, core.Spectrum{}
	}

	areaPdf := 1.0 / q.Quad.Area()
	directionPdf := cosTheta / math.Pi
	emitPdfW := areaPdf * directionPdf

	flux := q.Emission.Multiply(cosTheta)

	return origin, dir, emitPdfW, flux
}
