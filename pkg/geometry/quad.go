package geometry

import (
	"math"

	"github.com/df07/go-photon-cache/pkg/core"
)

// Quad represents a parallelogram defined by a corner point and two
// edge vectors
type Quad struct {
	Corner core.Vec3 // Corner point
	U      core.Vec3 // First edge vector
	V      core.Vec3 // Second edge vector
	normal core.Vec3 // Precomputed unit normal
}

// NewQuad creates a new quad from a corner and two edge vectors
func NewQuad(corner, u, v core.Vec3) *Quad {
	return &Quad{
		Corner: corner,
		U:      u,
		V:      v,
		normal: u.Cross(v).Normalize(),
	}
}

// Normal returns the unit normal of the quad plane
func (q *Quad) Normal() core.Vec3 {
	return q.normal
}

// Area returns the area of the quad
func (q *Quad) Area() float64 {
	return q.U.Cross(q.V).Length()
}

// Intersect tests ray-quad intersection: plane hit first, then the
// parametric coordinates against [0, 1]
func (q *Quad) Intersect(ray core.Ray) (Intersection, bool) {
	denom := q.normal.Dot(ray.Direction)
	if math.Abs(denom) < 1e-12 {
		return Intersection{}, false // Ray parallel to the quad plane
	}

	t := q.normal.Dot(q.Corner.Subtract(ray.Origin)) / denom
	if t < ray.TMin || t > ray.TMax {
		return Intersection{}, false
	}

	point := ray.At(t)
	local := point.Subtract(q.Corner)

	// Project onto the edge basis
	uu := q.U.Dot(q.U)
	uv := q.U.Dot(q.V)
	vv := q.V.Dot(q.V)
	lu := local.Dot(q.U)
	lv := local.Dot(q.V)

	det := uu*vv - uv*uv
	if det == 0 {
		return Intersection{}, false
	}

	alpha := (lu*vv - lv*uv) / det
	beta := (lv*uu - lu*uv) / det
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return Intersection{}, false
	}

	return Intersection{T: t, P: point, N: q.normal}, true
}

// BoundingBox returns an AABB enclosing the quad
func (q *Quad) BoundingBox() core.AABB {
	return core.NewAABBFromPoints(
		q.Corner,
		q.Corner.Add(q.U),
		q.Corner.Add(q.V),
		q.Corner.Add(q.U).Add(q.V),
	)
}
