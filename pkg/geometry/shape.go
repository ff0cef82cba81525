package geometry

import (
	"github.com/df07/go-photon-cache/pkg/core"
)

// Intersection describes a ray-shape intersection
type Intersection struct {
	T float64   // Parameter t along the ray
	P core.Vec3 // Point of intersection
	N core.Vec3 // Outward geometric normal at the intersection
}

// Shape is a surface that rays can intersect
type Shape interface {
	// Intersect tests the ray against the shape inside its parametric
	// bounds and returns the closest intersection
	Intersect(ray core.Ray) (Intersection, bool)

	// BoundingBox returns an AABB enclosing the shape
	BoundingBox() core.AABB
}
