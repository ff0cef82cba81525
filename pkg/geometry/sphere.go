package geometry

import (
	"math"

	"github.com/df07/go-photon-cache/pkg/core"
)

// Sphere represents a sphere with center and radius
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Intersect tests ray-sphere intersection using the quadratic formula
func (s *Sphere) Intersect(ray core.Ray) (Intersection, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return Intersection{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Find the nearest root within the ray's parametric bounds
	root := (-halfB - sqrtD) / a
	if root < ray.TMin || root > ray.TMax {
		root = (-halfB + sqrtD) / a
		if root < ray.TMin || root > ray.TMax {
			return Intersection{}, false
		}
	}

	point := ray.At(root)
	return Intersection{
		T: root,
		P: point,
		N: point.Subtract(s.Center).Multiply(1 / s.Radius),
	}, true
}

// BoundingBox returns an AABB enclosing the sphere
func (s *Sphere) BoundingBox() core.AABB {
	extent := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(extent), s.Center.Add(extent))
}
