package scene

import (
	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/geometry"
	"github.com/df07/go-photon-cache/pkg/lights"
	"github.com/df07/go-photon-cache/pkg/photongi"
)

// Primitive binds a shape to its material
type Primitive struct {
	Shape    geometry.Shape
	Material photongi.Material
}

// Scene holds primitives, lights and a camera, and implements the
// intersection oracle the photon cache traces against
type Scene struct {
	primitives []Primitive
	lights     []photongi.Light
	strategy   *lights.UniformLightStrategy
	camera     *Camera
	bbox       core.AABB
}

// NewScene creates an empty scene with the given camera
func NewScene(camera *Camera) *Scene {
	return &Scene{camera: camera}
}

// AddPrimitive adds a shape with its material to the scene
func (s *Scene) AddPrimitive(shape geometry.Shape, material photongi.Material) {
	s.primitives = append(s.primitives, Primitive{Shape: shape, Material: material})

	bbox := shape.BoundingBox()
	if len(s.primitives) == 1 {
		s.bbox = bbox
	} else {
		s.bbox = s.bbox.Union(bbox)
	}
}

// AddLight adds a light source to the scene
func (s *Scene) AddLight(light photongi.Light) {
	s.lights = append(s.lights, light)
	s.strategy = lights.NewUniformLightStrategy(s.lights)
}

// Intersect implements the Scene oracle: the nearest primitive hit
// within the ray bounds. The scene carries no participating media, so
// the connection throughput is always one.
func (s *Scene) Intersect(ray *core.Ray, passThrough float64) (*photongi.BSDF, core.Spectrum, bool) {
	var closest geometry.Intersection
	var closestMaterial photongi.Material
	hitAnything := false

	probe := *ray
	for _, primitive := range s.primitives {
		if isect, ok := primitive.Shape.Intersect(probe); ok {
			hitAnything = true
			probe.TMax = isect.T
			closest = isect
			closestMaterial = primitive.Material
		}
	}

	if !hitAnything {
		return nil, core.Spectrum{}, false
	}

	bsdf := &photongi.BSDF{
		HitPoint: photongi.HitPoint{
			P:           closest.P,
			ShadeN:      closest.N,
			IncomingDir: ray.Direction,
			IntoObject:  ray.Direction.Dot(closest.N) < 0,
		},
		Material: closestMaterial,
	}

	return bsdf, core.NewSpectrum(1, 1, 1), true
}

// Camera implements the Scene oracle
func (s *Scene) Camera() photongi.Camera {
	return s.camera
}

// EmitLightStrategy implements the Scene oracle
func (s *Scene) EmitLightStrategy() photongi.LightStrategy {
	if s.strategy == nil {
		s.strategy = lights.NewUniformLightStrategy(nil)
	}
	return s.strategy
}

// BBox implements the Scene oracle
func (s *Scene) BBox() core.AABB {
	return s.bbox
}
