package scene

import (
	"math"

	"github.com/df07/go-photon-cache/pkg/core"
)

// CameraConfig holds the parameters of a pinhole camera
type CameraConfig struct {
	Center       core.Vec3 // Camera position
	LookAt       core.Vec3 // Point the camera looks at
	Up           core.Vec3 // Up direction
	VFov         float64   // Vertical field of view in degrees
	AspectRatio  float64   // Width over height
	ShutterOpen  float64   // Shutter open time
	ShutterClose float64   // Shutter close time
}

// Camera is a pinhole camera generating primary rays through the film
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	shutterOpen     float64
	shutterClose    float64
}

// NewCamera creates a pinhole camera from a configuration
func NewCamera(config CameraConfig) *Camera {
	theta := config.VFov * math.Pi / 180
	h := math.Tan(theta / 2)
	viewportHeight := 2.0 * h
	viewportWidth := config.AspectRatio * viewportHeight

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(viewportWidth)
	vertical := v.Multiply(viewportHeight)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w)

	return &Camera{
		origin:          config.Center,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		shutterOpen:     config.ShutterOpen,
		shutterClose:    config.ShutterClose,
	}
}

// GenerateRayTime maps a uniform sample into the shutter interval
func (c *Camera) GenerateRayTime(u float64) float64 {
	return c.shutterOpen + u*(c.shutterClose-c.shutterOpen)
}

// GenerateRay generates a camera ray through normalized film
// coordinates (filmU, filmV) where 0 <= filmU, filmV <= 1
func (c *Camera) GenerateRay(filmU, filmV, time float64) core.Ray {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(filmU)).
		Add(c.vertical.Multiply(filmV)).
		Subtract(c.origin)

	ray := core.NewRay(c.origin, direction.Normalize())
	ray.Time = time
	return ray
}
