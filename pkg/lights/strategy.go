package lights

import (
	"github.com/df07/go-photon-cache/pkg/photongi"
)

// UniformLightStrategy picks emission lights with equal probability
type UniformLightStrategy struct {
	lights []photongi.Light
}

// NewUniformLightStrategy creates a strategy over the given lights
func NewUniformLightStrategy(lights []photongi.Light) *UniformLightStrategy {
	return &UniformLightStrategy{lights: lights}
}

// SampleLights implements the LightStrategy interface
func (s *UniformLightStrategy) SampleLights(u float64) (photongi.Light, float64) {
	if len(s.lights) == 0 {
		return nil, 0
	}

	index := int(u * float64(len(s.lights)))
	if index >= len(s.lights) {
		index = len(s.lights) - 1
	}

	return s.lights[index], 1.0 / float64(len(s.lights))
}
