package photongi

import (
	"fmt"
	"math"
	"strconv"
)

// SamplerType selects the photon tracing sampling strategy
type SamplerType int

const (
	SamplerRandom SamplerType = iota
	SamplerMetropolis
)

// SamplerTypeFromString parses a sampler type tag
func SamplerTypeFromString(tag string) (SamplerType, error) {
	switch tag {
	case "RANDOM":
		return SamplerRandom, nil
	case "METROPOLIS":
		return SamplerMetropolis, nil
	default:
		return 0, fmt.Errorf("unknown photongi sampler type: %q", tag)
	}
}

// String returns the tag of the sampler type
func (t SamplerType) String() string {
	switch t {
	case SamplerRandom:
		return "RANDOM"
	case SamplerMetropolis:
		return "METROPOLIS"
	default:
		return fmt.Sprintf("SamplerType(%d)", int(t))
	}
}

// DebugType selects a rendering-time visualization mode
type DebugType int

const (
	DebugNone DebugType = iota
	DebugShowDirect
	DebugShowIndirect
	DebugShowCaustic
)

// DebugTypeFromString parses a debug type tag
func DebugTypeFromString(tag string) (DebugType, error) {
	switch tag {
	case "none":
		return DebugNone, nil
	case "showdirect":
		return DebugShowDirect, nil
	case "showindirect":
		return DebugShowIndirect, nil
	case "showcaustic":
		return DebugShowCaustic, nil
	default:
		return 0, fmt.Errorf("unknown photongi debug type: %q", tag)
	}
}

// String returns the tag of the debug type
func (t DebugType) String() string {
	switch t {
	case DebugNone:
		return "none"
	case DebugShowDirect:
		return "showdirect"
	case DebugShowIndirect:
		return "showindirect"
	case DebugShowCaustic:
		return "showcaustic"
	default:
		return fmt.Sprintf("DebugType(%d)", int(t))
	}
}

// Properties is a key/value configuration bag. Values are strings,
// typed access goes through the getters with per-key defaults.
type Properties map[string]string

// GetString returns the value for key, or def if the key is absent
func (p Properties) GetString(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// GetBool returns the boolean value for key, or def if absent or malformed
func (p Properties) GetBool(key string, def bool) bool {
	if v, ok := p[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// GetInt returns the integer value for key, or def if absent or malformed
func (p Properties) GetInt(key string, def int) int {
	if v, ok := p[key]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// GetFloat returns the float value for key, or def if absent or malformed
func (p Properties) GetFloat(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Smallest radius/angle accepted from the configuration
const defaultEpsilonMin = 1e-9

// ClassParams holds the per-class photon population parameters
type ClassParams struct {
	Enabled           bool
	MaxSize           int     // Storage budget in entries
	LookUpMaxCount    int     // k-nearest cap
	LookUpRadius      float64 // Filter radius
	LookUpRadius2     float64 // Cached square of the filter radius
	LookUpNormalAngle float64 // Normal filter angle in degrees
	NormalCosAngle    float64 // Cached cosine of the normal filter angle
}

// VisibilityParams holds the visibility pass parameters
type VisibilityParams struct {
	Enabled           bool
	TargetHitRate     float64
	MaxSampleCount    int
	LookUpRadius      float64
	LookUpRadius2     float64
	LookUpNormalAngle float64
	NormalCosAngle    float64
}

// PhotonParams holds the global photon tracing parameters
type PhotonParams struct {
	MaxTracedCount int
	MaxPathDepth   int
}

// Params is the full parameter block of the cache
type Params struct {
	SamplerType SamplerType
	DebugType   DebugType
	Photon      PhotonParams
	Visibility  VisibilityParams
	Direct      ClassParams
	Indirect    ClassParams
	Caustic     ClassParams
}

// DefaultProperties returns the default configuration of the cache
func DefaultProperties() Properties {
	return Properties{
		"path.photongi.sampler.type":                  "METROPOLIS",
		"path.photongi.photon.maxcount":               "500000",
		"path.photongi.photon.maxdepth":               "4",
		"path.photongi.visibility.enabled":            "true",
		"path.photongi.visibility.targethitrate":      "0.99",
		"path.photongi.visibility.maxsamplecount":     "1048576",
		"path.photongi.visibility.lookup.radius":      "0.15",
		"path.photongi.visibility.lookup.normalangle": "10",
		"path.photongi.direct.enabled":                "false",
		"path.photongi.direct.maxsize":                "25000",
		"path.photongi.direct.lookup.maxcount":        "64",
		"path.photongi.direct.lookup.radius":          "0.15",
		"path.photongi.direct.lookup.normalangle":     "10",
		"path.photongi.indirect.enabled":              "false",
		"path.photongi.indirect.maxsize":              "100000",
		"path.photongi.indirect.lookup.maxcount":      "64",
		"path.photongi.indirect.lookup.radius":        "0.15",
		"path.photongi.indirect.lookup.normalangle":   "10",
		"path.photongi.caustic.enabled":               "false",
		"path.photongi.caustic.maxsize":               "100000",
		"path.photongi.caustic.lookup.maxcount":       "256",
		"path.photongi.caustic.lookup.radius":         "0.15",
		"path.photongi.caustic.lookup.normalangle":    "10",
		"path.photongi.debug.type":                    "none",
	}
}

func classParamsFromProperties(props, defaults Properties, prefix string) ClassParams {
	return ClassParams{
		Enabled:           props.GetBool(prefix+".enabled", defaults.GetBool(prefix+".enabled", false)),
		MaxSize:           max(0, props.GetInt(prefix+".maxsize", defaults.GetInt(prefix+".maxsize", 0))),
		LookUpMaxCount:    max(1, props.GetInt(prefix+".lookup.maxcount", defaults.GetInt(prefix+".lookup.maxcount", 64))),
		LookUpRadius:      math.Max(defaultEpsilonMin, props.GetFloat(prefix+".lookup.radius", defaults.GetFloat(prefix+".lookup.radius", 0.15))),
		LookUpNormalAngle: math.Max(defaultEpsilonMin, props.GetFloat(prefix+".lookup.normalangle", defaults.GetFloat(prefix+".lookup.normalangle", 10))),
	}
}

// ParamsFromProperties parses a parameter block from a property bag,
// falling back to DefaultProperties for absent keys. It returns an
// error for unknown sampler or debug type tags.
func ParamsFromProperties(props Properties) (Params, error) {
	defaults := DefaultProperties()

	var params Params
	var err error

	params.SamplerType, err = SamplerTypeFromString(
		props.GetString("path.photongi.sampler.type", defaults.GetString("path.photongi.sampler.type", "METROPOLIS")))
	if err != nil {
		return Params{}, err
	}

	params.DebugType, err = DebugTypeFromString(
		props.GetString("path.photongi.debug.type", defaults.GetString("path.photongi.debug.type", "none")))
	if err != nil {
		return Params{}, err
	}

	params.Photon.MaxTracedCount = max(1, props.GetInt("path.photongi.photon.maxcount", defaults.GetInt("path.photongi.photon.maxcount", 500000)))
	params.Photon.MaxPathDepth = max(1, props.GetInt("path.photongi.photon.maxdepth", defaults.GetInt("path.photongi.photon.maxdepth", 4)))

	if params.SamplerType == SamplerMetropolis {
		params.Visibility = VisibilityParams{
			Enabled:           props.GetBool("path.photongi.visibility.enabled", defaults.GetBool("path.photongi.visibility.enabled", true)),
			TargetHitRate:     props.GetFloat("path.photongi.visibility.targethitrate", defaults.GetFloat("path.photongi.visibility.targethitrate", 0.99)),
			MaxSampleCount:    props.GetInt("path.photongi.visibility.maxsamplecount", defaults.GetInt("path.photongi.visibility.maxsamplecount", 1048576)),
			LookUpRadius:      math.Max(defaultEpsilonMin, props.GetFloat("path.photongi.visibility.lookup.radius", defaults.GetFloat("path.photongi.visibility.lookup.radius", 0.15))),
			LookUpNormalAngle: math.Max(defaultEpsilonMin, props.GetFloat("path.photongi.visibility.lookup.normalangle", defaults.GetFloat("path.photongi.visibility.lookup.normalangle", 10))),
		}
	}

	params.Direct = classParamsFromProperties(props, defaults, "path.photongi.direct")
	params.Indirect = classParamsFromProperties(props, defaults, "path.photongi.indirect")
	params.Caustic = classParamsFromProperties(props, defaults, "path.photongi.caustic")

	return params, nil
}

// normalize fills derived parameters: the direct parameters borrowed
// from indirect when only a radiance cache needs them, zeroed budgets
// for disabled populations and the cached squares and cosines.
func (p *Params) normalize() {
	if !p.Direct.Enabled {
		if p.Indirect.Enabled {
			// Direct cache parameters are needed to compute the radiance cache
			p.Direct.MaxSize = p.Indirect.MaxSize / p.Photon.MaxPathDepth

			p.Direct.LookUpMaxCount = p.Indirect.LookUpMaxCount
			p.Direct.LookUpRadius = p.Indirect.LookUpRadius
			p.Direct.LookUpNormalAngle = p.Indirect.LookUpNormalAngle
		} else {
			p.Direct.MaxSize = 0
		}
	}

	if !p.Indirect.Enabled {
		p.Indirect.MaxSize = 0
	}

	if !p.Caustic.Enabled {
		p.Caustic.MaxSize = 0
	}

	p.Visibility.LookUpRadius2 = p.Visibility.LookUpRadius * p.Visibility.LookUpRadius
	p.Visibility.NormalCosAngle = math.Cos(radians(p.Visibility.LookUpNormalAngle))

	for _, class := range []*ClassParams{&p.Direct, &p.Indirect, &p.Caustic} {
		class.LookUpRadius2 = class.LookUpRadius * class.LookUpRadius
		class.NormalCosAngle = math.Cos(radians(class.LookUpNormalAngle))
	}
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
