package photongi

import (
	"math"

	"github.com/df07/go-photon-cache/pkg/core"
)

const invPi = 1.0 / math.Pi

// SimpsonKernel filters a photon contribution by its distance to the
// query point, giving more weight to the nearest: 3/π · (1 − d²/r²)².
// The kernel is only defined for d² ≤ maxDist2.
func SimpsonKernel(p1, p2 core.Vec3, maxDist2 float64) float64 {
	dist2 := p1.DistanceSquared(p2)

	if dist2 > maxDist2 {
		panic("photongi: Simpson kernel invoked outside its domain")
	}
	s := 1 - dist2/maxDist2

	return 3 * invPi * s * s
}

// processCacheEntries estimates the radiance at a surface interaction
// from the photons in its query neighborhood. photonTracedCount is the
// normalization count of the queried population and maxDistance2 the
// squared filter radius of the lookup.
func processCacheEntries(entries []NearPhoton, photons []Photon,
	photonTracedCount uint64, maxDistance2 float64, bsdf *BSDF) core.Spectrum {
	var result core.Spectrum

	if len(entries) > 0 {
		if bsdf.GetMaterialType() == MaterialMatte {
			// A fast path for matte material
			for _, nearPhoton := range entries {
				photon := &photons[nearPhoton.EntryIndex]

				weight := SimpsonKernel(bsdf.HitPoint.P, photon.P, maxDistance2) *
					bsdf.HitPoint.ShadeN.AbsDot(photon.D.Negate())
				result = result.Add(photon.Alpha.Multiply(weight))
			}

			result = result.MultiplySpectrum(bsdf.EvaluateTotal()).Multiply(invPi)
		} else {
			// Generic path
			for _, nearPhoton := range entries {
				photon := &photons[nearPhoton.EntryIndex]

				value, _ := bsdf.Evaluate(photon.D.Negate())
				weight := SimpsonKernel(bsdf.HitPoint.P, photon.P, maxDistance2)
				result = result.Add(value.MultiplySpectrum(photon.Alpha).Multiply(weight))
			}
		}
	}

	result = result.Divide(float64(photonTracedCount) * maxDistance2)

	return result
}
