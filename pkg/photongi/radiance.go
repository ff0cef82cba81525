package photongi

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/df07/go-photon-cache/pkg/core"
)

// addOutgoingRadiance accumulates the filtered photon energy around the
// radiance photon from one photon map, box filtered (weight 1) and
// normalized by the population's traced count and filter area
func (p *PhotonGICache) addOutgoingRadiance(radiancePhoton *RadiancePhoton,
	photonsBVH *PhotonBVH, photonTracedCount uint64) {
	if photonsBVH == nil {
		return
	}

	entries, maxDistance2 := photonsBVH.GetAllNearEntries(radiancePhoton.P, radiancePhoton.N)
	if len(entries) == 0 {
		return
	}

	photons := photonsBVH.Photons()

	var result core.Spectrum
	for _, nearPhoton := range entries {
		photon := &photons[nearPhoton.EntryIndex]

		result = result.Add(photon.Alpha.Multiply(radiancePhoton.N.AbsDot(photon.D.Negate())))
	}

	result = result.Divide(float64(photonTracedCount) * maxDistance2 * math.Pi)

	radiancePhoton.OutgoingRadiance = radiancePhoton.OutgoingRadiance.Add(result)
}

// fillRadiancePhotonData converts one radiance photon from its scratch
// albedo into the pre-integrated outgoing radiance
func (p *PhotonGICache) fillRadiancePhotonData(radiancePhoton *RadiancePhoton) {
	// This value was saved at RadiancePhoton creation time
	bsdfEvaluateTotal := radiancePhoton.OutgoingRadiance

	radiancePhoton.OutgoingRadiance = core.Spectrum{}
	p.addOutgoingRadiance(radiancePhoton, p.directPhotonsBVH, p.directPhotonTracedCount)
	p.addOutgoingRadiance(radiancePhoton, p.indirectPhotonsBVH, p.indirectPhotonTracedCount)
	p.addOutgoingRadiance(radiancePhoton, p.causticPhotonsBVH, p.causticPhotonTracedCount)

	radiancePhoton.OutgoingRadiance = radiancePhoton.OutgoingRadiance.
		MultiplySpectrum(bsdfEvaluateTotal).Multiply(invPi)
}

// fillRadiancePhotonsData pre-integrates every radiance photon. The
// loop is embarrassingly parallel: each entry is written exactly once.
func (p *PhotonGICache) fillRadiancePhotonsData() {
	var cursor atomic.Uint64
	var wg sync.WaitGroup

	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				index := cursor.Add(1) - 1
				if index >= uint64(len(p.radiancePhotons)) {
					return
				}
				p.fillRadiancePhotonData(&p.radiancePhotons[index])
			}
		}()
	}
	wg.Wait()
}

// memString formats a byte count for the memory usage report
func memString(bytes int) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.2fMbytes", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.2fKbytes", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%dbytes", bytes)
	}
}
