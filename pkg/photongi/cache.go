package photongi

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/log"
)

var logger = log.New("photongi")

// PhotonGICache precomputes a sparse, spatially indexed approximation
// of direct, indirect and caustic light transport by shooting photons
// into the scene and answering radiance queries from the renderer's
// surface interactions. The cache is a one-shot precomputation: build
// it with Preprocess, then query it.
type PhotonGICache struct {
	scene  Scene
	params Params

	// Worker thread count; fixing it to 1 together with a fixed seed
	// makes the photon vectors reproducible
	numWorkers int

	// Visibility phase shared state
	visibilityParticlesOctree      *Octree
	globalVisibilityParticlesCount atomic.Uint64
	globalVisibilitySampleCount    atomic.Uint64
	visibilityCacheLookUp          atomic.Uint64
	visibilityCacheHits            atomic.Uint64
	visibilityWarmUp               atomic.Bool

	// Photon tracing shared state
	globalPhotonsCounter        atomic.Uint64
	globalDirectPhotonsTraced   atomic.Uint64
	globalIndirectPhotonsTraced atomic.Uint64
	globalCausticPhotonsTraced  atomic.Uint64
	globalDirectSize            atomic.Uint64
	globalIndirectSize          atomic.Uint64
	globalCausticSize           atomic.Uint64

	// Per-class normalization counts for the density estimator
	directPhotonTracedCount   uint64
	indirectPhotonTracedCount uint64
	causticPhotonTracedCount  uint64

	directPhotons   []Photon
	indirectPhotons []Photon
	causticPhotons  []Photon
	radiancePhotons []RadiancePhoton

	directPhotonsBVH   *PhotonBVH
	indirectPhotonsBVH *PhotonBVH
	causticPhotonsBVH  *PhotonBVH
	radiancePhotonsBVH *RadiancePhotonBVH
}

// NewPhotonGICache creates a cache for the given scene. The parameter
// block is normalized: derived direct parameters are filled in when
// only indirect is enabled, budgets of disabled populations are zeroed
// and the squared radii and normal cosines are precomputed.
func NewPhotonGICache(scene Scene, params Params) *PhotonGICache {
	params.normalize()

	return &PhotonGICache{
		scene:      scene,
		params:     params,
		numWorkers: runtime.NumCPU(),
	}
}

// FromProperties creates a cache configured from a property bag. It
// returns a nil cache when no photon class is enabled, and an error for
// unknown sampler or debug type tags.
func FromProperties(scene Scene, props Properties) (*PhotonGICache, error) {
	params, err := ParamsFromProperties(props)
	if err != nil {
		return nil, err
	}

	if !params.Direct.Enabled && !params.Indirect.Enabled && !params.Caustic.Enabled {
		return nil, nil
	}

	return NewPhotonGICache(scene, params), nil
}

// Params returns the normalized parameter block
func (p *PhotonGICache) Params() Params {
	return p.params
}

// SetWorkerCount overrides the number of tracing workers. Values below
// one select one worker per hardware thread.
func (p *PhotonGICache) SetWorkerCount(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p.numWorkers = n
}

// runWorkers spawns one goroutine per worker and returns the first
// worker error
func runWorkers(numWorkers int, worker func(threadIndex int) error) error {
	var wg sync.WaitGroup
	errs := make([]error, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(threadIndex int) {
			defer wg.Done()
			errs[threadIndex] = worker(threadIndex)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// traceVisibilityParticles runs the visibility pass, populating the
// particle octree with the surface points rendering will look at
func (p *PhotonGICache) traceVisibilityParticles(ctx context.Context) error {
	logger.Infof("PhotonGI trace visibility particles thread count: %d", p.numWorkers)

	p.visibilityParticlesOctree = NewOctree(p.scene.BBox(),
		p.params.Visibility.LookUpRadius, p.params.Visibility.LookUpNormalAngle)

	p.globalVisibilityParticlesCount.Store(0)
	p.globalVisibilitySampleCount.Store(0)
	p.visibilityCacheLookUp.Store(0)
	p.visibilityCacheHits.Store(0)
	p.visibilityWarmUp.Store(true)

	err := runWorkers(p.numWorkers, func(threadIndex int) error {
		return newTraceVisibilityWorker(p, threadIndex).run(ctx)
	})
	if err != nil {
		return err
	}

	logger.Infof("PhotonGI visibility total entries: %d", p.visibilityParticlesOctree.Count())
	return nil
}

// tracePhotons runs the photon tracing pass and concatenates the worker
// vectors into the global photon populations
func (p *PhotonGICache) tracePhotons(ctx context.Context) error {
	logger.Infof("PhotonGI trace photons thread count: %d", p.numWorkers)

	p.globalPhotonsCounter.Store(0)
	p.globalDirectPhotonsTraced.Store(0)
	p.globalIndirectPhotonsTraced.Store(0)
	p.globalCausticPhotonsTraced.Store(0)
	p.globalDirectSize.Store(0)
	p.globalIndirectSize.Store(0)
	p.globalCausticSize.Store(0)

	workers := make([]*tracePhotonsWorker, p.numWorkers)
	err := runWorkers(p.numWorkers, func(threadIndex int) error {
		workers[threadIndex] = newTracePhotonsWorker(p, threadIndex)
		return workers[threadIndex].run(ctx)
	})
	if err != nil {
		return err
	}

	// Copy all photons
	for _, worker := range workers {
		p.directPhotons = append(p.directPhotons, worker.directPhotons...)
		p.indirectPhotons = append(p.indirectPhotons, worker.indirectPhotons...)
		p.causticPhotons = append(p.causticPhotons, worker.causticPhotons...)
		p.radiancePhotons = append(p.radiancePhotons, worker.radiancePhotons...)
	}

	p.directPhotonTracedCount = p.globalDirectPhotonsTraced.Load()
	p.indirectPhotonTracedCount = p.globalIndirectPhotonsTraced.Load()
	p.causticPhotonTracedCount = p.globalCausticPhotonsTraced.Load()

	// globalPhotonsCounter isn't exactly the number: there is an error
	// due to the last bucket of work likely being smaller than the
	// bucket size
	logger.Infof("PhotonGI total photon traced: %d", p.globalPhotonsCounter.Load())
	logger.Infof("PhotonGI total direct photon stored: %d (%d traced)",
		len(p.directPhotons), p.directPhotonTracedCount)
	logger.Infof("PhotonGI total indirect photon stored: %d (%d traced)",
		len(p.indirectPhotons), p.indirectPhotonTracedCount)
	logger.Infof("PhotonGI total caustic photon stored: %d (%d traced)",
		len(p.causticPhotons), p.causticPhotonTracedCount)
	logger.Infof("PhotonGI total radiance photon stored: %d", len(p.radiancePhotons))

	return nil
}

// Preprocess builds the cache: visibility pass, photon tracing, BVH
// construction and radiance pre-integration. The cache either completes
// fully or reports an error; it is never half built.
func (p *PhotonGICache) Preprocess(ctx context.Context) error {
	// Visibility information is used only by the Metropolis sampler
	if p.params.SamplerType == SamplerMetropolis && p.params.Visibility.Enabled {
		if err := p.traceVisibilityParticles(ctx); err != nil {
			p.visibilityParticlesOctree = nil
			return err
		}
	}

	// Fill all photon vectors. The visibility octree is released right
	// after, whether or not tracing succeeded.
	err := p.tracePhotons(ctx)
	p.visibilityParticlesOctree = nil
	if err != nil {
		return err
	}

	// Direct light photon map
	if len(p.directPhotons) > 0 && (p.params.Direct.Enabled || p.params.Indirect.Enabled) {
		logger.Info("PhotonGI building direct photons BVH")
		p.directPhotonsBVH = NewPhotonBVH(p.directPhotons, p.params.Direct.LookUpMaxCount,
			p.params.Direct.LookUpRadius, p.params.Direct.LookUpNormalAngle)
	}

	// Indirect light photon map
	if len(p.indirectPhotons) > 0 && p.params.Indirect.Enabled {
		logger.Info("PhotonGI building indirect photons BVH")
		p.indirectPhotonsBVH = NewPhotonBVH(p.indirectPhotons, p.params.Indirect.LookUpMaxCount,
			p.params.Indirect.LookUpRadius, p.params.Indirect.LookUpNormalAngle)
	}

	// Caustic photon map
	if len(p.causticPhotons) > 0 && p.params.Caustic.Enabled {
		logger.Info("PhotonGI building caustic photons BVH")
		p.causticPhotonsBVH = NewPhotonBVH(p.causticPhotons, p.params.Caustic.LookUpMaxCount,
			p.params.Caustic.LookUpRadius, p.params.Caustic.LookUpNormalAngle)
	}

	// Radiance photon map
	if len(p.radiancePhotons) > 0 && p.params.Indirect.Enabled {
		logger.Info("PhotonGI building radiance photon data")
		p.fillRadiancePhotonsData()

		logger.Info("PhotonGI building radiance photons BVH")
		p.radiancePhotonsBVH = NewRadiancePhotonBVH(p.radiancePhotons, p.params.Indirect.LookUpMaxCount,
			p.params.Indirect.LookUpRadius, p.params.Indirect.LookUpNormalAngle)
	}

	// Check what can be freed because it is not going to be used during
	// the rendering
	if !p.params.Direct.Enabled {
		p.directPhotonsBVH = nil
		p.directPhotons = nil
	}

	// The indirect photon map can always be freed because the radiance
	// map supersedes it whenever the indirect cache is enabled
	p.indirectPhotonsBVH = nil
	p.indirectPhotons = nil

	if !p.params.Caustic.Enabled {
		p.causticPhotonsBVH = nil
		p.causticPhotons = nil
	}

	p.logMemoryUsage()

	return nil
}

func (p *PhotonGICache) logMemoryUsage() {
	photonSize := int(unsafe.Sizeof(Photon{}))
	radiancePhotonSize := int(unsafe.Sizeof(RadiancePhoton{}))

	totalMemUsage := 0
	if p.directPhotonsBVH != nil {
		photonsUsage := len(p.directPhotons) * photonSize
		logger.Infof("PhotonGI direct cache photons memory usage: %s", memString(photonsUsage))
		logger.Infof("PhotonGI direct cache BVH memory usage: %s", memString(p.directPhotonsBVH.MemoryUsage()))

		totalMemUsage += photonsUsage + p.directPhotonsBVH.MemoryUsage()
	}

	if p.causticPhotonsBVH != nil {
		photonsUsage := len(p.causticPhotons) * photonSize
		logger.Infof("PhotonGI caustic cache photons memory usage: %s", memString(photonsUsage))
		logger.Infof("PhotonGI caustic cache BVH memory usage: %s", memString(p.causticPhotonsBVH.MemoryUsage()))

		totalMemUsage += photonsUsage + p.causticPhotonsBVH.MemoryUsage()
	}

	if p.radiancePhotonsBVH != nil {
		photonsUsage := len(p.radiancePhotons) * radiancePhotonSize
		logger.Infof("PhotonGI radiance cache photons memory usage: %s", memString(photonsUsage))
		logger.Infof("PhotonGI radiance cache BVH memory usage: %s", memString(p.radiancePhotonsBVH.MemoryUsage()))

		totalMemUsage += photonsUsage + p.radiancePhotonsBVH.MemoryUsage()
	}

	logger.Infof("PhotonGI total memory usage: %s", memString(totalMemUsage))
}

// DirectPhotonsBVH returns the direct photon map, or nil when the
// direct cache is disabled or empty
func (p *PhotonGICache) DirectPhotonsBVH() *PhotonBVH { return p.directPhotonsBVH }

// IndirectPhotonsBVH returns the indirect photon map. Always nil after
// Preprocess: the radiance map supersedes it.
func (p *PhotonGICache) IndirectPhotonsBVH() *PhotonBVH { return p.indirectPhotonsBVH }

// CausticPhotonsBVH returns the caustic photon map, or nil when the
// caustic cache is disabled or empty
func (p *PhotonGICache) CausticPhotonsBVH() *PhotonBVH { return p.causticPhotonsBVH }

// RadiancePhotonsBVH returns the radiance photon map, or nil when the
// indirect cache is disabled or no radiance photon was produced
func (p *PhotonGICache) RadiancePhotonsBVH() *RadiancePhotonBVH { return p.radiancePhotonsBVH }

// DirectPhotonTracedCount returns the direct normalization count
func (p *PhotonGICache) DirectPhotonTracedCount() uint64 { return p.directPhotonTracedCount }

// IndirectPhotonTracedCount returns the indirect normalization count
func (p *PhotonGICache) IndirectPhotonTracedCount() uint64 { return p.indirectPhotonTracedCount }

// CausticPhotonTracedCount returns the caustic normalization count
func (p *PhotonGICache) CausticPhotonTracedCount() uint64 { return p.causticPhotonTracedCount }

// DirectPhotonStoredCount returns the number of stored direct photons
func (p *PhotonGICache) DirectPhotonStoredCount() int { return len(p.directPhotons) }

// CausticPhotonStoredCount returns the number of stored caustic photons
func (p *PhotonGICache) CausticPhotonStoredCount() int { return len(p.causticPhotons) }

// RadiancePhotonStoredCount returns the number of radiance photons
func (p *PhotonGICache) RadiancePhotonStoredCount() int { return len(p.radiancePhotons) }

// queryNormal flips the shading normal against the interaction side
func queryNormal(bsdf *BSDF) core.Vec3 {
	if bsdf.HitPoint.IntoObject {
		return bsdf.HitPoint.ShadeN
	}
	return bsdf.HitPoint.ShadeN.Negate()
}

// GetDirectRadiance estimates the direct radiance at the interaction
// from the direct photon map, or zero when the map is absent
func (p *PhotonGICache) GetDirectRadiance(bsdf *BSDF) core.Spectrum {
	if !bsdf.IsPhotonGIEnabled() {
		panic("photongi: GetDirectRadiance on a photon-disabled BSDF")
	}

	if p.directPhotonsBVH == nil {
		return core.Spectrum{}
	}

	entries, maxDistance2 := p.directPhotonsBVH.GetAllNearEntries(bsdf.HitPoint.P, queryNormal(bsdf))
	return processCacheEntries(entries, p.directPhotons, p.directPhotonTracedCount, maxDistance2, bsdf)
}

// GetIndirectRadiance returns the outgoing radiance of the nearest
// radiance photon, or zero when the radiance map is absent
func (p *PhotonGICache) GetIndirectRadiance(bsdf *BSDF) core.Spectrum {
	if !bsdf.IsPhotonGIEnabled() {
		panic("photongi: GetIndirectRadiance on a photon-disabled BSDF")
	}

	if p.radiancePhotonsBVH == nil {
		return core.Spectrum{}
	}

	radiancePhoton := p.radiancePhotonsBVH.GetNearestEntry(bsdf.HitPoint.P, queryNormal(bsdf))
	if radiancePhoton == nil {
		return core.Spectrum{}
	}
	return radiancePhoton.OutgoingRadiance
}

// GetCausticRadiance estimates the caustic radiance at the interaction
// from the caustic photon map, or zero when the map is absent
func (p *PhotonGICache) GetCausticRadiance(bsdf *BSDF) core.Spectrum {
	if !bsdf.IsPhotonGIEnabled() {
		panic("photongi: GetCausticRadiance on a photon-disabled BSDF")
	}

	if p.causticPhotonsBVH == nil {
		return core.Spectrum{}
	}

	entries, maxDistance2 := p.causticPhotonsBVH.GetAllNearEntries(bsdf.HitPoint.P, queryNormal(bsdf))
	return processCacheEntries(entries, p.causticPhotons, p.causticPhotonTracedCount, maxDistance2, bsdf)
}

// GetAllRadiance box-filters the radiance photons inside the radiance
// map's filter ball around the interaction. Only the closest
// lookUpMaxCount of them are averaged.
func (p *PhotonGICache) GetAllRadiance(bsdf *BSDF) core.Spectrum {
	if !bsdf.IsPhotonGIEnabled() {
		panic("photongi: GetAllRadiance on a photon-disabled BSDF")
	}

	var result core.Spectrum
	if p.radiancePhotonsBVH == nil {
		return result
	}

	entries, _ := p.radiancePhotonsBVH.GetAllNearEntries(bsdf.HitPoint.P, queryNormal(bsdf))
	if len(entries) == 0 {
		return result
	}

	for _, nearPhoton := range entries {
		result = result.Add(p.radiancePhotons[nearPhoton.EntryIndex].OutgoingRadiance)
	}
	return result.Divide(float64(len(entries)))
}
