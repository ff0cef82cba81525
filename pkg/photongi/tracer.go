package photongi

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/df07/go-photon-cache/pkg/core"
)

const (
	// photonWorkBucketSize is the unit of atomic work each worker
	// competes for on the traced-photon budget
	photonWorkBucketSize = 4096

	// sampleBootSize samples set up a light path: camera time, light
	// pick and the five light emission samples
	sampleBootSize = 7

	// sampleStepSize samples serve each light path vertex: one for the
	// intersection pass-through, one reserved, two for the BSDF sample
	sampleStepSize = 4

	// metropolisBootstrapAttempts bounds the search for an initial
	// useful path before the scene is declared empty
	metropolisBootstrapAttempts = 16384

	// radiancePhotonProb subsamples radiance photon deposition at
	// vertices that stored a photon. A tuning constant, not a contract.
	radiancePhotonProb = 0.9

	// metropolisTargetAcceptance is the optimal asymptotic acceptance
	// ratio derived in [Roberts et al. 1997]
	metropolisTargetAcceptance = 0.234
)

// pathPhotons collects the photons deposited by a single light path
type pathPhotons struct {
	direct   []Photon
	indirect []Photon
	caustic  []Photon
	radiance []RadiancePhoton
}

func (p *pathPhotons) reset() {
	p.direct = p.direct[:0]
	p.indirect = p.indirect[:0]
	p.caustic = p.caustic[:0]
	p.radiance = p.radiance[:0]
}

// tracePhotonsWorker traces light paths and deposits photons into its
// own local vectors. The metropolis sampler of Hachisuka and Jensen,
// "Robust Adaptive Photon Tracing using Photon Path Visibility", runs
// per work bucket.
type tracePhotonsWorker struct {
	pgic        *PhotonGICache
	threadIndex int
	rnd         *rand.Rand

	directPhotons   []Photon
	indirectPhotons []Photon
	causticPhotons  []Photon
	radiancePhotons []RadiancePhoton

	// Population-full snapshots, taken once per bucket before the
	// traced counters are incremented
	directDone   bool
	indirectDone bool
	causticDone  bool

	sampleSize int
}

func newTracePhotonsWorker(pgic *PhotonGICache, threadIndex int) *tracePhotonsWorker {
	return &tracePhotonsWorker{
		pgic:        pgic,
		threadIndex: threadIndex,
		rnd:         rand.New(rand.NewSource(int64(1 + threadIndex))),
		sampleSize:  sampleBootSize + pgic.params.Photon.MaxPathDepth*sampleStepSize,
	}
}

// uniformMutate redraws every sample uniformly
func (w *tracePhotonsWorker) uniformMutate(samples []float64) {
	for i := range samples {
		samples[i] = w.rnd.Float64()
	}
}

// mutate perturbs every sample of the current path independently with
// an exponential kernel of the given step, wrapping into [0, 1)
func (w *tracePhotonsWorker) mutate(currentPathSamples, candidatePathSamples []float64, mutationSize float64) {
	for i, sample := range currentPathSamples {
		deltaU := math.Pow(w.rnd.Float64(), 1/mutationSize+1)

		mutateValue := sample
		if w.rnd.Float64() < 0.5 {
			mutateValue += deltaU
			if mutateValue >= 1 {
				mutateValue -= 1
			}
		} else {
			mutateValue -= deltaU
			if mutateValue < 0 {
				mutateValue += 1
			}
		}

		// mutateValue can still be 1 due to numerical precision problems
		if mutateValue == 1 {
			mutateValue = 0
		}
		candidatePathSamples[i] = mutateValue
	}
}

// tracePhotonPath traces one light path from the sample vector and
// classifies the photons it deposits. It returns true when the path
// deposited at least one photon class the cache wants.
func (w *tracePhotonsWorker) tracePhotonPath(samples []float64, out *pathPhotons) bool {
	out.reset()

	pgic := w.pgic
	scene := pgic.scene
	camera := scene.Camera()

	usefulPath := false

	rayTime := camera.GenerateRayTime(samples[0])

	// Select one light source
	light, lightPickPdf := scene.EmitLightStrategy().SampleLights(samples[1])
	if light == nil {
		return false
	}

	// Initialize the light path
	origin, dir, lightEmitPdfW, lightPathFlux := light.Emit(
		samples[2], samples[3], samples[4], samples[5], samples[6])
	if lightPathFlux.IsBlack() {
		return false
	}

	ray := core.NewRay(origin, dir)
	ray.Time = rayTime

	lightPathFlux = lightPathFlux.Divide(lightEmitPdfW * lightPickPdf)
	if lightPathFlux.IsNaN() || lightPathFlux.IsInf() {
		panic("photongi: non-finite light path flux after emission pdf divide")
	}

	specularPath := true
	for depth := 1; depth <= pgic.params.Photon.MaxPathDepth; depth++ {
		sampleOffset := sampleBootSize + (depth-1)*sampleStepSize

		bsdf, connectionThroughput, hit := scene.Intersect(&ray, samples[sampleOffset])
		if !hit {
			// Ray lost in space
			break
		}

		lightPathFlux = lightPathFlux.MultiplySpectrum(connectionThroughput)

		// Deposit photons only on diffuse surfaces
		if bsdf.IsPhotonGIEnabled() {
			// Flip the normal if required
			landingSurfaceNormal := bsdf.HitPoint.ShadeN
			if bsdf.HitPoint.ShadeN.Dot(ray.Direction.Negate()) <= 0 {
				landingSurfaceNormal = landingSurfaceNormal.Negate()
			}

			visiblePoint := true
			if pgic.visibilityParticlesOctree != nil {
				// Check if the point is visible
				visiblePoint = pgic.visibilityParticlesOctree.GetNearestEntry(bsdf.HitPoint.P, landingSurfaceNormal) != NullIndex
			}

			if visiblePoint {
				usedPhoton := false
				if depth == 1 && (pgic.params.Direct.Enabled || pgic.params.Indirect.Enabled) {
					// It is a direct light photon
					if !w.directDone {
						out.direct = append(out.direct, Photon{
							P: bsdf.HitPoint.P, D: ray.Direction,
							Alpha: lightPathFlux, N: landingSurfaceNormal,
						})
						usedPhoton = true
					}

					usefulPath = true
				} else if depth > 1 && specularPath && pgic.params.Caustic.Enabled {
					// It is a caustic photon
					if !w.causticDone {
						out.caustic = append(out.caustic, Photon{
							P: bsdf.HitPoint.P, D: ray.Direction,
							Alpha: lightPathFlux, N: landingSurfaceNormal,
						})
						usedPhoton = true
					}

					usefulPath = true
				} else if pgic.params.Indirect.Enabled {
					// It is an indirect photon
					if !w.indirectDone {
						out.indirect = append(out.indirect, Photon{
							P: bsdf.HitPoint.P, D: ray.Direction,
							Alpha: lightPathFlux, N: landingSurfaceNormal,
						})
						usedPhoton = true
					}

					usefulPath = true
				}

				// Decide if to deposit a radiance photon. The albedo is
				// saved in place of the outgoing radiance and rewritten
				// during pre-integration.
				if usedPhoton && pgic.params.Indirect.Enabled && w.rnd.Float64() < radiancePhotonProb {
					out.radiance = append(out.radiance, RadiancePhoton{
						P: bsdf.HitPoint.P, N: landingSurfaceNormal,
						OutgoingRadiance: bsdf.EvaluateTotal(),
					})
				}
			}
		}

		if depth >= pgic.params.Photon.MaxPathDepth {
			break
		}

		// Build the next vertex path ray
		sampledDir, bsdfSample, _, event := bsdf.Sample(
			samples[sampleOffset+2], samples[sampleOffset+3])
		if bsdfSample.IsBlack() {
			break
		}

		// Is it still a specular path?
		specularPath = specularPath && (event&SpecularEvent != 0)

		lightPathFlux = lightPathFlux.MultiplySpectrum(bsdfSample)
		if lightPathFlux.IsNaN() || lightPathFlux.IsInf() {
			panic("photongi: non-finite light path flux after BSDF sample")
		}

		ray = core.NewRay(bsdf.HitPoint.P, sampledDir)
		ray.Time = rayTime
	}

	return usefulPath
}

// reserveSlot claims one storage slot under the population budget. The
// counter never exceeds the limit, so it always equals the number of
// stored entries.
func reserveSlot(counter *atomic.Uint64, limit uint64) bool {
	for {
		current := counter.Load()
		if current >= limit {
			return false
		}
		if counter.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// addPhotons appends a path's photons to the worker vectors, scaling
// the photon energies by scale. Every stored photon claims a slot of
// its population budget first. Radiance photons carry albedos at this
// stage, not radiometric values, and are never scaled.
func (w *tracePhotonsWorker) addPhotons(scale float64, path *pathPhotons) {
	pgic := w.pgic

	for _, photon := range path.direct {
		if !reserveSlot(&pgic.globalDirectSize, uint64(pgic.params.Direct.MaxSize)) {
			break
		}
		photon.Alpha = photon.Alpha.Multiply(scale)
		w.directPhotons = append(w.directPhotons, photon)
	}
	for _, photon := range path.indirect {
		if !reserveSlot(&pgic.globalIndirectSize, uint64(pgic.params.Indirect.MaxSize)) {
			break
		}
		photon.Alpha = photon.Alpha.Multiply(scale)
		w.indirectPhotons = append(w.indirectPhotons, photon)
	}
	for _, photon := range path.caustic {
		if !reserveSlot(&pgic.globalCausticSize, uint64(pgic.params.Caustic.MaxSize)) {
			break
		}
		photon.Alpha = photon.Alpha.Multiply(scale)
		w.causticPhotons = append(w.causticPhotons, photon)
	}

	w.radiancePhotons = append(w.radiancePhotons, path.radiance...)
}

// acquireBucket competes for the next work bucket. It returns the
// bucket size to trace, or 0 when the traced-photon budget is spent.
// The population-full flags are snapshotted before the per-class traced
// counters are incremented so saturated classes are not over-normalized.
func (w *tracePhotonsWorker) acquireBucket() int {
	pgic := w.pgic

	var workCounter uint64
	for {
		workCounter = pgic.globalPhotonsCounter.Load()
		if pgic.globalPhotonsCounter.CompareAndSwap(workCounter, workCounter+photonWorkBucketSize) {
			break
		}
	}

	maxTracedCount := uint64(pgic.params.Photon.MaxTracedCount)
	if workCounter >= maxTracedCount {
		return 0
	}

	w.directDone = pgic.globalDirectSize.Load() >= uint64(pgic.params.Direct.MaxSize)
	w.indirectDone = pgic.globalIndirectSize.Load() >= uint64(pgic.params.Indirect.MaxSize)
	w.causticDone = pgic.globalCausticSize.Load() >= uint64(pgic.params.Caustic.MaxSize)

	workToDo := uint64(photonWorkBucketSize)
	if workCounter+workToDo > maxTracedCount {
		workToDo = maxTracedCount - workCounter
	}

	if !w.directDone {
		pgic.globalDirectPhotonsTraced.Add(workToDo)
	}
	if !w.indirectDone {
		pgic.globalIndirectPhotonsTraced.Add(workToDo)
	}
	if !w.causticDone {
		pgic.globalCausticPhotonsTraced.Add(workToDo)
	}

	return int(workToDo)
}

// classProgress reports how full a population is, in percent. Disabled
// classes count as complete.
func classProgress(params ClassParams, size uint64) float64 {
	if !params.Enabled {
		return 100
	}
	if size == 0 {
		return 0
	}
	return 100 * float64(size) / float64(params.MaxSize)
}

// logProgress prints tracing progress from worker 0 on a two second
// cadence
func (w *tracePhotonsWorker) logProgress(workCounter uint64, startTime time.Time, lastPrintTime *time.Time) {
	if w.threadIndex != 0 {
		return
	}

	now := time.Now()
	if now.Sub(*lastPrintTime) < 2*time.Second {
		return
	}
	*lastPrintTime = now

	pgic := w.pgic
	maxTracedCount := pgic.params.Photon.MaxTracedCount

	logger.Infof("PhotonGI Cache photon traced: %d/%d [%.1f%%, %.1fM photons/sec, Map sizes (%.1f%%, %.1f%%, %.1f%%)]",
		workCounter, maxTracedCount,
		100*float64(workCounter)/float64(maxTracedCount),
		float64(workCounter)/(1e6*time.Since(startTime).Seconds()),
		classProgress(pgic.params.Direct, pgic.globalDirectSize.Load()),
		classProgress(pgic.params.Indirect, pgic.globalIndirectSize.Load()),
		classProgress(pgic.params.Caustic, pgic.globalCausticSize.Load()))
}

// run is the worker loop: acquire a bucket, trace it with the selected
// sampler (stored photons claim their population slots as they are
// added), stop when the budget is spent or every population has filled
// up.
func (w *tracePhotonsWorker) run(ctx context.Context) error {
	pgic := w.pgic

	currentPathSamples := make([]float64, w.sampleSize)
	candidatePathSamples := make([]float64, w.sampleSize)
	uniformPathSamples := make([]float64, w.sampleSize)

	var current, candidate, uniform pathPhotons

	startTime := time.Now()
	lastPrintTime := startTime

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		workToDo := w.acquireBucket()
		if workToDo == 0 {
			break
		}

		w.logProgress(pgic.globalPhotonsCounter.Load(), startTime, &lastPrintTime)

		directPhotonsStart := len(w.directPhotons)
		indirectPhotonsStart := len(w.indirectPhotons)
		causticPhotonsStart := len(w.causticPhotons)

		switch pgic.params.SamplerType {
		case SamplerMetropolis:
			// Look for a useful path to start with
			foundUseful := false
			for i := 0; i < metropolisBootstrapAttempts; i++ {
				w.uniformMutate(currentPathSamples)

				if w.tracePhotonPath(currentPathSamples, &current) {
					foundUseful = true
					break
				}
			}

			if !foundUseful {
				return ErrEmptyScene
			}

			// Trace light paths
			currentPhotonsScale := 1.0
			mutationSize := 1.0
			acceptedCount := 1
			mutatedCount := 1
			uniformCount := 1

			for workToDoIndex := workToDo; workToDoIndex > 0; workToDoIndex-- {
				if err := ctx.Err(); err != nil {
					return err
				}

				w.uniformMutate(uniformPathSamples)

				if w.tracePhotonPath(uniformPathSamples, &uniform) {
					// Add the old current photons (scaled by currentPhotonsScale)
					w.addPhotons(currentPhotonsScale, &current)

					// The uniform path becomes the current one
					currentPathSamples, uniformPathSamples = uniformPathSamples, currentPathSamples
					current, uniform = uniform, current

					currentPhotonsScale = 1
					uniformCount++
				} else {
					// Try a mutation of the current path
					w.mutate(currentPathSamples, candidatePathSamples, mutationSize)
					mutatedCount++

					if w.tracePhotonPath(candidatePathSamples, &candidate) {
						// Add the old current photons (scaled by currentPhotonsScale)
						w.addPhotons(currentPhotonsScale, &current)

						// The candidate path becomes the current one
						currentPathSamples, candidatePathSamples = candidatePathSamples, currentPathSamples
						current, candidate = candidate, current

						currentPhotonsScale = 1
						acceptedCount++
					} else {
						currentPhotonsScale++
					}

					acceptance := float64(acceptedCount) / float64(mutatedCount)
					mutationSize += (acceptance - metropolisTargetAcceptance) / float64(mutatedCount)
				}
			}

			// Add the last current photons (scaled by currentPhotonsScale)
			if currentPhotonsScale > 1 {
				w.addPhotons(currentPhotonsScale, &current)
			}

			// Scale all photon values appended during this bucket
			scaleFactor := float64(uniformCount) / float64(workToDo)

			for i := directPhotonsStart; i < len(w.directPhotons); i++ {
				w.directPhotons[i].Alpha = w.directPhotons[i].Alpha.Multiply(scaleFactor)
			}
			for i := indirectPhotonsStart; i < len(w.indirectPhotons); i++ {
				w.indirectPhotons[i].Alpha = w.indirectPhotons[i].Alpha.Multiply(scaleFactor)
			}
			for i := causticPhotonsStart; i < len(w.causticPhotons); i++ {
				w.causticPhotons[i].Alpha = w.causticPhotons[i].Alpha.Multiply(scaleFactor)
			}

		case SamplerRandom:
			// Trace light paths
			for workToDoIndex := workToDo; workToDoIndex > 0; workToDoIndex-- {
				if err := ctx.Err(); err != nil {
					return err
				}

				w.uniformMutate(currentPathSamples)
				w.tracePhotonPath(currentPathSamples, &current)

				// Add the new photons
				w.addPhotons(1, &current)
			}
		}

		// The check can run only here because the traced counters were
		// already incremented for this bucket
		if w.directDone && w.indirectDone && w.causticDone {
			break
		}
	}

	return nil
}
