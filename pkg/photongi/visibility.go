package photongi

import (
	"context"
	"math/rand"

	"github.com/df07/go-photon-cache/pkg/core"
)

const (
	// visibilityWarmUpMinParticles octree entries must exist before the
	// hit-rate statistics become meaningful
	visibilityWarmUpMinParticles = 512

	// visibilityMinLookUps lookups must be counted before the hit-rate
	// termination test may fire
	visibilityMinLookUps = 1 << 14
)

// traceVisibilityWorker distributes visibility particles over the
// surfaces the camera can see. Camera-visible points are found with a
// low-discrepancy sequence keyed by the worker index and admitted into
// the shared octree; workers exit cooperatively once the octree stops
// growing (the hit rate reaches its target) or the sample budget runs
// out.
type traceVisibilityWorker struct {
	pgic        *PhotonGICache
	threadIndex int
	sampler     *core.HaltonSampler
	rnd         *rand.Rand
}

func newTraceVisibilityWorker(pgic *PhotonGICache, threadIndex int) *traceVisibilityWorker {
	return &traceVisibilityWorker{
		pgic:        pgic,
		threadIndex: threadIndex,
		sampler:     core.NewHaltonSampler(uint64(threadIndex) << 24),
		rnd:         rand.New(rand.NewSource(int64(1 + threadIndex))),
	}
}

func (w *traceVisibilityWorker) run(ctx context.Context) error {
	pgic := w.pgic
	scene := pgic.scene
	camera := scene.Camera()
	octree := pgic.visibilityParticlesOctree
	maxPathDepth := pgic.params.Photon.MaxPathDepth

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if pgic.globalVisibilitySampleCount.Add(1) > uint64(pgic.params.Visibility.MaxSampleCount) {
			return nil
		}

		filmU, filmV, timeU := w.sampler.Next()
		time := camera.GenerateRayTime(timeU)
		ray := camera.GenerateRay(filmU, filmV, time)

		// Walk a short path from the camera; every photon-enabled
		// surface along it is a place rendering will look
		for depth := 1; depth <= maxPathDepth; depth++ {
			bsdf, _, hit := scene.Intersect(&ray, w.rnd.Float64())
			if !hit {
				break
			}

			if bsdf.IsPhotonGIEnabled() {
				landingSurfaceNormal := bsdf.HitPoint.ShadeN
				if bsdf.HitPoint.ShadeN.Dot(ray.Direction.Negate()) <= 0 {
					landingSurfaceNormal = landingSurfaceNormal.Negate()
				}

				added := octree.Admit(VisibilityParticle{
					P: bsdf.HitPoint.P,
					N: landingSurfaceNormal,
				})
				if added {
					pgic.globalVisibilityParticlesCount.Add(1)
				}

				if pgic.visibilityWarmUp.Load() {
					// Force full sampling until the octree has grown
					// enough to give meaningful hit-rate statistics
					if pgic.globalVisibilityParticlesCount.Load() >= visibilityWarmUpMinParticles {
						pgic.visibilityWarmUp.Store(false)
					}
				} else {
					lookUps := pgic.visibilityCacheLookUp.Add(1)

					var hits uint64
					if added {
						hits = pgic.visibilityCacheHits.Load()
					} else {
						hits = pgic.visibilityCacheHits.Add(1)
					}

					if lookUps >= visibilityMinLookUps {
						hitRate := float64(hits) / float64(lookUps)
						if hitRate >= pgic.params.Visibility.TargetHitRate {
							return nil
						}
					}
				}
			}

			if depth >= maxPathDepth {
				break
			}

			sampledDir, bsdfSample, _, _ := bsdf.Sample(w.rnd.Float64(), w.rnd.Float64())
			if bsdfSample.IsBlack() {
				break
			}

			ray = core.NewRay(bsdf.HitPoint.P, sampledDir)
			ray.Time = time
		}
	}
}
