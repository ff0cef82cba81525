package photongi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/df07/go-photon-cache/pkg/core"
	"github.com/df07/go-photon-cache/pkg/material"
	"github.com/df07/go-photon-cache/pkg/photongi"
	"github.com/df07/go-photon-cache/pkg/scene"
)

func buildCache(t *testing.T, s photongi.Scene, props photongi.Properties) *photongi.PhotonGICache {
	t.Helper()

	cache, err := photongi.FromProperties(s, props)
	if err != nil {
		t.Fatalf("FromProperties failed: %v", err)
	}
	if cache == nil {
		t.Fatal("expected a cache, got nil")
	}
	cache.SetWorkerCount(1)

	return cache
}

func matteWallBSDF(p, shadeN core.Vec3) *photongi.BSDF {
	return &photongi.BSDF{
		HitPoint: photongi.HitPoint{
			P:           p,
			ShadeN:      shadeN,
			IncomingDir: shadeN.Negate(),
			IntoObject:  true,
		},
		Material: material.NewMatte(core.NewSpectrum(0.73, 0.73, 0.73)),
	}
}

func TestPreprocess_EmptyScene(t *testing.T) {
	empty := scene.NewScene(scene.NewCamera(scene.CameraConfig{
		Center:      core.NewVec3(0, 0, -5),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40,
		AspectRatio: 1,
	}))

	cache := buildCache(t, empty, photongi.Properties{
		"path.photongi.sampler.type":              "METROPOLIS",
		"path.photongi.visibility.maxsamplecount": "4096",
		"path.photongi.indirect.enabled":          "true",
	})

	err := cache.Preprocess(context.Background())
	if !errors.Is(err, photongi.ErrEmptyScene) {
		t.Errorf("expected ErrEmptyScene, got %v", err)
	}
}

func TestPreprocess_CornellDirectOnly(t *testing.T) {
	cache := buildCache(t, scene.NewCornellScene(), photongi.Properties{
		"path.photongi.sampler.type":           "RANDOM",
		"path.photongi.photon.maxcount":        "50000",
		"path.photongi.direct.enabled":         "true",
		"path.photongi.direct.maxsize":         "10000",
		"path.photongi.direct.lookup.maxcount": "64",
		"path.photongi.direct.lookup.radius":   "50",
	})

	if err := cache.Preprocess(context.Background()); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if cache.DirectPhotonsBVH() == nil {
		t.Fatal("direct photon BVH should exist")
	}
	if cache.DirectPhotonStoredCount() == 0 || cache.DirectPhotonStoredCount() > 10000 {
		t.Errorf("stored direct photons out of budget: %d", cache.DirectPhotonStoredCount())
	}
	if cache.IndirectPhotonsBVH() != nil {
		t.Error("indirect photon BVH should always be freed")
	}
	if cache.RadiancePhotonsBVH() != nil {
		t.Error("radiance BVH should not exist without the indirect cache")
	}

	// Query a visible diffuse wall at a spot a photon landed on
	photon := cache.DirectPhotonsBVH().Photons()[0]
	radiance := cache.GetDirectRadiance(matteWallBSDF(photon.P, photon.N))
	if radiance.IsBlack() {
		t.Error("direct radiance on a lit diffuse wall should be non-zero")
	}

	if indirect := cache.GetIndirectRadiance(matteWallBSDF(photon.P, photon.N)); !indirect.IsBlack() {
		t.Errorf("indirect radiance should be zero without a radiance cache, got %v", indirect)
	}
}

func TestPreprocess_CornellIndirectOnly(t *testing.T) {
	cache := buildCache(t, scene.NewCornellScene(), photongi.Properties{
		"path.photongi.sampler.type":             "RANDOM",
		"path.photongi.photon.maxcount":          "50000",
		"path.photongi.indirect.enabled":         "true",
		"path.photongi.indirect.maxsize":         "20000",
		"path.photongi.indirect.lookup.maxcount": "64",
		"path.photongi.indirect.lookup.radius":   "50",
	})

	if err := cache.Preprocess(context.Background()); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if cache.RadiancePhotonsBVH() == nil {
		t.Fatal("radiance photon BVH should exist with the indirect cache enabled")
	}
	if cache.IndirectPhotonsBVH() != nil {
		t.Error("indirect photon BVH should be freed after the build")
	}
	if cache.DirectPhotonsBVH() != nil {
		t.Error("direct photon BVH should be freed when the direct cache is disabled")
	}

	radiancePhoton := cache.RadiancePhotonsBVH().Photons()[0]
	radiance := cache.GetIndirectRadiance(matteWallBSDF(radiancePhoton.P, radiancePhoton.N))
	if radiance.IsBlack() {
		t.Error("indirect radiance on a lit diffuse wall should be non-zero")
	}

	// GetAllRadiance box-filters the same population
	all := cache.GetAllRadiance(matteWallBSDF(radiancePhoton.P, radiancePhoton.N))
	if all.IsBlack() {
		t.Error("box-filtered radiance should be non-zero")
	}
}

func TestPreprocess_CausticFocus(t *testing.T) {
	cache := buildCache(t, scene.NewCausticScene(), photongi.Properties{
		"path.photongi.sampler.type":          "RANDOM",
		"path.photongi.photon.maxcount":       "50000",
		"path.photongi.photon.maxdepth":       "4",
		"path.photongi.caustic.enabled":       "true",
		"path.photongi.caustic.maxsize":       "50000",
		"path.photongi.caustic.lookup.radius": "0.5",
	})

	if err := cache.Preprocess(context.Background()); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if cache.CausticPhotonsBVH() == nil {
		t.Fatal("caustic photon BVH should exist")
	}
	if cache.CausticPhotonStoredCount() == 0 {
		t.Fatal("expected stored caustic photons under the glass sphere")
	}
	if cache.CausticPhotonTracedCount() == 0 {
		t.Error("caustic traced count should have been updated")
	}

	up := core.NewVec3(0, 1, 0)
	focus := cache.GetCausticRadiance(matteWallBSDF(core.NewVec3(0, 0, 0), up))
	offFocus := cache.GetCausticRadiance(matteWallBSDF(core.NewVec3(3, 0, 3), up))

	if focus.Y() <= offFocus.Y() {
		t.Errorf("caustic radiance at the focus spot (%v) should exceed the off-focus spot (%v)",
			focus.Y(), offFocus.Y())
	}
}

func TestPreprocess_BudgetCap(t *testing.T) {
	cache := buildCache(t, scene.NewCornellScene(), photongi.Properties{
		"path.photongi.sampler.type":         "RANDOM",
		"path.photongi.photon.maxcount":      "20000",
		"path.photongi.direct.enabled":       "true",
		"path.photongi.direct.maxsize":       "100",
		"path.photongi.direct.lookup.radius": "50",
	})

	if err := cache.Preprocess(context.Background()); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if cache.DirectPhotonStoredCount() > 100 {
		t.Errorf("stored direct photons exceed the budget: %d", cache.DirectPhotonStoredCount())
	}

	// The traced counter grew while the class saturated, not after: it
	// dwarfs the tiny storage budget
	if cache.DirectPhotonTracedCount() < 100*10 {
		t.Errorf("traced count should dwarf the storage budget, got %d", cache.DirectPhotonTracedCount())
	}
}

func TestQueries_PanicOnPhotonDisabledBSDF(t *testing.T) {
	cache := buildCache(t, scene.NewCornellScene(), photongi.Properties{
		"path.photongi.sampler.type":    "RANDOM",
		"path.photongi.photon.maxcount": "4096",
		"path.photongi.direct.enabled":  "true",
	})

	if err := cache.Preprocess(context.Background()); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	bsdf := &photongi.BSDF{
		HitPoint: photongi.HitPoint{
			P:      core.NewVec3(278, 0, 278),
			ShadeN: core.NewVec3(0, 1, 0),
		},
		Material: material.NewMirror(core.NewSpectrum(1, 1, 1)),
	}

	defer func() {
		if recover() == nil {
			t.Error("queries on a photon-disabled BSDF should assert")
		}
	}()
	cache.GetDirectRadiance(bsdf)
}

func TestPreprocess_Cancellation(t *testing.T) {
	cache := buildCache(t, scene.NewCornellScene(), photongi.Properties{
		"path.photongi.sampler.type":    "RANDOM",
		"path.photongi.photon.maxcount": "1000000",
		"path.photongi.direct.enabled":  "true",
		"path.photongi.direct.maxsize":  "1000000",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cache.Preprocess(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPreprocess_Idempotence(t *testing.T) {
	props := photongi.Properties{
		"path.photongi.sampler.type":         "RANDOM",
		"path.photongi.photon.maxcount":      "8192",
		"path.photongi.direct.enabled":       "true",
		"path.photongi.direct.maxsize":       "5000",
		"path.photongi.direct.lookup.radius": "50",
	}

	build := func() []photongi.Photon {
		cache := buildCache(t, scene.NewCornellScene(), props)
		if err := cache.Preprocess(context.Background()); err != nil {
			t.Fatalf("Preprocess failed: %v", err)
		}
		return cache.DirectPhotonsBVH().Photons()
	}

	first := build()
	second := build()

	if len(first) != len(second) {
		t.Fatalf("photon counts differ between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("photon %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestFromProperties_NoClassEnabled(t *testing.T) {
	cache, err := photongi.FromProperties(scene.NewCornellScene(), photongi.Properties{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache != nil {
		t.Error("no enabled class should yield no cache")
	}
}

func TestFromProperties_ConfigurationError(t *testing.T) {
	_, err := photongi.FromProperties(scene.NewCornellScene(), photongi.Properties{
		"path.photongi.sampler.type":   "HALTON",
		"path.photongi.direct.enabled": "true",
	})
	if err == nil {
		t.Error("expected a configuration error for an unknown sampler tag")
	}
}
