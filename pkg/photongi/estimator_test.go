package photongi

import (
	"math"
	"testing"

	"github.com/df07/go-photon-cache/pkg/core"
)

// mockMaterial implements Material for tests
type mockMaterial struct {
	materialType MaterialType
	albedo       core.Spectrum
	photonGI     bool
	specular     bool
}

func (m *mockMaterial) Type() MaterialType     { return m.materialType }
func (m *mockMaterial) IsPhotonGIEnabled() bool { return m.photonGI }

func (m *mockMaterial) Sample(hp HitPoint, u0, u1 float64) (core.Vec3, core.Spectrum, float64, BSDFEvent) {
	if m.specular {
		// Pass straight through
		return hp.IncomingDir, m.albedo, 1, SpecularEvent | TransmitEvent
	}

	normal := hp.ShadeN
	if !hp.IntoObject {
		normal = normal.Negate()
	}
	dir := core.SampleCosineHemisphere(normal, u0, u1)
	return dir, m.albedo, dir.Dot(normal) / math.Pi, DiffuseEvent | ReflectEvent
}

func (m *mockMaterial) Evaluate(hp HitPoint, dir core.Vec3) (core.Spectrum, BSDFEvent) {
	normal := hp.ShadeN
	if !hp.IntoObject {
		normal = normal.Negate()
	}
	cosTheta := dir.Dot(normal)
	if cosTheta <= 0 {
		return core.Spectrum{}, DiffuseEvent | ReflectEvent
	}
	return m.albedo.Multiply(cosTheta / math.Pi), DiffuseEvent | ReflectEvent
}

func (m *mockMaterial) EvaluateTotal(hp HitPoint) core.Spectrum { return m.albedo }

func matteBSDF(p, shadeN core.Vec3) *BSDF {
	return &BSDF{
		HitPoint: HitPoint{P: p, ShadeN: shadeN, IncomingDir: shadeN.Negate(), IntoObject: true},
		Material: &mockMaterial{materialType: MaterialMatte, albedo: core.NewSpectrum(0.5, 0.5, 0.5), photonGI: true},
	}
}

func TestSimpsonKernel_Values(t *testing.T) {
	p := core.NewVec3(0, 0, 0)

	// At zero distance the kernel peaks at 3/π
	got := SimpsonKernel(p, p, 1.0)
	want := 3.0 / math.Pi
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("kernel at d=0: got %v, want %v", got, want)
	}

	// At the filter boundary the kernel falls to zero
	got = SimpsonKernel(p, core.NewVec3(1, 0, 0), 1.0)
	if got != 0 {
		t.Errorf("kernel at d²=maxDist²: got %v, want 0", got)
	}

	// Halfway: 3/π · (1 − 0.25)²
	got = SimpsonKernel(p, core.NewVec3(0.5, 0, 0), 1.0)
	want = 3.0 / math.Pi * 0.75 * 0.75
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("kernel at d=0.5: got %v, want %v", got, want)
	}
}

func TestSimpsonKernel_DomainPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic outside the kernel domain")
		}
	}()

	SimpsonKernel(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), 1.0)
}

func TestProcessCacheEntries_MattePath(t *testing.T) {
	up := core.NewVec3(0, 1, 0)
	alpha := core.NewSpectrum(2, 2, 2)
	photons := []Photon{
		{P: core.NewVec3(0, 0, 0), D: up.Negate(), Alpha: alpha, N: up},
	}
	entries := []NearPhoton{{EntryIndex: 0, Distance2: 0}}

	bsdf := matteBSDF(core.NewVec3(0, 0, 0), up)

	tracedCount := uint64(100)
	maxDistance2 := 0.25
	got := processCacheEntries(entries, photons, tracedCount, maxDistance2, bsdf)

	// kernel(0) · |cos| · alpha · albedo/π / (traced · maxDist²)
	kernel := 3.0 / math.Pi
	want := alpha.Multiply(kernel * 1.0).
		MultiplySpectrum(core.NewSpectrum(0.5, 0.5, 0.5)).Multiply(1 / math.Pi).
		Divide(float64(tracedCount) * maxDistance2)

	if math.Abs(got.R-want.R) > 1e-12 || math.Abs(got.G-want.G) > 1e-12 || math.Abs(got.B-want.B) > 1e-12 {
		t.Errorf("matte path: got %v, want %v", got, want)
	}
}

func TestProcessCacheEntries_GenericPath(t *testing.T) {
	up := core.NewVec3(0, 1, 0)
	alpha := core.NewSpectrum(1, 1, 1)
	photons := []Photon{
		{P: core.NewVec3(0.1, 0, 0), D: up.Negate(), Alpha: alpha, N: up},
	}
	entries := []NearPhoton{{EntryIndex: 0, Distance2: 0.01}}

	// A non-matte material takes the generic path through Evaluate
	bsdf := &BSDF{
		HitPoint: HitPoint{P: core.NewVec3(0, 0, 0), ShadeN: up, IncomingDir: up.Negate(), IntoObject: true},
		Material: &mockMaterial{materialType: MaterialGlass, albedo: core.NewSpectrum(0.5, 0.5, 0.5), photonGI: true},
	}

	tracedCount := uint64(10)
	maxDistance2 := 1.0
	got := processCacheEntries(entries, photons, tracedCount, maxDistance2, bsdf)

	kernel := SimpsonKernel(bsdf.HitPoint.P, photons[0].P, maxDistance2)
	value, _ := bsdf.Evaluate(photons[0].D.Negate())
	want := value.MultiplySpectrum(alpha).Multiply(kernel).Divide(float64(tracedCount) * maxDistance2)

	if math.Abs(got.R-want.R) > 1e-12 {
		t.Errorf("generic path: got %v, want %v", got, want)
	}
}

func TestProcessCacheEntries_Empty(t *testing.T) {
	bsdf := matteBSDF(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))

	got := processCacheEntries(nil, nil, 100, 1.0, bsdf)
	if !got.IsBlack() {
		t.Errorf("empty entries should estimate zero, got %v", got)
	}
}
