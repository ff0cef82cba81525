package photongi

import (
	"math"
	"testing"
)

func TestParamsFromProperties_Defaults(t *testing.T) {
	params, err := ParamsFromProperties(Properties{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if params.SamplerType != SamplerMetropolis {
		t.Errorf("default sampler should be METROPOLIS, got %v", params.SamplerType)
	}
	if params.Photon.MaxTracedCount != 500000 {
		t.Errorf("default photon maxcount should be 500000, got %d", params.Photon.MaxTracedCount)
	}
	if params.Photon.MaxPathDepth != 4 {
		t.Errorf("default photon maxdepth should be 4, got %d", params.Photon.MaxPathDepth)
	}
	if !params.Visibility.Enabled {
		t.Error("visibility should be enabled by default with the metropolis sampler")
	}
	if params.Visibility.TargetHitRate != 0.99 {
		t.Errorf("default target hit rate should be 0.99, got %v", params.Visibility.TargetHitRate)
	}
	if params.Visibility.MaxSampleCount != 1048576 {
		t.Errorf("default visibility max sample count should be 1048576, got %d", params.Visibility.MaxSampleCount)
	}
	if params.Direct.Enabled || params.Indirect.Enabled || params.Caustic.Enabled {
		t.Error("all photon classes should be disabled by default")
	}
	if params.Direct.LookUpRadius != 0.15 || params.Direct.LookUpNormalAngle != 10 {
		t.Errorf("unexpected default direct lookup parameters: %+v", params.Direct)
	}
	if params.Caustic.LookUpMaxCount != 256 {
		t.Errorf("default caustic lookup maxcount should be 256, got %d", params.Caustic.LookUpMaxCount)
	}
}

func TestParamsFromProperties_UnknownSampler(t *testing.T) {
	_, err := ParamsFromProperties(Properties{"path.photongi.sampler.type": "SOBOL"})
	if err == nil {
		t.Error("expected an error for an unknown sampler type")
	}
}

func TestParamsFromProperties_UnknownDebugType(t *testing.T) {
	_, err := ParamsFromProperties(Properties{"path.photongi.debug.type": "showall"})
	if err == nil {
		t.Error("expected an error for an unknown debug type")
	}
}

func TestParamsFromProperties_RandomSamplerDisablesVisibility(t *testing.T) {
	params, err := ParamsFromProperties(Properties{"path.photongi.sampler.type": "RANDOM"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Visibility.Enabled {
		t.Error("visibility should be disabled with the random sampler")
	}
}

func TestParamsNormalize_DerivedDirect(t *testing.T) {
	params := Params{
		Photon:   PhotonParams{MaxTracedCount: 100000, MaxPathDepth: 4},
		Indirect: ClassParams{Enabled: true, MaxSize: 20000, LookUpMaxCount: 48, LookUpRadius: 0.2, LookUpNormalAngle: 15},
	}
	params.normalize()

	// Direct parameters are derived from indirect so the radiance
	// cache can be built
	if params.Direct.MaxSize != 5000 {
		t.Errorf("derived direct maxSize should be 20000/4, got %d", params.Direct.MaxSize)
	}
	if params.Direct.LookUpMaxCount != 48 {
		t.Errorf("derived direct lookUpMaxCount should be copied, got %d", params.Direct.LookUpMaxCount)
	}
	if params.Direct.LookUpRadius != 0.2 || params.Direct.LookUpNormalAngle != 15 {
		t.Errorf("derived direct lookup fields should be copied: %+v", params.Direct)
	}
}

func TestParamsNormalize_DisabledBudgetsZeroed(t *testing.T) {
	params := Params{
		Photon:  PhotonParams{MaxTracedCount: 100000, MaxPathDepth: 4},
		Direct:  ClassParams{Enabled: false, MaxSize: 25000},
		Caustic: ClassParams{Enabled: false, MaxSize: 100000},
	}
	params.normalize()

	if params.Direct.MaxSize != 0 || params.Indirect.MaxSize != 0 || params.Caustic.MaxSize != 0 {
		t.Errorf("disabled budgets should be zeroed: %d/%d/%d",
			params.Direct.MaxSize, params.Indirect.MaxSize, params.Caustic.MaxSize)
	}
}

func TestParamsNormalize_CachedSquaresAndCosines(t *testing.T) {
	params := Params{
		Photon:     PhotonParams{MaxTracedCount: 100000, MaxPathDepth: 4},
		Visibility: VisibilityParams{Enabled: true, LookUpRadius: 0.25, LookUpNormalAngle: 10},
		Direct:     ClassParams{Enabled: true, MaxSize: 1000, LookUpRadius: 0.5, LookUpNormalAngle: 30},
	}
	params.normalize()

	if params.Visibility.LookUpRadius2 != 0.0625 {
		t.Errorf("visibility lookUpRadius2 should be 0.0625, got %v", params.Visibility.LookUpRadius2)
	}
	if params.Direct.LookUpRadius2 != 0.25 {
		t.Errorf("direct lookUpRadius2 should be 0.25, got %v", params.Direct.LookUpRadius2)
	}

	wantCos := math.Cos(30 * math.Pi / 180)
	if math.Abs(params.Direct.NormalCosAngle-wantCos) > 1e-12 {
		t.Errorf("direct normalCosAngle should be cos(30°), got %v", params.Direct.NormalCosAngle)
	}
}

func TestSamplerTypeRoundTrip(t *testing.T) {
	for _, samplerType := range []SamplerType{SamplerRandom, SamplerMetropolis} {
		parsed, err := SamplerTypeFromString(samplerType.String())
		if err != nil {
			t.Fatalf("round trip of %v failed: %v", samplerType, err)
		}
		if parsed != samplerType {
			t.Errorf("round trip of %v returned %v", samplerType, parsed)
		}
	}
}

func TestDebugTypeRoundTrip(t *testing.T) {
	for _, debugType := range []DebugType{DebugNone, DebugShowDirect, DebugShowIndirect, DebugShowCaustic} {
		parsed, err := DebugTypeFromString(debugType.String())
		if err != nil {
			t.Fatalf("round trip of %v failed: %v", debugType, err)
		}
		if parsed != debugType {
			t.Errorf("round trip of %v returned %v", debugType, parsed)
		}
	}
}
