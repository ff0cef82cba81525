package photongi

import (
	"math"
	"testing"

	"github.com/df07/go-photon-cache/pkg/core"
)

func TestFillRadiancePhotonsData(t *testing.T) {
	up := core.NewVec3(0, 1, 0)
	alpha := core.NewSpectrum(2, 2, 2)
	albedo := core.NewSpectrum(0.5, 0.5, 0.5)

	pgic := &PhotonGICache{numWorkers: 1}
	pgic.directPhotons = []Photon{
		{P: core.NewVec3(0, 0, 0), D: up.Negate(), Alpha: alpha, N: up},
	}
	pgic.directPhotonTracedCount = 10
	pgic.directPhotonsBVH = NewPhotonBVH(pgic.directPhotons, 64, 0.5, 10)

	pgic.radiancePhotons = []RadiancePhoton{
		{P: core.NewVec3(0, 0, 0), N: up, OutgoingRadiance: albedo},
	}

	pgic.fillRadiancePhotonsData()

	// Box filter: alpha · |cos(n, −d)| / (traced · maxDist² · π),
	// then scaled by the saved albedo over π
	maxDistance2 := 0.25
	irradiance := alpha.Multiply(1.0).Divide(10 * maxDistance2 * math.Pi)
	want := irradiance.MultiplySpectrum(albedo).Multiply(1 / math.Pi)

	got := pgic.radiancePhotons[0].OutgoingRadiance
	if math.Abs(got.R-want.R) > 1e-12 {
		t.Errorf("pre-integrated radiance: got %v, want %v", got, want)
	}
}

func TestFillRadiancePhotonsData_NoNeighborPhotons(t *testing.T) {
	up := core.NewVec3(0, 1, 0)

	pgic := &PhotonGICache{numWorkers: 1}
	pgic.radiancePhotons = []RadiancePhoton{
		{P: core.NewVec3(0, 0, 0), N: up, OutgoingRadiance: core.NewSpectrum(0.5, 0.5, 0.5)},
	}

	pgic.fillRadiancePhotonsData()

	// With no photon maps the scratch albedo is replaced by zero
	if !pgic.radiancePhotons[0].OutgoingRadiance.IsBlack() {
		t.Errorf("expected zero outgoing radiance, got %v", pgic.radiancePhotons[0].OutgoingRadiance)
	}
}

func TestAddOutgoingRadiance_NormalFilter(t *testing.T) {
	up := core.NewVec3(0, 1, 0)
	side := core.NewVec3(1, 0, 0)

	pgic := &PhotonGICache{numWorkers: 1}
	pgic.directPhotons = []Photon{
		{P: core.NewVec3(0, 0, 0), D: up.Negate(), Alpha: core.NewSpectrum(1, 1, 1), N: side},
	}
	pgic.directPhotonTracedCount = 1
	pgic.directPhotonsBVH = NewPhotonBVH(pgic.directPhotons, 64, 0.5, 10)

	radiancePhoton := RadiancePhoton{P: core.NewVec3(0, 0, 0), N: up}
	pgic.addOutgoingRadiance(&radiancePhoton, pgic.directPhotonsBVH, 1)

	if !radiancePhoton.OutgoingRadiance.IsBlack() {
		t.Errorf("photons with incompatible normals should not contribute, got %v", radiancePhoton.OutgoingRadiance)
	}
}
