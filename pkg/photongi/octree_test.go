package photongi

import (
	"sync"
	"testing"

	"github.com/df07/go-photon-cache/pkg/core"
)

func testOctree() *Octree {
	bbox := core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(10, 10, 10))
	return NewOctree(bbox, 0.5, 10)
}

func TestOctree_AdmitDeduplicates(t *testing.T) {
	octree := testOctree()
	up := core.NewVec3(0, 1, 0)

	if !octree.Admit(VisibilityParticle{P: core.NewVec3(5, 5, 5), N: up}) {
		t.Fatal("first particle should be admitted")
	}
	if octree.Admit(VisibilityParticle{P: core.NewVec3(5.1, 5, 5), N: up}) {
		t.Error("particle within the lookup radius should be rejected")
	}
	if !octree.Admit(VisibilityParticle{P: core.NewVec3(6, 5, 5), N: up}) {
		t.Error("particle outside the lookup radius should be admitted")
	}

	if octree.Count() != 2 {
		t.Errorf("expected 2 particles, got %d", octree.Count())
	}
}

func TestOctree_AdmitIncompatibleNormal(t *testing.T) {
	octree := testOctree()

	if !octree.Admit(VisibilityParticle{P: core.NewVec3(5, 5, 5), N: core.NewVec3(0, 1, 0)}) {
		t.Fatal("first particle should be admitted")
	}

	// Same position, orthogonal normal: a different cache neighborhood
	if !octree.Admit(VisibilityParticle{P: core.NewVec3(5, 5, 5), N: core.NewVec3(1, 0, 0)}) {
		t.Error("particle with an incompatible normal should be admitted")
	}
}

func TestOctree_GetNearestEntry(t *testing.T) {
	octree := testOctree()
	up := core.NewVec3(0, 1, 0)

	if octree.GetNearestEntry(core.NewVec3(5, 5, 5), up) != NullIndex {
		t.Error("empty octree should return NullIndex")
	}

	octree.Admit(VisibilityParticle{P: core.NewVec3(5, 5, 5), N: up})
	octree.Admit(VisibilityParticle{P: core.NewVec3(7, 5, 5), N: up})

	if index := octree.GetNearestEntry(core.NewVec3(5.2, 5, 5), up); index != 0 {
		t.Errorf("expected particle 0, got %d", index)
	}
	if index := octree.GetNearestEntry(core.NewVec3(6.9, 5, 5), up); index != 1 {
		t.Errorf("expected particle 1, got %d", index)
	}
	if index := octree.GetNearestEntry(core.NewVec3(6, 8, 5), up); index != NullIndex {
		t.Errorf("expected NullIndex far from all particles, got %d", index)
	}
	if index := octree.GetNearestEntry(core.NewVec3(5, 5, 5), core.NewVec3(1, 0, 0)); index != NullIndex {
		t.Errorf("expected NullIndex for an incompatible normal, got %d", index)
	}
}

func TestOctree_ConcurrentAdmission(t *testing.T) {
	octree := testOctree()
	up := core.NewVec3(0, 1, 0)

	// Many goroutines racing to admit the same particle: exactly one
	// admission may win
	var wg sync.WaitGroup
	admitted := make([]bool, 32)
	for i := range admitted {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			admitted[slot] = octree.Admit(VisibilityParticle{P: core.NewVec3(5, 5, 5), N: up})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, won := range admitted {
		if won {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one admission, got %d", wins)
	}
	if octree.Count() != 1 {
		t.Errorf("expected 1 particle, got %d", octree.Count())
	}
}

func TestOctree_BoundaryRadius(t *testing.T) {
	octree := testOctree()
	up := core.NewVec3(0, 1, 0)

	octree.Admit(VisibilityParticle{P: core.NewVec3(5, 5, 5), N: up})

	// A query exactly at the lookup radius is still a hit
	if index := octree.GetNearestEntry(core.NewVec3(5.5, 5, 5), up); index != 0 {
		t.Errorf("expected a hit at the lookup radius, got %d", index)
	}
	if index := octree.GetNearestEntry(core.NewVec3(5.51, 5, 5), up); index != NullIndex {
		t.Errorf("expected a miss just outside the lookup radius, got %d", index)
	}
}
