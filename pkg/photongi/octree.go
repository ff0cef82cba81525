package photongi

import (
	"math"
	"sync"

	"github.com/df07/go-photon-cache/pkg/core"
)

// NullIndex marks a failed octree lookup
const NullIndex = -1

// octreeMaxDepth bounds the subdivision depth regardless of the ratio
// between the world size and the lookup radius
const octreeMaxDepth = 16

// octreeNode is one cell of the visibility octree. Particle indices are
// stored at the deepest cells their lookup ball overlaps.
type octreeNode struct {
	children [8]*octreeNode
	entries  []int
}

// Octree indexes visibility particles for point membership queries. It
// may be built incrementally as particles are discovered: Admit
// performs a locked lookup-and-insert so that at most one particle is
// admitted per lookup neighborhood. GetNearestEntry is lock-free and
// must only be used once insertion has stopped.
type Octree struct {
	mu        sync.Mutex
	particles []VisibilityParticle

	root      octreeNode
	worldBBox core.AABB
	maxDepth  int

	lookUpRadius   float64
	lookUpRadius2  float64
	normalCosAngle float64
}

// NewOctree creates an empty visibility octree over the given world
// bounds with the radius and normal angle of the visibility filter
func NewOctree(worldBBox core.AABB, lookUpRadius, lookUpNormalAngle float64) *Octree {
	// Subdividing cells below the lookup radius only adds pointer
	// chasing without narrowing any query
	depth := 1
	if extent := worldBBox.MaxExtent(); extent > lookUpRadius {
		depth = int(math.Ceil(math.Log2(extent / lookUpRadius)))
	}
	if depth > octreeMaxDepth {
		depth = octreeMaxDepth
	}

	return &Octree{
		worldBBox:      worldBBox,
		maxDepth:       depth,
		lookUpRadius:   lookUpRadius,
		lookUpRadius2:  lookUpRadius * lookUpRadius,
		normalCosAngle: math.Cos(radians(lookUpNormalAngle)),
	}
}

// Count returns the number of admitted particles
func (o *Octree) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.particles)
}

// Particles returns the admitted particle vector. Callers must not use
// it while insertions are still running.
func (o *Octree) Particles() []VisibilityParticle {
	return o.particles
}

// Admit inserts the particle unless a compatible particle already lies
// within the lookup radius. It returns true when the particle was
// inserted. The lookup and the insertion happen under one lock so the
// admission is at-most-once per neighborhood.
func (o *Octree) Admit(particle VisibilityParticle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.nearestEntry(particle.P, particle.N, particle.IsVolume) != NullIndex {
		return false
	}

	index := len(o.particles)
	o.particles = append(o.particles, particle)
	o.insert(&o.root, o.worldBBox, 1, index)
	return true
}

// GetNearestEntry returns the index of the nearest compatible particle
// within the lookup radius, or NullIndex. Lock-free: only valid once
// the insertion phase has fully joined.
func (o *Octree) GetNearestEntry(p, n core.Vec3) int {
	return o.nearestEntry(p, n, false)
}

func (o *Octree) nearestEntry(p, n core.Vec3, isVolume bool) int {
	nearest := NullIndex
	nearestDistance2 := o.lookUpRadius2

	node := &o.root
	bbox := o.worldBBox
	for node != nil {
		for _, entryIndex := range node.entries {
			entry := &o.particles[entryIndex]

			distance2 := p.DistanceSquared(entry.P)
			if distance2 <= nearestDistance2 &&
				isVolume == entry.IsVolume &&
				(isVolume || n.Dot(entry.N) >= o.normalCosAngle) {
				nearest = entryIndex
				nearestDistance2 = distance2
			}
		}

		// Entries were splatted into every cell their lookup ball
		// overlaps, so descending through the cells containing p alone
		// visits every candidate
		child, childBBox := childContaining(bbox, p)
		node = node.children[child]
		bbox = childBBox
	}

	return nearest
}

// insert splats the particle index into every cell its lookup ball
// overlaps, down to the maximum depth
func (o *Octree) insert(node *octreeNode, bbox core.AABB, depth, entryIndex int) {
	if depth >= o.maxDepth {
		node.entries = append(node.entries, entryIndex)
		return
	}

	entryBBox := core.NewAABB(o.particles[entryIndex].P, o.particles[entryIndex].P).Expand(o.lookUpRadius)
	for child := 0; child < 8; child++ {
		childBBox := childBounds(bbox, child)
		if !overlaps(childBBox, entryBBox) {
			continue
		}
		if node.children[child] == nil {
			node.children[child] = &octreeNode{}
		}
		o.insert(node.children[child], childBBox, depth+1, entryIndex)
	}
}

// childBounds returns the bounding box of one of the eight octants
func childBounds(bbox core.AABB, child int) core.AABB {
	center := bbox.Center()
	min, max := bbox.Min, bbox.Max

	if child&1 != 0 {
		min.X = center.X
	} else {
		max.X = center.X
	}
	if child&2 != 0 {
		min.Y = center.Y
	} else {
		max.Y = center.Y
	}
	if child&4 != 0 {
		min.Z = center.Z
	} else {
		max.Z = center.Z
	}

	return core.NewAABB(min, max)
}

// childContaining returns the octant index and bounds containing p
func childContaining(bbox core.AABB, p core.Vec3) (int, core.AABB) {
	center := bbox.Center()
	child := 0
	if p.X >= center.X {
		child |= 1
	}
	if p.Y >= center.Y {
		child |= 2
	}
	if p.Z >= center.Z {
		child |= 4
	}
	return child, childBounds(bbox, child)
}

// overlaps tests whether two boxes intersect
func overlaps(a, b core.AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}
