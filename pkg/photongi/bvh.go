package photongi

import (
	"container/heap"
	"math"
	"sort"
	"unsafe"

	"github.com/df07/go-photon-cache/pkg/core"
)

// indexBVHNode is one node of the linear skip-pointer layout. A leaf
// carries the index of one indexed entry; an interior node carries a
// bounding box. SkipIndex is the next node to visit when the query
// misses this subtree; a hit advances by one instead.
type indexBVHNode struct {
	BBoxMin    core.Vec3
	BBoxMax    core.Vec3
	EntryIndex int32 // Entry index for leaves, -1 for interior nodes
	SkipIndex  int32
}

const interiorNode = -1

// IsLeaf returns true if the node indexes a single entry
func (n *indexBVHNode) IsLeaf() bool {
	return n.EntryIndex != interiorNode
}

// indexBVH is a linear array-of-nodes BVH over a frozen vector of 3D
// points with a fixed entry radius. Every entry whose center is within
// entryRadius of a query point is reachable through the traversal.
type indexBVH struct {
	nodes        []indexBVHNode
	entryRadius  float64
	entryRadius2 float64
}

// newIndexBVH builds the skip-pointer BVH over the given entry
// positions using a top-down median split along the longest axis
func newIndexBVH(positions []core.Vec3, entryRadius float64) *indexBVH {
	bvh := &indexBVH{
		entryRadius:  entryRadius,
		entryRadius2: entryRadius * entryRadius,
	}

	if len(positions) == 0 {
		return bvh
	}

	indices := make([]int32, len(positions))
	for i := range indices {
		indices[i] = int32(i)
	}

	bvh.nodes = make([]indexBVHNode, 0, 2*len(positions)-1)
	bvh.build(positions, indices)

	return bvh
}

// build appends the subtree over indices and fixes up its skip indices
func (b *indexBVH) build(positions []core.Vec3, indices []int32) {
	if len(indices) == 1 {
		b.nodes = append(b.nodes, indexBVHNode{
			EntryIndex: indices[0],
			SkipIndex:  int32(len(b.nodes) + 1),
		})
		return
	}

	// The interior box bounds the entry centers expanded by the entry
	// radius so that every in-range query point enters the subtree
	bbox := core.NewAABBFromPoints(positionsOf(positions, indices)...).Expand(b.entryRadius)

	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, indexBVHNode{
		BBoxMin:    bbox.Min,
		BBoxMax:    bbox.Max,
		EntryIndex: interiorNode,
	})

	axis := bbox.LongestAxis()
	sort.Slice(indices, func(i, j int) bool {
		return axisValue(positions[indices[i]], axis) < axisValue(positions[indices[j]], axis)
	})

	mid := len(indices) / 2
	b.build(positions, indices[:mid])
	b.build(positions, indices[mid:])

	b.nodes[nodeIndex].SkipIndex = int32(len(b.nodes))
}

func positionsOf(positions []core.Vec3, indices []int32) []core.Vec3 {
	points := make([]core.Vec3, len(indices))
	for i, index := range indices {
		points[i] = positions[index]
	}
	return points
}

func axisValue(p core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// forEachNearEntry walks the skip-pointer layout iteratively and calls
// visit for every entry within entryRadius of p
func (b *indexBVH) forEachNearEntry(positions []core.Vec3, p core.Vec3, visit func(entryIndex int, distance2 float64)) {
	if len(b.nodes) == 0 {
		return
	}

	current := int32(0)
	stop := b.nodes[0].SkipIndex

	for current < stop {
		node := &b.nodes[current]

		if node.IsLeaf() {
			distance2 := p.DistanceSquared(positions[node.EntryIndex])
			if distance2 <= b.entryRadius2 {
				visit(int(node.EntryIndex), distance2)
			}
			current++
		} else {
			if p.X >= node.BBoxMin.X && p.X <= node.BBoxMax.X &&
				p.Y >= node.BBoxMin.Y && p.Y <= node.BBoxMax.Y &&
				p.Z >= node.BBoxMin.Z && p.Z <= node.BBoxMax.Z {
				current++
			} else {
				current = node.SkipIndex
			}
		}
	}
}

// MemoryUsage returns the size in bytes of the node array
func (b *indexBVH) MemoryUsage() int {
	return len(b.nodes) * int(unsafe.Sizeof(indexBVHNode{}))
}

// nearPhotonHeap keeps the k closest entries seen so far. The root is
// the worst kept entry: the farthest one, ties broken toward the higher
// entry index so that the lower index survives a replacement.
type nearPhotonHeap []NearPhoton

func (h nearPhotonHeap) Len() int { return len(h) }
func (h nearPhotonHeap) Less(i, j int) bool {
	if h[i].Distance2 != h[j].Distance2 {
		return h[i].Distance2 > h[j].Distance2
	}
	return h[i].EntryIndex > h[j].EntryIndex
}
func (h nearPhotonHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nearPhotonHeap) Push(x interface{}) {
	*h = append(*h, x.(NearPhoton))
}

func (h *nearPhotonHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// beats reports whether candidate should replace worst in a full heap
func (candidate NearPhoton) beats(worst NearPhoton) bool {
	if candidate.Distance2 != worst.Distance2 {
		return candidate.Distance2 < worst.Distance2
	}
	return candidate.EntryIndex < worst.EntryIndex
}

// collectNearEntries gathers up to maxCount filtered entries. accept
// applies the per-population normal filter.
func collectNearEntries(bvh *indexBVH, positions []core.Vec3, p core.Vec3, maxCount int,
	accept func(entryIndex int) bool) []NearPhoton {
	entries := make(nearPhotonHeap, 0, maxCount)

	bvh.forEachNearEntry(positions, p, func(entryIndex int, distance2 float64) {
		if !accept(entryIndex) {
			return
		}

		candidate := NearPhoton{EntryIndex: entryIndex, Distance2: distance2}
		if len(entries) < maxCount {
			heap.Push(&entries, candidate)
		} else if candidate.beats(entries[0]) {
			entries[0] = candidate
			heap.Fix(&entries, 0)
		}
	})

	return entries
}

// nearestEntry returns the single closest filtered entry index, or -1
func nearestEntry(bvh *indexBVH, positions []core.Vec3, p core.Vec3,
	accept func(entryIndex int) bool) int {
	nearest := -1
	nearestDistance2 := math.Inf(1)

	bvh.forEachNearEntry(positions, p, func(entryIndex int, distance2 float64) {
		if !accept(entryIndex) {
			return
		}
		if distance2 < nearestDistance2 ||
			(distance2 == nearestDistance2 && entryIndex < nearest) {
			nearest = entryIndex
			nearestDistance2 = distance2
		}
	})

	return nearest
}

// PhotonBVH answers radius and normal constrained neighbor queries over
// a frozen photon population
type PhotonBVH struct {
	bvh            *indexBVH
	photons        []Photon
	positions      []core.Vec3
	lookUpMaxCount int
	normalCosAngle float64
}

// NewPhotonBVH builds a BVH over the photon vector. The vector must not
// be mutated or relocated for the lifetime of the BVH.
func NewPhotonBVH(photons []Photon, lookUpMaxCount int, lookUpRadius, lookUpNormalAngle float64) *PhotonBVH {
	positions := make([]core.Vec3, len(photons))
	for i := range photons {
		positions[i] = photons[i].P
	}

	return &PhotonBVH{
		bvh:            newIndexBVH(positions, lookUpRadius),
		photons:        photons,
		positions:      positions,
		lookUpMaxCount: lookUpMaxCount,
		normalCosAngle: math.Cos(radians(lookUpNormalAngle)),
	}
}

// Photons returns the underlying frozen photon vector
func (b *PhotonBVH) Photons() []Photon {
	return b.photons
}

// EntryMaxLookUpCount returns the k-nearest cap of the population
func (b *PhotonBVH) EntryMaxLookUpCount() int {
	return b.lookUpMaxCount
}

// GetAllNearEntries returns every photon within the filter radius whose
// normal is compatible with queryNormal, capped to the closest
// lookUpMaxCount entries, along with the squared filter radius
func (b *PhotonBVH) GetAllNearEntries(p, queryNormal core.Vec3) ([]NearPhoton, float64) {
	entries := collectNearEntries(b.bvh, b.positions, p, b.lookUpMaxCount, func(entryIndex int) bool {
		return queryNormal.Dot(b.photons[entryIndex].N) >= b.normalCosAngle
	})

	return entries, b.bvh.entryRadius2
}

// GetNearestEntry returns the closest compatible photon, or nil when
// none is within the filter radius
func (b *PhotonBVH) GetNearestEntry(p, queryNormal core.Vec3) *Photon {
	index := nearestEntry(b.bvh, b.positions, p, func(entryIndex int) bool {
		return queryNormal.Dot(b.photons[entryIndex].N) >= b.normalCosAngle
	})
	if index < 0 {
		return nil
	}
	return &b.photons[index]
}

// MemoryUsage returns the size in bytes of the BVH node array
func (b *PhotonBVH) MemoryUsage() int {
	return b.bvh.MemoryUsage()
}

// RadiancePhotonBVH answers neighbor queries over a frozen radiance
// photon population
type RadiancePhotonBVH struct {
	bvh            *indexBVH
	photons        []RadiancePhoton
	positions      []core.Vec3
	lookUpMaxCount int
	normalCosAngle float64
}

// NewRadiancePhotonBVH builds a BVH over the radiance photon vector.
// The vector must not be relocated for the lifetime of the BVH.
func NewRadiancePhotonBVH(photons []RadiancePhoton, lookUpMaxCount int, lookUpRadius, lookUpNormalAngle float64) *RadiancePhotonBVH {
	positions := make([]core.Vec3, len(photons))
	for i := range photons {
		positions[i] = photons[i].P
	}

	return &RadiancePhotonBVH{
		bvh:            newIndexBVH(positions, lookUpRadius),
		photons:        photons,
		positions:      positions,
		lookUpMaxCount: lookUpMaxCount,
		normalCosAngle: math.Cos(radians(lookUpNormalAngle)),
	}
}

// Photons returns the underlying frozen radiance photon vector
func (b *RadiancePhotonBVH) Photons() []RadiancePhoton {
	return b.photons
}

// EntryMaxLookUpCount returns the k-nearest cap of the population
func (b *RadiancePhotonBVH) EntryMaxLookUpCount() int {
	return b.lookUpMaxCount
}

func (b *RadiancePhotonBVH) accepts(queryNormal core.Vec3) func(int) bool {
	return func(entryIndex int) bool {
		return queryNormal.Dot(b.photons[entryIndex].N) >= b.normalCosAngle
	}
}

// GetAllNearEntries returns every radiance photon within the filter
// radius with a compatible normal, capped to the closest lookUpMaxCount
// entries, along with the squared filter radius
func (b *RadiancePhotonBVH) GetAllNearEntries(p, queryNormal core.Vec3) ([]NearPhoton, float64) {
	entries := collectNearEntries(b.bvh, b.positions, p, b.lookUpMaxCount, b.accepts(queryNormal))

	return entries, b.bvh.entryRadius2
}

// GetNearestEntry returns the closest compatible radiance photon, or
// nil when none is within the filter radius
func (b *RadiancePhotonBVH) GetNearestEntry(p, queryNormal core.Vec3) *RadiancePhoton {
	index := nearestEntry(b.bvh, b.positions, p, b.accepts(queryNormal))
	if index < 0 {
		return nil
	}
	return &b.photons[index]
}

// MemoryUsage returns the size in bytes of the BVH node array
func (b *RadiancePhotonBVH) MemoryUsage() int {
	return b.bvh.MemoryUsage()
}
