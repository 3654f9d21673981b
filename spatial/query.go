package spatial

import "github.com/milk9111/gridnav/common"

// LayerMask is a bit set of collision layers. A query only sees geometry
// whose layer bits intersect the query mask.
type LayerMask uint

const LayerNone LayerMask = 0

// Layer returns the mask for a single layer index.
func Layer(index uint) LayerMask {
	return LayerMask(1) << index
}

func (m LayerMask) Empty() bool {
	return m == 0
}

func (m LayerMask) Intersects(o LayerMask) bool {
	return m&o != 0
}

// Hit describes the first contact of a query with a piece of geometry.
type Hit struct {
	Location common.Vec3
	Normal   common.Vec3
	Distance float32
	Layer    LayerMask
	Box      BoxID
}

// Query is the collision service consumed by mesh generation. Capsules are
// vertical; halfHeight includes the hemispherical caps.
type Query interface {
	Raycast(from, to common.Vec3, mask LayerMask) (Hit, bool)
	MultiRaycast(from, to common.Vec3, mask LayerMask) []Hit
	BoxOverlap(center, halfExtents common.Vec3, mask LayerMask) (Hit, bool)
	CapsuleOverlap(center common.Vec3, radius, halfHeight float32, mask LayerMask) (Hit, bool)
}
