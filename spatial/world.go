package spatial

import (
	"math"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/gridnav/common"
)

const allCategories = ^uint(0)

// BoxID identifies a box added to a World. IDs start at 1.
type BoxID int

// Box is an axis-aligned static box.
type Box struct {
	ID          BoxID
	Center      common.Vec3
	HalfExtents common.Vec3
	Layer       LayerMask
}

func (b Box) Min() common.Vec3 {
	return b.Center.Sub(b.HalfExtents)
}

func (b Box) Max() common.Vec3 {
	return b.Center.Add(b.HalfExtents)
}

// World is a static collision world made of axis-aligned boxes. The chipmunk
// space indexes the boxes' ground-plane footprints and filters them by layer;
// the vertical extent is resolved exactly per candidate.
type World struct {
	space  *cp.Space
	boxes  map[*cp.Shape]Box
	shapes map[BoxID]*cp.Shape
	nextID BoxID
}

func NewWorld() *World {
	return &World{
		space:  cp.NewSpace(),
		boxes:  make(map[*cp.Shape]Box),
		shapes: make(map[BoxID]*cp.Shape),
	}
}

// Space returns the underlying chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// AddBox inserts a static box. Negative half extents are treated as their
// absolute value.
func (w *World) AddBox(center, halfExtents common.Vec3, layer LayerMask) BoxID {
	if w == nil || w.space == nil {
		return 0
	}
	for i := range halfExtents {
		if halfExtents[i] < 0 {
			halfExtents[i] = -halfExtents[i]
		}
	}
	w.nextID++
	box := Box{ID: w.nextID, Center: center, HalfExtents: halfExtents, Layer: layer}

	shape := cp.NewBox2(w.space.StaticBody, footprint(box.Min(), box.Max()), 0)
	shape.SetFilter(cp.ShapeFilter{Group: 0, Categories: uint(layer), Mask: allCategories})
	w.space.AddShape(shape)

	w.boxes[shape] = box
	w.shapes[box.ID] = shape
	return box.ID
}

// RemoveBox deletes a box. It reports whether the box existed.
func (w *World) RemoveBox(id BoxID) bool {
	if w == nil {
		return false
	}
	shape, ok := w.shapes[id]
	if !ok {
		return false
	}
	w.space.RemoveShape(shape)
	delete(w.shapes, id)
	delete(w.boxes, shape)
	return true
}

// Boxes returns every box ordered by id.
func (w *World) Boxes() []Box {
	if w == nil {
		return nil
	}
	out := make([]Box, 0, len(w.boxes))
	for _, b := range w.boxes {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) Len() int {
	if w == nil {
		return 0
	}
	return len(w.boxes)
}

// Raycast returns the closest hit along the segment from -> to.
func (w *World) Raycast(from, to common.Vec3, mask LayerMask) (Hit, bool) {
	hits := w.MultiRaycast(from, to, mask)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

// MultiRaycast returns one hit per box crossed by the segment, nearest first.
func (w *World) MultiRaycast(from, to common.Vec3, mask LayerMask) []Hit {
	if w == nil || mask.Empty() {
		return nil
	}
	dir := to.Sub(from)
	length := dir.Len()
	lo, hi := minMax(from, to)

	var hits []Hit
	for _, box := range w.candidates(footprint(lo, hi), mask) {
		t, normal, ok := segmentBoxHit(from, dir, box.Min(), box.Max())
		if !ok {
			continue
		}
		loc := from.Add(dir.Mul(t))
		if t > 0 {
			snapToFace(&loc, normal, box)
		}
		hits = append(hits, Hit{
			Location: loc,
			Normal:   normal,
			Distance: t * length,
			Layer:    box.Layer,
			Box:      box.ID,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance == hits[j].Distance {
			return hits[i].Box < hits[j].Box
		}
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

// BoxOverlap reports the first box (lowest id) that penetrates the query box.
func (w *World) BoxOverlap(center, halfExtents common.Vec3, mask LayerMask) (Hit, bool) {
	if w == nil || mask.Empty() {
		return Hit{}, false
	}
	lo := center.Sub(halfExtents)
	hi := center.Add(halfExtents)
	for _, box := range w.candidates(footprint(lo, hi), mask) {
		bmin, bmax := box.Min(), box.Max()
		if !intervalsOverlap(lo, hi, bmin, bmax) {
			continue
		}
		return overlapHit(center, box), true
	}
	return Hit{}, false
}

// CapsuleOverlap reports the first box (lowest id) that penetrates a vertical
// capsule centred on center.
func (w *World) CapsuleOverlap(center common.Vec3, radius, halfHeight float32, mask LayerMask) (Hit, bool) {
	if w == nil || mask.Empty() || radius <= 0 {
		return Hit{}, false
	}
	segHalf := halfHeight - radius
	if segHalf < 0 {
		segHalf = 0
	}
	z0 := center[2] - segHalf
	z1 := center[2] + segHalf
	lo := common.Vec3{center[0] - radius, center[1] - radius, z0 - radius}
	hi := common.Vec3{center[0] + radius, center[1] + radius, z1 + radius}

	for _, box := range w.candidates(footprint(lo, hi), mask) {
		bmin, bmax := box.Min(), box.Max()
		dx := axisGap(center[0], center[0], bmin[0], bmax[0])
		dy := axisGap(center[1], center[1], bmin[1], bmax[1])
		dz := axisGap(z0, z1, bmin[2], bmax[2])
		if dx*dx+dy*dy+dz*dz >= radius*radius {
			continue
		}
		return overlapHit(center, box), true
	}
	return Hit{}, false
}

// candidates returns boxes on mask whose footprint touches bb, ordered by id.
func (w *World) candidates(bb cp.BB, mask LayerMask) []Box {
	filter := cp.ShapeFilter{Group: 0, Categories: allCategories, Mask: uint(mask)}
	var out []Box
	w.space.BBQuery(bb, filter, func(shape *cp.Shape, data interface{}) {
		box, ok := w.boxes[shape]
		if !ok || !box.Layer.Intersects(mask) {
			return
		}
		out = append(out, box)
	}, nil)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func footprint(lo, hi common.Vec3) cp.BB {
	return cp.BB{L: float64(lo[0]), B: float64(lo[1]), R: float64(hi[0]), T: float64(hi[1])}
}

func minMax(a, b common.Vec3) (common.Vec3, common.Vec3) {
	lo, hi := a, b
	for i := 0; i < 3; i++ {
		if lo[i] > hi[i] {
			lo[i], hi[i] = hi[i], lo[i]
		}
	}
	return lo, hi
}

func intervalsOverlap(aMin, aMax, bMin, bMax common.Vec3) bool {
	for i := 0; i < 3; i++ {
		if aMin[i] >= bMax[i] || bMin[i] >= aMax[i] {
			return false
		}
	}
	return true
}

// axisGap returns the distance between [a0, a1] and [b0, b1], zero when they
// overlap.
func axisGap(a0, a1, b0, b1 float32) float32 {
	if a1 < b0 {
		return b0 - a1
	}
	if b1 < a0 {
		return a0 - b1
	}
	return 0
}

func overlapHit(center common.Vec3, box Box) Hit {
	bmin, bmax := box.Min(), box.Max()
	closest := common.Vec3{
		common.Clamp(center[0], bmin[0], bmax[0]),
		common.Clamp(center[1], bmin[1], bmax[1]),
		common.Clamp(center[2], bmin[2], bmax[2]),
	}
	return Hit{
		Location: closest,
		Normal:   common.SafeNormal(center.Sub(closest)),
		Distance: common.Dist(center, closest),
		Layer:    box.Layer,
		Box:      box.ID,
	}
}

// snapToFace pins the coordinate along the entry axis onto the face plane.
func snapToFace(loc *common.Vec3, normal common.Vec3, box Box) {
	bmin, bmax := box.Min(), box.Max()
	for i := 0; i < 3; i++ {
		switch normal[i] {
		case 1:
			loc[i] = bmax[i]
		case -1:
			loc[i] = bmin[i]
		}
	}
}

// segmentBoxHit is the slab test for the segment from + dir*t, t in [0, 1].
// A segment starting inside the box hits at t=0 facing back along dir.
func segmentBoxHit(from, dir, bmin, bmax common.Vec3) (float32, common.Vec3, bool) {
	tmin := float32(0)
	tmax := float32(1)
	axis := -1
	var sign float32

	for i := 0; i < 3; i++ {
		if math.Abs(float64(dir[i])) < 1e-9 {
			if from[i] < bmin[i] || from[i] > bmax[i] {
				return 0, common.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (bmin[i] - from[i]) * inv
		t2 := (bmax[i] - from[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
			sign = -1
			if dir[i] < 0 {
				sign = 1
			}
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, common.Vec3{}, false
		}
	}

	if axis < 0 {
		return 0, common.SafeNormal(dir).Mul(-1), true
	}
	var normal common.Vec3
	normal[axis] = sign
	return tmin, normal, true
}
