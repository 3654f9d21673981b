package main

import (
	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/navmesh"
)

// projection maps the mesh's horizontal plane into a screen rectangle with
// +y pointing up.
type projection struct {
	originX, originY float32
	spanY            float32
	left, top        float32
	scale            float32
}

func newProjection(s navmesh.Settings, left, top, width, height float32) projection {
	spanX := float32(max(s.SizeX-1, 1)) * s.Gap
	spanY := float32(max(s.SizeY-1, 1)) * s.Gap
	margin := s.Gap
	scale := min(width/(spanX+2*margin), height/(spanY+2*margin))
	return projection{
		originX: s.Origin[0] - margin,
		originY: s.Origin[1] - margin,
		spanY:   spanY + 2*margin,
		left:    left,
		top:     top,
		scale:   scale,
	}
}

func (p projection) point(v common.Vec3) (float32, float32) {
	x := p.left + (v[0]-p.originX)*p.scale
	y := p.top + p.spanY*p.scale - (v[1]-p.originY)*p.scale
	return x, y
}

func (p projection) length(l float32) float32 {
	return l * p.scale
}
