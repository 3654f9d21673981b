package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is the world-space vector used across the navigation packages.
type Vec3 = mgl32.Vec3

func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Dist returns the euclidean distance between a and b.
func Dist(a, b Vec3) float32 {
	return b.Sub(a).Len()
}

// Flat drops the vertical component.
func Flat(v Vec3) Vec3 {
	return Vec3{v[0], v[1], 0}
}

// SafeNormal returns v scaled to unit length, or the zero vector when v is
// (nearly) zero.
func SafeNormal(v Vec3) Vec3 {
	l := v.Len()
	if l <= 1e-6 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// YawDegrees returns the heading of dir on the horizontal plane, in degrees.
func YawDegrees(dir Vec3) float32 {
	return float32(math.Atan2(float64(dir[1]), float64(dir[0])) * 180 / math.Pi)
}

// NormalizeAxis wraps an angle in degrees into (-180, 180].
func NormalizeAxis(deg float32) float32 {
	d := float32(math.Mod(float64(deg), 360))
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// InterpYawConstant moves current toward target along the shortest arc by at
// most speed*dt degrees. A non-positive speed snaps to target.
func InterpYawConstant(current, target, dt, speed float32) float32 {
	if speed <= 0 {
		return NormalizeAxis(target)
	}
	delta := NormalizeAxis(target - current)
	step := speed * dt
	if step <= 0 {
		return NormalizeAxis(current)
	}
	if delta > step {
		delta = step
	} else if delta < -step {
		delta = -step
	}
	return NormalizeAxis(current + delta)
}
