// Package ring computes where carousel items sit in space.
//
// Items are placed at equal angular spacing around a circle in the XZ
// plane, each facing the ring's center. Everything here is pure
// arithmetic with no hidden state: identical inputs always produce
// identical outputs, so layouts can be snapshot-tested and recomputed
// freely whenever the item count changes.
package ring

import "math"

// TwoPi is one full turn in radians.
const TwoPi = 2 * math.Pi

// Vec3 is a 3-component vector (value type, stack-allocated).
type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// AngleStep returns the angular distance between adjacent slots on a
// ring of total items. Totals below one are treated as one so a
// single-item (or empty) ring never divides by zero.
func AngleStep(total int) float64 {
	if total < 1 {
		total = 1
	}
	return TwoPi / float64(total)
}

// Placement is one slot on the ring: a position in the XZ plane and
// the yaw that points the item at the ring's center (the slot angle
// plus half a turn).
type Placement struct {
	Position Vec3
	Yaw      float64
}

// Slot places item index of total on a ring of the given radius.
// Index 0 sits at the front of the ring on the positive Z axis;
// indices advance counterclockwise seen from above.
func Slot(index, total int, radius float64) Placement {
	angle := float64(index) * AngleStep(total)
	return Placement{
		Position: Vec3{math.Sin(angle) * radius, 0, math.Cos(angle) * radius},
		Yaw:      angle + math.Pi,
	}
}

// Facing returns the unit vector from the placement toward the ring's
// center.
func (p Placement) Facing() Vec3 {
	return p.Position.Scale(-1).Normalize()
}

// Projection is a ring point flattened onto the viewing plane: a
// horizontal offset in radius units (positive is the viewer's right),
// the depth along the camera axis (positive is near), and a size
// factor derived from that depth.
type Projection struct {
	X     float64
	Depth float64
	Scale float64
}

// Project flattens the point at the given ring angle onto the screen
// plane as seen by a camera camDist units from the ring's center on
// the positive Z axis. Scale is exactly 1 for the nearest reachable
// point (depth == radius) and shrinks monotonically as depth falls
// away, the plain perspective divide.
func Project(angle, radius, camDist float64) Projection {
	// A camera on or inside the ring would divide by zero or flip
	// the image; push it just outside.
	if camDist <= radius {
		camDist = radius + 1
	}
	x := math.Sin(angle) * radius
	z := math.Cos(angle) * radius
	factor := (camDist - radius) / (camDist - z)
	return Projection{X: x * factor, Depth: z, Scale: factor}
}
