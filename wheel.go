package zoetrope

import (
	"math"

	"github.com/teranos/zoetrope/ring"
)

// wheel is the carousel state machine: the active index, the
// accumulated rotation target, and the transition lock.
//
// The rotation target accumulates across navigations instead of being
// normalized to a single turn. Normalizing would force the glide to
// pick an arbitrary shortest path and occasionally reverse on screen;
// accumulation keeps the ring turning in the direction the user asked
// for, every time.
type wheel struct {
	count    int
	active   int
	target   float64 // accumulated rotation target, radians
	rotation float64 // displayed rotation, glides toward target
	locked   bool    // cooldown window after a navigation command
}

// newWheel seats the ring with the active slot already facing the
// viewer, so mounting never triggers motion.
func newWheel(count, active int) wheel {
	if count > 0 {
		active = clampInt(active, 0, count-1)
	} else {
		active = 0
	}
	w := wheel{count: count, active: active}
	seat := -float64(active) * w.step()
	w.target = seat
	w.rotation = seat
	return w
}

func (w *wheel) step() float64 {
	return ring.AngleStep(w.count)
}

// navigate turns the ring one slot. Direction +1 is "next": the ring
// rotates forward and the lower-indexed neighbor arrives at the
// front, so the index moves by -direction modulo count, wrapping at
// both ends. Returns whether the command was accepted; commands
// landing inside the cooldown window are dropped, not queued.
func (w *wheel) navigate(direction int) bool {
	if w.count == 0 || direction == 0 || w.locked {
		return false
	}
	if direction > 0 {
		direction = 1
	} else {
		direction = -1
	}
	w.active = ((w.active-direction)%w.count + w.count) % w.count
	w.target += float64(direction) * w.step()
	w.locked = true
	return true
}

func (w *wheel) unlock() {
	w.locked = false
}

// reconcile follows an externally supplied index. The rotation target
// shifts by exactly the angular delta between old and new, so the
// view animates over rather than jumping, and a same-index set is a
// no-op. External changes are authoritative: the cooldown lock does
// not apply.
func (w *wheel) reconcile(newIndex int) bool {
	if w.count == 0 {
		return false
	}
	newIndex = clampInt(newIndex, 0, w.count-1)
	if newIndex == w.active {
		return false
	}
	w.target += float64(w.active-newIndex) * w.step()
	w.active = newIndex
	return true
}

// glide moves the displayed rotation toward the target by the given
// fraction and reports whether it has settled within eps.
func (w *wheel) glide(factor, eps float64) bool {
	w.rotation += (w.target - w.rotation) * factor
	if math.Abs(w.target-w.rotation) <= eps {
		w.rotation = w.target
		return true
	}
	return false
}

func (w *wheel) settled(eps float64) bool {
	return math.Abs(w.target-w.rotation) <= eps
}

// fraction maps the active index onto [0, 1] for the scrub slider.
func (w *wheel) fraction() float64 {
	if w.count <= 1 {
		return 0
	}
	return float64(w.active) / float64(w.count-1)
}
