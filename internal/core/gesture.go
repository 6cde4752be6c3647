package core

// DefaultSwipeThreshold is the minimum displacement, in gesture units, along
// the dominant axis for a drag to count as a swipe.
const DefaultSwipeThreshold = 30

// Point is a position in gesture units.
type Point struct {
	X, Y int
}

// SwipeAction classifies a displacement as a directional action.
//
// The dominant axis is the one with the larger absolute displacement; equal
// magnitudes count as horizontal. Displacements shorter than threshold along
// the dominant axis produce no action.
func SwipeAction(dx, dy, threshold int) (Action, bool) {
	if Abs(dx) >= Abs(dy) {
		if Abs(dx) < threshold {
			return ActionNone, false
		}
		if dx < 0 {
			return ActionLeft, true
		}
		return ActionRight, true
	}

	if Abs(dy) < threshold {
		return ActionNone, false
	}
	if dy < 0 {
		return ActionUp, true
	}
	return ActionDown, true
}

// Gesture tracks one press-drag-release sequence.
// The zero value is not usable; create one with NewGesture.
type Gesture struct {
	threshold int
	start     Point
	pressed   bool
}

// NewGesture creates a gesture tracker. A non-positive threshold selects
// DefaultSwipeThreshold.
func NewGesture(threshold int) *Gesture {
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}
	return &Gesture{threshold: threshold}
}

// Press records the start of a drag.
func (g *Gesture) Press(p Point) {
	g.start = p
	g.pressed = true
}

// Release ends the drag at p and returns the swipe direction, if any.
// A release without a preceding press yields nothing.
func (g *Gesture) Release(p Point) (Action, bool) {
	if !g.pressed {
		return ActionNone, false
	}
	g.pressed = false
	return SwipeAction(p.X-g.start.X, p.Y-g.start.Y, g.threshold)
}

// Cancel drops an in-progress drag.
func (g *Gesture) Cancel() {
	g.pressed = false
}
