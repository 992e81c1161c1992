// Package rope computes where the links of a rope go. It only does the
// geometry; bodies and joints are created by the rope system.
package rope

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// minDistance is the anchor separation below which a direction cannot be derived.
const minDistance = 1e-9

// Placement is one intermediate segment.
type Placement struct {
	Index    int
	Position cp.Vector
	// Joint is the world position of the segment's joint point.
	Joint cp.Vector
}

// JointPlacement links chain entries A and B (chain indices, A < B) at Pivot.
type JointPlacement struct {
	A     int
	B     int
	Pivot cp.Vector
}

// Layout is a fully computed rope: chain index 0 is the start anchor, the
// placements follow, and EndIndex is the end anchor.
type Layout struct {
	Start        cp.Vector
	End          cp.Vector
	Direction    cp.Vector
	Distance     float64
	Interval     float64
	Rotation     float64
	SegmentCount int
	Segments     []Placement
	Joints       []JointPlacement
	EndIndex     int
}

// ChainLen is the number of chain entries, both anchors included.
func (l Layout) ChainLen() int {
	return len(l.Segments) + 2
}

// Interval returns the spacing used for a rope spanning distance.
func Interval(distance float64, cfg Config) float64 {
	return cfg.BaseInterval + distance*cfg.IntervalScaleFactor
}

// SegmentCount returns the upper bound of intermediate segments for distance.
func SegmentCount(distance float64, cfg Config) int {
	return int(math.Ceil(distance / Interval(distance, cfg)))
}

// NewLayout lays out a rope from the start anchor's joint point to the end
// anchor's joint point. jointOffset is the segment template's joint point in
// segment-local space; segments are rotated so their local +Y axis runs
// along the rope.
func NewLayout(start, end, jointOffset cp.Vector, cfg Config) (Layout, error) {
	if err := cfg.Validate(); err != nil {
		return Layout{}, err
	}
	if !finiteVec(start) || !finiteVec(end) || !finiteVec(jointOffset) {
		return Layout{}, fmt.Errorf("%w: start=%v end=%v", ErrDegenerateRope, start, end)
	}

	delta := end.Sub(start)
	distance := delta.Length()
	if distance < minDistance {
		return Layout{}, fmt.Errorf("%w: start=%v end=%v", ErrDegenerateRope, start, end)
	}

	l := Layout{
		Start:     start,
		End:       end,
		Direction: delta.Mult(1 / distance),
		Distance:  distance,
		Interval:  Interval(distance, cfg),
	}
	l.SegmentCount = int(math.Ceil(distance / l.Interval))
	l.Rotation = l.Direction.ToAngle() - math.Pi/2

	offset := jointOffset.Rotate(cp.ForAngle(l.Rotation))
	step := l.Direction.Mult(l.Interval)
	exitRadius := cfg.EndTolerance * l.Interval

	l.Segments = make([]Placement, 0, l.SegmentCount)
	l.Joints = make([]JointPlacement, 0, l.SegmentCount+1)

	pos := start
	pivot := start
	for i := 0; i < l.SegmentCount; i++ {
		pos = pos.Add(step)
		p := Placement{Index: i + 1, Position: pos, Joint: pos.Add(offset)}
		l.Segments = append(l.Segments, p)
		l.Joints = append(l.Joints, JointPlacement{A: i, B: i + 1, Pivot: pivot})
		pivot = p.Joint
		if p.Joint.Distance(end) < exitRadius {
			break
		}
	}

	l.EndIndex = len(l.Segments) + 1
	l.Joints = append(l.Joints, JointPlacement{A: len(l.Segments), B: l.EndIndex, Pivot: end})
	return l, nil
}

func finiteVec(v cp.Vector) bool {
	return finite(v.X) && finite(v.Y)
}
