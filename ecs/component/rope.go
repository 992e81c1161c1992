package component

import "github.com/jakecoffman/cp"

type RopeState int

const (
	RopeUnbuilt RopeState = iota
	RopeBuilt
)

func (s RopeState) String() string {
	switch s {
	case RopeBuilt:
		return "built"
	default:
		return "unbuilt"
	}
}

// Rope is the controller state for one rope. Entity references are stored
// as uint64 (ecs.Entity is uint64). Segments holds the whole chain:
// index 0 is the start anchor, the last entry the end anchor. Anchors are
// referenced, everything in between is owned by the rope.
type Rope struct {
	Start uint64
	End   uint64

	StaticEnd           bool
	IntervalScaleFactor float64
	BaseInterval        float64
	EndTolerance        float64
	Bias                float64
	Softness            float64
	SegmentPrefab       string

	State        RopeState
	Segments     []uint64
	Joints       []RopeJoint
	Interval     float64
	SegmentCount int
}

// RopeJoint links chain entries A (earlier) and B (later).
type RopeJoint struct {
	A          uint64
	B          uint64
	Pivot      cp.Vector
	Constraint *cp.Constraint
}

var RopeComponent = NewComponent[Rope]()

// RopeBuildRequest asks the rope system to (re)build the rope on its entity.
type RopeBuildRequest struct{}

var RopeBuildRequestComponent = NewComponent[RopeBuildRequest]()
