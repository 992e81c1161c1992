package component

import "github.com/jakecoffman/cp"

// RopeSegment tags one physical link of a rope. Rope is a back-reference to
// the owning rope entity and carries no ownership.
type RopeSegment struct {
	Index int
	Rope  uint64
	// JointOffset is the segment-local point where the joint to the next
	// link is pinned.
	JointOffset cp.Vector
}

var RopeSegmentComponent = NewComponent[RopeSegment]()
