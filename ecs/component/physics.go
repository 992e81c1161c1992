package component

import "github.com/jakecoffman/cp"

// PhysicsBody stores Chipmunk2D runtime data and collider configuration.
// Shape precedence: a capsule when Length > 0, a circle when Radius > 0,
// otherwise a Width x Height box.
type PhysicsBody struct {
	Body       *cp.Body
	Shape      *cp.Shape
	Width      float64
	Height     float64
	Radius     float64
	Length     float64
	Mass       float64
	Friction   float64
	Elasticity float64
	Kinematic  bool
	// Static bodies never move; Kinematic is ignored for them.
	Static bool
	// Group is the shape filter group; shapes sharing a non-zero group never collide.
	Group uint
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()
