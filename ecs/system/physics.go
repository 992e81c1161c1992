package system

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/common"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
)

var (
	ErrNoPhysicsBody = errors.New("physics: entity has no physics body")
	ErrNoBody        = errors.New("physics: entity has no live body")
	ErrStaticBody    = errors.New("physics: static bodies cannot change type")
)

// PhysicsConfig configures the Chipmunk space.
type PhysicsConfig struct {
	Gravity    cp.Vector
	Iterations int
	Damping    float64
	TimeStep   float64
}

func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		Gravity:    cp.Vector{X: 0, Y: common.Gravity},
		Iterations: 20,
		Damping:    0.9,
		TimeStep:   common.TimeStep,
	}
}

// JointParams tunes a joint the way a pin joint is usually described:
// Bias is the fraction of joint error corrected per 1/60s step and
// Softness the compliance. Bias maps to Chipmunk's error bias (error left
// after one second) and Softness to the max correction speed 1/Softness.
type JointParams struct {
	Bias     float64
	Softness float64
}

// PhysicsSystem owns the Chipmunk space, every body created for an entity
// and every joint added through it.
type PhysicsSystem struct {
	space  *cp.Space
	step   float64
	bodies map[ecs.Entity]*bodyInfo
	joints map[*cp.Constraint]jointInfo
}

type bodyInfo struct {
	body   *cp.Body
	shape  *cp.Shape
	mass   float64
	moment float64
}

type jointInfo struct {
	a      ecs.Entity
	b      ecs.Entity
	params JointParams
}

func NewPhysicsSystem(cfg PhysicsConfig) *PhysicsSystem {
	space := cp.NewSpace()
	if cfg.Iterations > 0 {
		space.Iterations = uint(cfg.Iterations)
	}
	space.SetGravity(cfg.Gravity)
	if cfg.Damping > 0 {
		space.SetDamping(cfg.Damping)
	}
	step := cfg.TimeStep
	if step <= 0 {
		step = common.TimeStep
	}
	return &PhysicsSystem{
		space:  space,
		step:   step,
		bodies: make(map[ecs.Entity]*bodyInfo),
		joints: make(map[*cp.Constraint]jointInfo),
	}
}

func (ps *PhysicsSystem) Space() *cp.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

// TimeStep returns the fixed step used by Update.
func (ps *PhysicsSystem) TimeStep() float64 {
	return ps.step
}

// Update releases bodies of dead entities, creates bodies for new ones,
// steps the space once and copies body state back into transforms.
func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	ps.cleanup(w)
	ps.syncEntities(w)
	ps.space.Step(ps.step)
	ps.syncTransforms(w)
}

// EnsureBody returns the entity's body, creating it from its PhysicsBody
// and Transform components on first use.
func (ps *PhysicsSystem) EnsureBody(w *ecs.World, e ecs.Entity) (*cp.Body, error) {
	if info, ok := ps.bodies[e]; ok && ecs.IsAlive(w, e) {
		return info.body, nil
	}
	pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoPhysicsBody, e)
	}
	var t component.Transform
	if tr, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		t = *tr
	}

	mass := pb.Mass
	if mass <= 0 {
		mass = 1
	}

	radius := pb.Radius
	if pb.Length > 0 {
		radius = math.Max(radius, 0.5)
	}

	var moment float64
	switch {
	case pb.Length > 0:
		moment = cp.MomentForSegment(mass, cp.Vector{}, cp.Vector{Y: pb.Length}, radius)
	case radius > 0:
		moment = cp.MomentForCircle(mass, 0, radius, cp.Vector{})
	default:
		moment = cp.MomentForBox(mass, pb.Width, pb.Height)
	}

	var body *cp.Body
	switch {
	case pb.Static:
		body = cp.NewStaticBody()
	case pb.Kinematic:
		body = cp.NewKinematicBody()
	default:
		body = cp.NewBody(mass, moment)
	}
	body.SetPosition(cp.Vector{X: t.X, Y: t.Y})
	body.SetAngle(t.Rotation)
	body.UserData = e

	var shape *cp.Shape
	switch {
	case pb.Length > 0:
		shape = cp.NewSegment(body, cp.Vector{}, cp.Vector{Y: pb.Length}, radius)
	case radius > 0:
		shape = cp.NewCircle(body, radius, cp.Vector{})
	default:
		shape = cp.NewBox(body, pb.Width, pb.Height, 0)
	}
	shape.SetFriction(pb.Friction)
	shape.SetElasticity(pb.Elasticity)
	shape.SetFilter(cp.NewShapeFilter(pb.Group, cp.ALL_CATEGORIES, cp.ALL_CATEGORIES))

	ps.space.AddBody(body)
	ps.space.AddShape(shape)

	pb.Body = body
	pb.Shape = shape
	ps.bodies[e] = &bodyInfo{body: body, shape: shape, mass: mass, moment: moment}
	return body, nil
}

// Body returns the entity's body if one was created.
func (ps *PhysicsSystem) Body(e ecs.Entity) (*cp.Body, bool) {
	info, ok := ps.bodies[e]
	if !ok {
		return nil, false
	}
	return info.body, true
}

// SetCollisionGroup puts the entity's shape into a filter group.
func (ps *PhysicsSystem) SetCollisionGroup(w *ecs.World, e ecs.Entity, group uint) {
	if pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok {
		pb.Group = group
	}
	if info, ok := ps.bodies[e]; ok {
		info.shape.SetFilter(cp.NewShapeFilter(group, cp.ALL_CATEGORIES, cp.ALL_CATEGORIES))
	}
}

// SetBodyKinematic switches a body between kinematic and dynamic. A
// kinematic body is excluded from force integration but still drives the
// joints attached to it.
func (ps *PhysicsSystem) SetBodyKinematic(w *ecs.World, e ecs.Entity, kinematic bool) error {
	info, ok := ps.bodies[e]
	if !ok {
		return fmt.Errorf("%w: %v", ErrNoBody, e)
	}
	if info.body.GetType() == cp.BODY_STATIC {
		return fmt.Errorf("%w: %v", ErrStaticBody, e)
	}
	if kinematic {
		info.body.SetType(cp.BODY_KINEMATIC)
		info.body.SetVelocityVector(cp.Vector{})
		info.body.SetAngularVelocity(0)
	} else if info.body.GetType() != cp.BODY_DYNAMIC {
		// switching types drops mass, shapes carry none of their own
		info.body.SetType(cp.BODY_DYNAMIC)
		info.body.SetMass(info.mass)
		info.body.SetMoment(info.moment)
	}
	if pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok {
		pb.Kinematic = kinematic
	}
	return nil
}

// SetBodyAngle rotates a body in place. Only used while building, before
// the solver takes ownership of the body.
func (ps *PhysicsSystem) SetBodyAngle(w *ecs.World, e ecs.Entity, angle float64) error {
	info, ok := ps.bodies[e]
	if !ok {
		return fmt.Errorf("%w: %v", ErrNoBody, e)
	}
	info.body.SetAngle(angle)
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		t.Rotation = angle
	}
	return nil
}

// AddPivotJoint pins bodies a and b together at the world point pivot.
func (ps *PhysicsSystem) AddPivotJoint(a, b ecs.Entity, pivot cp.Vector, params JointParams) (*cp.Constraint, error) {
	ia, ok := ps.bodies[a]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoBody, a)
	}
	ib, ok := ps.bodies[b]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoBody, b)
	}

	joint := cp.NewPivotJoint2(ia.body, ib.body, ia.body.WorldToLocal(pivot), ib.body.WorldToLocal(pivot))
	joint.SetCollideBodies(false)
	if params.Bias > 0 {
		joint.SetErrorBias(math.Pow(1-params.Bias, 60))
	}
	if params.Softness > 0 {
		joint.SetMaxBias(1 / params.Softness)
	}
	ps.space.AddConstraint(joint)
	ps.joints[joint] = jointInfo{a: a, b: b, params: params}
	return joint, nil
}

// RemoveJoint removes a joint added with AddPivotJoint.
func (ps *PhysicsSystem) RemoveJoint(joint *cp.Constraint) {
	if _, ok := ps.joints[joint]; !ok {
		return
	}
	ps.space.RemoveConstraint(joint)
	delete(ps.joints, joint)
}

// JointBodies reports which entities a joint links.
func (ps *PhysicsSystem) JointBodies(joint *cp.Constraint) (a, b ecs.Entity, ok bool) {
	info, ok := ps.joints[joint]
	return info.a, info.b, ok
}

// JointCount returns the number of live joints.
func (ps *PhysicsSystem) JointCount() int {
	return len(ps.joints)
}

// BodyCount returns the number of live entity bodies.
func (ps *PhysicsSystem) BodyCount() int {
	return len(ps.bodies)
}

// ReleaseBody removes the entity's body, its shape and any joint attached
// to it from the space.
func (ps *PhysicsSystem) ReleaseBody(e ecs.Entity) {
	info, ok := ps.bodies[e]
	if !ok {
		return
	}
	for joint, j := range ps.joints {
		if j.a == e || j.b == e {
			ps.space.RemoveConstraint(joint)
			delete(ps.joints, joint)
		}
	}
	ps.space.RemoveShape(info.shape)
	ps.space.RemoveBody(info.body)
	delete(ps.bodies, e)
}

func (ps *PhysicsSystem) cleanup(w *ecs.World) {
	for e := range ps.bodies {
		if ecs.IsAlive(w, e) && ecs.Has(w, e, component.PhysicsBodyComponent.Kind()) {
			continue
		}
		log.Printf("PhysicsSystem: releasing body of removed entity %v", e)
		ps.ReleaseBody(e)
	}
}

// syncEntities adds a body for every PhysicsBody that has none yet, such
// as ledges placed by a level.
func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	ecs.ForEach(w, component.PhysicsBodyComponent.Kind(), func(e ecs.Entity, _ *component.PhysicsBody) {
		if _, ok := ps.bodies[e]; ok {
			return
		}
		if _, err := ps.EnsureBody(w, e); err != nil {
			log.Printf("PhysicsSystem: create body for %v: %v", e, err)
		}
	})
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	for e, info := range ps.bodies {
		t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		pos := info.body.Position()
		t.X = pos.X
		t.Y = pos.Y
		t.Rotation = info.body.Angle()
	}
}
