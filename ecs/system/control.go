package system

import (
	"log"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/ecs/entity"
)

const (
	grabRadius    = 32.0
	grabStiffness = 12.0
)

// ControlSystem turns Input into rope edits: rebuild requests, static-end
// toggles, scale changes and dragging anchors with the pointer.
type ControlSystem struct {
	physics *PhysicsSystem
	grabbed ecs.Entity
}

func NewControlSystem(physics *PhysicsSystem) *ControlSystem {
	return &ControlSystem{physics: physics}
}

func (cs *ControlSystem) Update(w *ecs.World) {
	if cs == nil || w == nil {
		return
	}
	ecs.ForEach(w, component.InputComponent.Kind(), func(_ ecs.Entity, in *component.Input) {
		if in.ToggleStaticEnd {
			cs.toggleStaticEnd(w)
		}
		if in.ScaleDelta != 0 {
			cs.adjustScale(w, in.ScaleDelta)
		}
		if in.Rebuild {
			cs.rebuildAll(w)
		}
		cs.grab(w, in)
	})
}

// Grabbed returns the anchor being dragged, if any.
func (cs *ControlSystem) Grabbed() (ecs.Entity, bool) {
	return cs.grabbed, cs.grabbed.Valid()
}

func (cs *ControlSystem) toggleStaticEnd(w *ecs.World) {
	ecs.ForEach(w, component.RopeComponent.Kind(), func(e ecs.Entity, r *component.Rope) {
		r.StaticEnd = !r.StaticEnd
		log.Printf("ControlSystem: rope %v static_end=%v", e, r.StaticEnd)
		if err := entity.RequestRopeBuild(w, e); err != nil {
			log.Printf("ControlSystem: request rebuild of %v: %v", e, err)
		}
	})
}

func (cs *ControlSystem) adjustScale(w *ecs.World, delta float64) {
	ecs.ForEach(w, component.RopeComponent.Kind(), func(e ecs.Entity, r *component.Rope) {
		cfg := entity.RopeConfig(r)
		cfg.IntervalScaleFactor = math.Max(0, cfg.IntervalScaleFactor+delta)
		if err := cfg.Validate(); err != nil {
			log.Printf("ControlSystem: rope %v: %v", e, err)
			return
		}
		entity.ApplyRopeConfig(r, cfg)
		if err := entity.RequestRopeBuild(w, e); err != nil {
			log.Printf("ControlSystem: request rebuild of %v: %v", e, err)
		}
	})
}

func (cs *ControlSystem) rebuildAll(w *ecs.World) {
	ecs.ForEach(w, component.RopeComponent.Kind(), func(e ecs.Entity, _ *component.Rope) {
		if err := entity.RequestRopeBuild(w, e); err != nil {
			log.Printf("ControlSystem: request rebuild of %v: %v", e, err)
		}
	})
}

func (cs *ControlSystem) grab(w *ecs.World, in *component.Input) {
	if !in.Grab {
		if cs.grabbed.Valid() {
			if body, ok := cs.physics.Body(cs.grabbed); ok && body.GetType() == cp.BODY_KINEMATIC {
				body.SetVelocityVector(cp.Vector{})
			}
		}
		cs.grabbed = 0
		return
	}

	target := cp.Vector{X: in.GrabX, Y: in.GrabY}
	if !cs.grabbed.Valid() || !ecs.IsAlive(w, cs.grabbed) {
		cs.grabbed = cs.nearestAnchor(w, target)
		if !cs.grabbed.Valid() {
			return
		}
	}
	body, ok := cs.physics.Body(cs.grabbed)
	if !ok {
		cs.grabbed = 0
		return
	}
	if body.GetType() == cp.BODY_KINEMATIC {
		body.SetVelocityVector(target.Sub(body.Position()).Mult(1 / cs.physics.TimeStep()))
		return
	}
	body.SetVelocityVector(target.Sub(body.Position()).Mult(grabStiffness))
}

func (cs *ControlSystem) nearestAnchor(w *ecs.World, p cp.Vector) ecs.Entity {
	var best ecs.Entity
	bestDist := grabRadius
	ecs.ForEach(w, component.RopeAnchorComponent.Kind(), func(e ecs.Entity, _ *component.RopeAnchor) {
		body, ok := cs.physics.Body(e)
		if !ok {
			return
		}
		if d := body.Position().Distance(p); d <= bestDist {
			best = e
			bestDist = d
		}
	})
	return best
}
