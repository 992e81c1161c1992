package system

import (
	"errors"
	"fmt"
	"log"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/ecs/entity"
	"github.com/milk9111/rope/rope"
)

var (
	ErrNotRope       = errors.New("rope: entity has no rope component")
	ErrMissingAnchor = errors.New("rope: anchor missing")
)

// RopeSystem builds ropes on request. Its refresh phase republishes every
// built rope's curve and must be scheduled after the physics system so the
// curve reflects the positions the solver just produced.
type RopeSystem struct {
	physics   *PhysicsSystem
	templates map[string]*entity.SegmentTemplate
}

func NewRopeSystem(physics *PhysicsSystem) *RopeSystem {
	return &RopeSystem{
		physics:   physics,
		templates: make(map[string]*entity.SegmentTemplate),
	}
}

// InvalidateTemplates drops cached segment templates so the next build
// reads them again.
func (s *RopeSystem) InvalidateTemplates() {
	clear(s.templates)
}

func (s *RopeSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}

	for _, e := range ecs.Query(w, component.RopeBuildRequestComponent.Kind()) {
		ecs.Remove(w, e, component.RopeBuildRequestComponent.Kind())
		chain, err := s.Build(w, e)
		if err != nil {
			log.Printf("RopeSystem: build rope %v: %v", e, err)
			w.Events().PushRope(ecs.RopeEvent{Rope: e, Kind: ecs.RopeEventBuildFailed, Err: err})
			continue
		}
		log.Printf("RopeSystem: built rope %v with %d chain entries", e, len(chain))
	}
}

// Refresh tears down ropes that lost an anchor and rewrites the curve of
// every built rope.
func (s *RopeSystem) Refresh(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	ecs.ForEach(w, component.RopeComponent.Kind(), func(e ecs.Entity, r *component.Rope) {
		if r.State != component.RopeBuilt {
			return
		}
		if !ecs.IsAlive(w, ecs.Entity(r.Start)) || !ecs.IsAlive(w, ecs.Entity(r.End)) {
			log.Printf("RopeSystem: rope %v lost an anchor, tearing down", e)
			s.Unbuild(w, e)
			return
		}
		s.RefreshRenderCurve(w, e)
	})
}

// RefreshPhase returns the refresh step as a schedulable system.
func (s *RopeSystem) RefreshPhase() ecs.System {
	return ropeRefreshPhase{rs: s}
}

type ropeRefreshPhase struct {
	rs *RopeSystem
}

func (p ropeRefreshPhase) Update(w *ecs.World) {
	p.rs.Refresh(w)
}

// Build constructs the rope's chain between its two anchors and returns it,
// start anchor first. A built rope is torn down and rebuilt from scratch.
// On failure the owned segments and joints are removed again, but the
// anchors keep the collision group, index tag and rotation already applied
// to them.
func (s *RopeSystem) Build(w *ecs.World, ropeEnt ecs.Entity) ([]ecs.Entity, error) {
	r, ok := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotRope, ropeEnt)
	}
	if r.State == component.RopeBuilt {
		s.Unbuild(w, ropeEnt)
	}

	start := ecs.Entity(r.Start)
	end := ecs.Entity(r.End)
	group := uint(ropeEnt.Slot())
	startPos, err := s.prepareAnchor(w, start, group)
	if err != nil {
		return nil, fmt.Errorf("rope: build: start: %w", err)
	}
	endPos, err := s.prepareAnchor(w, end, group)
	if err != nil {
		return nil, fmt.Errorf("rope: build: end: %w", err)
	}

	tmpl, err := s.template(r.SegmentPrefab)
	if err != nil {
		return nil, fmt.Errorf("rope: build: %w", err)
	}

	layout, err := rope.NewLayout(startPos, endPos, tmpl.JointOffset, entity.RopeConfig(r))
	if err != nil {
		return nil, fmt.Errorf("rope: build: %w", err)
	}

	chain := make([]ecs.Entity, 0, layout.ChainLen())
	chain = append(chain, start)
	if err := tagSegment(w, start, 0, ropeEnt); err != nil {
		return nil, fmt.Errorf("rope: build: start: %w", err)
	}

	for _, p := range layout.Segments {
		seg, err := s.spawnSegment(w, tmpl, p, layout.Rotation, ropeEnt, group)
		if err != nil {
			s.discard(w, chain[1:], nil)
			return nil, fmt.Errorf("rope: build: segment %d: %w", p.Index, err)
		}
		chain = append(chain, seg)
	}

	if err := s.physics.SetBodyAngle(w, end, layout.Rotation); err != nil {
		s.discard(w, chain[1:], nil)
		return nil, fmt.Errorf("rope: build: end: %w", err)
	}
	if err := tagSegment(w, end, layout.EndIndex, ropeEnt); err != nil {
		s.discard(w, chain[1:], nil)
		return nil, fmt.Errorf("rope: build: end: %w", err)
	}
	chain = append(chain, end)

	params := JointParams{Bias: r.Bias, Softness: r.Softness}
	joints := make([]component.RopeJoint, 0, len(layout.Joints))
	for _, jp := range layout.Joints {
		a, b := chain[jp.A], chain[jp.B]
		c, err := s.physics.AddPivotJoint(a, b, jp.Pivot, params)
		if err != nil {
			s.discard(w, chain[1:len(chain)-1], joints)
			return nil, fmt.Errorf("rope: build: joint %d-%d: %w", jp.A, jp.B, err)
		}
		joints = append(joints, component.RopeJoint{A: uint64(a), B: uint64(b), Pivot: jp.Pivot, Constraint: c})
	}

	if err := s.physics.SetBodyKinematic(w, end, r.StaticEnd); err != nil {
		s.discard(w, chain[1:len(chain)-1], joints)
		return nil, fmt.Errorf("rope: build: end: %w", err)
	}

	r.Segments = make([]uint64, len(chain))
	for i, e := range chain {
		r.Segments[i] = uint64(e)
	}
	r.Joints = joints
	r.Interval = layout.Interval
	r.SegmentCount = layout.SegmentCount
	r.State = component.RopeBuilt

	s.RefreshRenderCurve(w, ropeEnt)
	w.Events().PushRope(ecs.RopeEvent{Rope: ropeEnt, Kind: ecs.RopeEventBuilt, Segments: len(chain)})
	return chain, nil
}

// Unbuild removes the rope's joints and owned segments and returns it to
// the unbuilt state. Anchors are left in place.
func (s *RopeSystem) Unbuild(w *ecs.World, ropeEnt ecs.Entity) {
	r, ok := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	if !ok || r.State != component.RopeBuilt {
		return
	}
	var owned []ecs.Entity
	if len(r.Segments) > 2 {
		owned = make([]ecs.Entity, 0, len(r.Segments)-2)
		for _, ref := range r.Segments[1 : len(r.Segments)-1] {
			owned = append(owned, ecs.Entity(ref))
		}
	}
	s.discard(w, owned, r.Joints)

	r.Segments = nil
	r.Joints = nil
	r.Interval = 0
	r.SegmentCount = 0
	r.State = component.RopeUnbuilt
	if curve, ok := ecs.Get(w, ropeEnt, component.RopeCurveComponent.Kind()); ok {
		curve.Points = curve.Points[:0]
	}
	w.Events().PushRope(ecs.RopeEvent{Rope: ropeEnt, Kind: ecs.RopeEventUnbuilt})
}

// RefreshRenderCurve rewrites the rope's curve from live body positions:
// the start anchor's joint point, every intermediate segment, then the end
// anchor's joint point. The returned slice is the curve's buffer and is
// overwritten on the next refresh.
func (s *RopeSystem) RefreshRenderCurve(w *ecs.World, ropeEnt ecs.Entity) []cp.Vector {
	r, ok := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	if !ok || r.State != component.RopeBuilt || len(r.Segments) < 2 {
		return nil
	}
	curve, ok := ecs.Get(w, ropeEnt, component.RopeCurveComponent.Kind())
	if !ok {
		curve = &component.RopeCurve{Width: 2}
		if err := ecs.Add(w, ropeEnt, component.RopeCurveComponent.Kind(), curve); err != nil {
			return nil
		}
	}

	last := len(r.Segments) - 1
	pts := curve.Points[:0]
	pts = append(pts, s.jointPoint(w, ecs.Entity(r.Segments[0])))
	for _, ref := range r.Segments[1:last] {
		pts = append(pts, s.position(w, ecs.Entity(ref)))
	}
	pts = append(pts, s.jointPoint(w, ecs.Entity(r.Segments[last])))
	curve.Points = pts
	return pts
}

// Chain returns the rope's chain as entity handles.
func Chain(w *ecs.World, ropeEnt ecs.Entity) []ecs.Entity {
	r, ok := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	if !ok {
		return nil
	}
	out := make([]ecs.Entity, len(r.Segments))
	for i, ref := range r.Segments {
		out[i] = ecs.Entity(ref)
	}
	return out
}

func (s *RopeSystem) template(prefab string) (*entity.SegmentTemplate, error) {
	if prefab == "" {
		prefab = entity.DefaultSegmentPrefab
	}
	if tmpl, ok := s.templates[prefab]; ok {
		return tmpl, nil
	}
	tmpl, err := entity.LoadSegmentTemplate(prefab)
	if err != nil {
		return nil, err
	}
	s.templates[prefab] = tmpl
	return tmpl, nil
}

// prepareAnchor makes sure the anchor has a body in the rope's collision
// group and returns its joint point.
func (s *RopeSystem) prepareAnchor(w *ecs.World, anchor ecs.Entity, group uint) (cp.Vector, error) {
	if !ecs.IsAlive(w, anchor) {
		return cp.Vector{}, fmt.Errorf("%w: %v not alive", ErrMissingAnchor, anchor)
	}
	if !ecs.Has(w, anchor, component.RopeAnchorComponent.Kind()) {
		return cp.Vector{}, fmt.Errorf("%w: %v is not a rope anchor", ErrMissingAnchor, anchor)
	}
	s.physics.SetCollisionGroup(w, anchor, group)
	if _, err := s.physics.EnsureBody(w, anchor); err != nil {
		return cp.Vector{}, err
	}
	return s.jointPoint(w, anchor), nil
}

func (s *RopeSystem) spawnSegment(w *ecs.World, tmpl *entity.SegmentTemplate, p rope.Placement, rotation float64, ropeEnt ecs.Entity, group uint) (ecs.Entity, error) {
	seg, err := tmpl.Spawn(w)
	if err != nil {
		return 0, err
	}
	if err := entity.SetEntityTransform(w, seg, p.Position.X, p.Position.Y, rotation); err != nil {
		ecs.DestroyEntity(w, seg)
		return 0, err
	}
	if err := tagSegment(w, seg, p.Index, ropeEnt); err != nil {
		ecs.DestroyEntity(w, seg)
		return 0, err
	}
	s.physics.SetCollisionGroup(w, seg, group)
	if _, err := s.physics.EnsureBody(w, seg); err != nil {
		ecs.DestroyEntity(w, seg)
		return 0, err
	}
	return seg, nil
}

// discard removes joints, then the bodies and entities of owned segments.
func (s *RopeSystem) discard(w *ecs.World, owned []ecs.Entity, joints []component.RopeJoint) {
	for _, j := range joints {
		s.physics.RemoveJoint(j.Constraint)
	}
	for _, e := range owned {
		s.physics.ReleaseBody(e)
		ecs.DestroyEntity(w, e)
	}
}

func tagSegment(w *ecs.World, e ecs.Entity, index int, ropeEnt ecs.Entity) error {
	seg, ok := ecs.Get(w, e, component.RopeSegmentComponent.Kind())
	if !ok {
		seg = &component.RopeSegment{}
		if err := ecs.Add(w, e, component.RopeSegmentComponent.Kind(), seg); err != nil {
			return err
		}
	}
	seg.Index = index
	seg.Rope = uint64(ropeEnt)
	return nil
}

func (s *RopeSystem) jointPoint(w *ecs.World, e ecs.Entity) cp.Vector {
	var offset cp.Vector
	if seg, ok := ecs.Get(w, e, component.RopeSegmentComponent.Kind()); ok {
		offset = seg.JointOffset
	}
	if body, ok := s.physics.Body(e); ok {
		return body.LocalToWorld(offset)
	}
	return s.position(w, e).Add(offset)
}

func (s *RopeSystem) position(w *ecs.World, e ecs.Entity) cp.Vector {
	if body, ok := s.physics.Body(e); ok {
		return body.Position()
	}
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		return cp.Vector{X: t.X, Y: t.Y}
	}
	return cp.Vector{}
}
