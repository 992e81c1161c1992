package entity

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/prefabs"
	"github.com/milk9111/rope/rope"
)

const (
	DefaultRopePrefab    = "rope.yaml"
	DefaultSegmentPrefab = "rope_segment.yaml"
	StartAnchorPrefab    = "rope_start.yaml"
	EndAnchorPrefab      = "rope_end.yaml"
)

var ErrNotSegmentTemplate = errors.New("entity: prefab is not a rope segment template")

// RopeParams places a rope. Nil overrides keep the prefab's values.
type RopeParams struct {
	Prefab              string
	StartX, StartY      float64
	EndX, EndY          float64
	StaticEnd           *bool
	IntervalScaleFactor *float64
	// StartDriver names a tengo script that moves the start anchor.
	StartDriver string
}

// NewRope builds both anchors and the rope entity, and queues a build
// request for the rope system.
func NewRope(w *ecs.World, p RopeParams) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("rope: world is nil")
	}
	prefab := p.Prefab
	if prefab == "" {
		prefab = DefaultRopePrefab
	}

	var built []ecs.Entity
	fail := func(err error) (ecs.Entity, error) {
		for _, e := range built {
			ecs.DestroyEntity(w, e)
		}
		return 0, fmt.Errorf("rope: %w", err)
	}

	start, err := NewRopeAnchorAt(w, StartAnchorPrefab, p.StartX, p.StartY)
	if err != nil {
		return fail(err)
	}
	built = append(built, start)
	if p.StartDriver != "" {
		driver := &component.AnchorDriver{Script: p.StartDriver, OriginX: p.StartX, OriginY: p.StartY, Initialized: true}
		if err := ecs.Add(w, start, component.AnchorDriverComponent.Kind(), driver); err != nil {
			return fail(err)
		}
	}

	end, err := NewRopeAnchorAt(w, EndAnchorPrefab, p.EndX, p.EndY)
	if err != nil {
		return fail(err)
	}
	built = append(built, end)

	ropeEnt, err := BuildEntity(w, prefab)
	if err != nil {
		return fail(err)
	}
	built = append(built, ropeEnt)

	r, ok := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	if !ok {
		return fail(fmt.Errorf("prefab %q has no rope component", prefab))
	}
	r.Start = uint64(start)
	r.End = uint64(end)
	if p.StaticEnd != nil {
		r.StaticEnd = *p.StaticEnd
	}
	if p.IntervalScaleFactor != nil {
		r.IntervalScaleFactor = *p.IntervalScaleFactor
	}
	if err := RopeConfig(r).Validate(); err != nil {
		return fail(err)
	}
	if !ecs.Has(w, ropeEnt, component.RopeCurveComponent.Kind()) {
		if err := ecs.Add(w, ropeEnt, component.RopeCurveComponent.Kind(), &component.RopeCurve{Width: 2}); err != nil {
			return fail(err)
		}
	}
	if err := RequestRopeBuild(w, ropeEnt); err != nil {
		return fail(err)
	}
	return ropeEnt, nil
}

// NewRopeAnchorAt builds an anchor prefab at x, y.
func NewRopeAnchorAt(w *ecs.World, prefab string, x, y float64) (ecs.Entity, error) {
	anchor, err := BuildEntity(w, prefab)
	if err != nil {
		return 0, err
	}
	if !ecs.Has(w, anchor, component.RopeAnchorComponent.Kind()) {
		ecs.DestroyEntity(w, anchor)
		return 0, fmt.Errorf("anchor: prefab %q has no rope_anchor component", prefab)
	}
	if err := SetEntityTransform(w, anchor, x, y, 0); err != nil {
		ecs.DestroyEntity(w, anchor)
		return 0, fmt.Errorf("anchor: override transform: %w", err)
	}
	return anchor, nil
}

// RequestRopeBuild marks a rope for (re)building on the next rope system update.
func RequestRopeBuild(w *ecs.World, ropeEnt ecs.Entity) error {
	return ecs.Add(w, ropeEnt, component.RopeBuildRequestComponent.Kind(), &component.RopeBuildRequest{})
}

// RopeConfig extracts the layout config stored on a rope component.
func RopeConfig(r *component.Rope) rope.Config {
	return rope.Config{
		StaticEnd:           r.StaticEnd,
		IntervalScaleFactor: r.IntervalScaleFactor,
		BaseInterval:        r.BaseInterval,
		EndTolerance:        r.EndTolerance,
		Bias:                r.Bias,
		Softness:            r.Softness,
	}
}

// ApplyRopeConfig copies cfg onto a rope component.
func ApplyRopeConfig(r *component.Rope, cfg rope.Config) {
	r.StaticEnd = cfg.StaticEnd
	r.IntervalScaleFactor = cfg.IntervalScaleFactor
	r.BaseInterval = cfg.BaseInterval
	r.EndTolerance = cfg.EndTolerance
	r.Bias = cfg.Bias
	r.Softness = cfg.Softness
}

// SegmentTemplate is a parsed segment prefab that can be instantiated
// repeatedly without touching the filesystem.
type SegmentTemplate struct {
	Prefab      string
	JointOffset cp.Vector
	spec        entityPrefabSpec
}

func LoadSegmentTemplate(prefab string) (*SegmentTemplate, error) {
	spec, err := prefabs.LoadEntityBuildSpec(prefab)
	if err != nil {
		return nil, fmt.Errorf("segment template: %w", err)
	}
	raw, ok := spec.Components["rope_segment"]
	if !ok {
		return nil, fmt.Errorf("%w: %q lacks rope_segment", ErrNotSegmentTemplate, prefab)
	}
	if _, ok := spec.Components["physics_body"]; !ok {
		return nil, fmt.Errorf("%w: %q lacks physics_body", ErrNotSegmentTemplate, prefab)
	}
	seg, err := prefabs.DecodeComponentSpec[ropeSegmentSpec](raw)
	if err != nil {
		return nil, fmt.Errorf("segment template: decode %q: %w", prefab, err)
	}
	return &SegmentTemplate{
		Prefab:      prefab,
		JointOffset: cp.Vector{X: seg.JointOffsetX, Y: seg.JointOffsetY},
		spec:        spec,
	}, nil
}

// Spawn instantiates the template.
func (t *SegmentTemplate) Spawn(w *ecs.World) (ecs.Entity, error) {
	if t == nil {
		return 0, ErrNotSegmentTemplate
	}
	return buildFromSpec(w, t.Prefab, t.spec)
}
