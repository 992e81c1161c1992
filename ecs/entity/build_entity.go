package entity

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/prefabs"
	"github.com/milk9111/rope/rope"
	"golang.org/x/image/colornames"
)

type entityPrefabSpec = prefabs.EntityBuildSpec

type buildContext struct {
	PrefabPath string
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error

var componentRegistry = map[string]componentBuildFn{
	"transform":     addTransform,
	"physics_body":  addPhysicsBody,
	"rope_segment":  addRopeSegment,
	"rope_anchor":   addRopeAnchor,
	"anchor_driver": addAnchorDriver,
	"rope":          addRope,
	"rope_curve":    addRopeCurve,
	"camera":        addCamera,
}

var componentBuildOrder = []string{
	"transform",
	"physics_body",
	"rope_segment",
	"rope_anchor",
	"anchor_driver",
	"rope",
	"rope_curve",
	"camera",
}

func BuildEntity(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}

	spec, err := prefabs.LoadEntityBuildSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	return buildFromSpec(w, prefabPath, spec)
}

func buildFromSpec(w *ecs.World, prefabPath string, spec entityPrefabSpec) (ecs.Entity, error) {
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", prefabPath)
	}

	e := ecs.CreateEntity(w)
	ctx := &buildContext{PrefabPath: prefabPath}

	remaining := make(map[string]any, len(spec.Components))
	for k, v := range spec.Components {
		remaining[k] = v
	}

	for _, name := range componentBuildOrder {
		raw, ok := remaining[name]
		if !ok {
			continue
		}
		if err := componentRegistry[name](w, e, raw, ctx); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, fmt.Errorf("build entity: %q: add %q: %w", prefabPath, name, err)
		}
		delete(remaining, name)
	}

	if len(remaining) > 0 {
		names := make([]string, 0, len(remaining))
		for name := range remaining {
			names = append(names, name)
		}
		sort.Strings(names)
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("build entity: %q: no builder for component %q", prefabPath, names[0])
	}

	return e, nil
}

func SetEntityTransform(w *ecs.World, e ecs.Entity, x, y, rotation float64) error {
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		t = &component.Transform{}
	}
	t.X = x
	t.Y = y
	t.Rotation = rotation
	return ecs.Add(w, e, component.TransformComponent.Kind(), t)
}

type transformSpec = prefabs.TransformComponentSpec

func addTransform(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[transformSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		X:        spec.X,
		Y:        spec.Y,
		Rotation: spec.Rotation,
	})
}

type physicsBodySpec = prefabs.PhysicsBodyComponentSpec

func addPhysicsBody(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[physicsBodySpec](raw)
	if err != nil {
		return fmt.Errorf("decode physics body spec: %w", err)
	}
	if spec.Radius < 0 || spec.Length < 0 || spec.Width < 0 || spec.Height < 0 {
		return fmt.Errorf("physics body dimensions must not be negative")
	}
	if spec.Radius == 0 && spec.Length == 0 {
		if spec.Width == 0 {
			spec.Width = 8
		}
		if spec.Height == 0 {
			spec.Height = 8
		}
	}
	if spec.Mass <= 0 {
		spec.Mass = 1
	}

	return ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Width:      spec.Width,
		Height:     spec.Height,
		Radius:     spec.Radius,
		Length:     spec.Length,
		Mass:       spec.Mass,
		Friction:   spec.Friction,
		Elasticity: spec.Elasticity,
		Kinematic:  spec.Kinematic,
		Static:     spec.Static,
	})
}

type ropeSegmentSpec = prefabs.RopeSegmentComponentSpec

func addRopeSegment(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[ropeSegmentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode rope segment spec: %w", err)
	}
	return ecs.Add(w, e, component.RopeSegmentComponent.Kind(), &component.RopeSegment{
		JointOffset: cp.Vector{X: spec.JointOffsetX, Y: spec.JointOffsetY},
	})
}

type ropeAnchorSpec = prefabs.RopeAnchorComponentSpec

func addRopeAnchor(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[ropeAnchorSpec](raw)
	if err != nil {
		return fmt.Errorf("decode rope anchor spec: %w", err)
	}
	role := component.AnchorRole(spec.Role)
	switch role {
	case component.AnchorRoleStart, component.AnchorRoleEnd:
	default:
		return fmt.Errorf("unknown anchor role %q", spec.Role)
	}
	return ecs.Add(w, e, component.RopeAnchorComponent.Kind(), &component.RopeAnchor{Role: role})
}

type anchorDriverSpec = prefabs.AnchorDriverComponentSpec

func addAnchorDriver(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[anchorDriverSpec](raw)
	if err != nil {
		return fmt.Errorf("decode anchor driver spec: %w", err)
	}
	if spec.Script == "" {
		return fmt.Errorf("anchor driver requires a script")
	}
	return ecs.Add(w, e, component.AnchorDriverComponent.Kind(), &component.AnchorDriver{Script: spec.Script})
}

type ropeSpec = prefabs.RopeComponentSpec

func addRope(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[ropeSpec](raw)
	if err != nil {
		return fmt.Errorf("decode rope spec: %w", err)
	}
	cfg := rope.DefaultConfig()
	cfg.StaticEnd = spec.StaticRopeEnd
	setIf(&cfg.IntervalScaleFactor, spec.IntervalScaleFactor)
	setIf(&cfg.BaseInterval, spec.BaseInterval)
	setIf(&cfg.EndTolerance, spec.EndTolerance)
	setIf(&cfg.Bias, spec.Bias)
	setIf(&cfg.Softness, spec.Softness)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if spec.SegmentPrefab == "" {
		spec.SegmentPrefab = DefaultSegmentPrefab
	}

	r := &component.Rope{SegmentPrefab: spec.SegmentPrefab}
	ApplyRopeConfig(r, cfg)
	return ecs.Add(w, e, component.RopeComponent.Kind(), r)
}

type ropeCurveSpec = prefabs.RopeCurveComponentSpec

func addRopeCurve(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[ropeCurveSpec](raw)
	if err != nil {
		return fmt.Errorf("decode rope curve spec: %w", err)
	}
	if spec.Width <= 0 {
		spec.Width = 2
	}
	c := color.Color(colornames.Burlywood)
	if spec.Color != nil && spec.Color.Color != nil {
		c = spec.Color.Color
	}
	return ecs.Add(w, e, component.RopeCurveComponent.Kind(), &component.RopeCurve{
		Width:     spec.Width,
		Color:     c,
		AntiAlias: spec.AntiAlias,
	})
}

type cameraSpec = prefabs.CameraComponentSpec

func addCamera(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[cameraSpec](raw)
	if err != nil {
		return fmt.Errorf("decode camera spec: %w", err)
	}
	if spec.Zoom <= 0 {
		spec.Zoom = 1
	}
	if spec.Smoothness <= 0 || spec.Smoothness > 1 {
		spec.Smoothness = 0.15
	}
	return ecs.Add(w, e, component.CameraComponent.Kind(), &component.Camera{
		Zoom:       spec.Zoom,
		Smoothness: spec.Smoothness,
	})
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
