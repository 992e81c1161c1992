package entity

import (
	"fmt"
	"log"
	"strings"

	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/levels"
)

const LedgePrefab = "ledge.yaml"

// LevelOverrides are applied to every rope in a level after its own props.
type LevelOverrides struct {
	StaticEnd           *bool
	IntervalScaleFactor *float64
}

// LoadLevelToWorld spawns the level's entities and returns the ropes it
// created. Entities of unknown type are skipped.
func LoadLevelToWorld(world *ecs.World, lvl *levels.Level, overrides LevelOverrides) ([]ecs.Entity, error) {
	if world == nil || lvl == nil {
		return nil, fmt.Errorf("level: world and level are required")
	}

	var ropes []ecs.Entity
	for i, ent := range lvl.Entities {
		switch strings.ToLower(ent.Type) {
		case "rope":
			ropeEnt, err := NewRope(world, ropeParams(ent, overrides))
			if err != nil {
				return ropes, fmt.Errorf("level %q: entity %d: %w", lvl.Name, i, err)
			}
			ropes = append(ropes, ropeEnt)
		case "ledge":
			width, _ := ent.Float("width")
			height, _ := ent.Float("height")
			if _, err := NewLedge(world, ent.X, ent.Y, width, height); err != nil {
				return ropes, fmt.Errorf("level %q: entity %d: %w", lvl.Name, i, err)
			}
		default:
			log.Printf("Level: %q: skipping unknown entity type %q", lvl.Name, ent.Type)
		}
	}
	return ropes, nil
}

func ropeParams(ent levels.Entity, overrides LevelOverrides) RopeParams {
	p := RopeParams{
		Prefab:      ent.String("prefab"),
		StartX:      ent.X,
		StartY:      ent.Y,
		EndX:        ent.X,
		EndY:        ent.Y,
		StartDriver: ent.String("driver"),
	}
	if v, ok := ent.Float("end_x"); ok {
		p.EndX = v
	}
	if v, ok := ent.Float("end_y"); ok {
		p.EndY = v
	}
	if v, ok := ent.Bool("static_end"); ok {
		p.StaticEnd = &v
	}
	if v, ok := ent.Float("interval_scale_factor"); ok {
		p.IntervalScaleFactor = &v
	}
	if overrides.StaticEnd != nil {
		p.StaticEnd = overrides.StaticEnd
	}
	if overrides.IntervalScaleFactor != nil {
		p.IntervalScaleFactor = overrides.IntervalScaleFactor
	}
	return p
}

// NewLedge places a static box centred on x, y. Zero dimensions keep the
// prefab's size.
func NewLedge(w *ecs.World, x, y, width, height float64) (ecs.Entity, error) {
	ledge, err := BuildEntity(w, LedgePrefab)
	if err != nil {
		return 0, fmt.Errorf("ledge: %w", err)
	}
	pb, ok := ecs.Get(w, ledge, component.PhysicsBodyComponent.Kind())
	if !ok {
		ecs.DestroyEntity(w, ledge)
		return 0, fmt.Errorf("ledge: prefab %q has no physics body", LedgePrefab)
	}
	if width > 0 {
		pb.Width = width
	}
	if height > 0 {
		pb.Height = height
	}
	if err := SetEntityTransform(w, ledge, x, y, 0); err != nil {
		ecs.DestroyEntity(w, ledge)
		return 0, fmt.Errorf("ledge: %w", err)
	}
	return ledge, nil
}
