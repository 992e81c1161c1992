package entity

import (
	"testing"

	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/levels"
)

func TestLoadLevelToWorld(t *testing.T) {
	lvl := &levels.Level{
		Name: "test",
		Entities: []levels.Entity{
			{Type: "rope", X: 0, Y: 0, Props: map[string]interface{}{"end_x": 100.0, "end_y": 0.0, "static_end": true}},
			{Type: "Rope", X: 10, Y: 10, Props: map[string]interface{}{"end_x": 10.0, "end_y": 90.0, "interval_scale_factor": 0.1, "driver": "orbit.tengo"}},
			{Type: "ledge", X: 50, Y: 200, Props: map[string]interface{}{"width": 300.0}},
			{Type: "lamp", X: 1, Y: 1},
		},
	}

	w := ecs.NewWorld()
	ropes, err := LoadLevelToWorld(w, lvl, LevelOverrides{})
	if err != nil {
		t.Fatalf("LoadLevelToWorld: %v", err)
	}
	if len(ropes) != 2 {
		t.Fatalf("expected 2 ropes, got %d", len(ropes))
	}

	first, _ := ecs.Get(w, ropes[0], component.RopeComponent.Kind())
	if !first.StaticEnd {
		t.Fatalf("static_end prop not applied")
	}
	second, _ := ecs.Get(w, ropes[1], component.RopeComponent.Kind())
	if second.IntervalScaleFactor != 0.1 || second.StaticEnd {
		t.Fatalf("unexpected second rope %+v", second)
	}
	if !ecs.Has(w, ecs.Entity(second.Start), component.AnchorDriverComponent.Kind()) {
		t.Fatalf("driver prop not applied")
	}

	ledges := 0
	ecs.ForEach(w, component.PhysicsBodyComponent.Kind(), func(_ ecs.Entity, pb *component.PhysicsBody) {
		if pb.Static {
			ledges++
			if pb.Width != 300 || pb.Height != 24 {
				t.Fatalf("ledge size = %vx%v", pb.Width, pb.Height)
			}
		}
	})
	if ledges != 1 {
		t.Fatalf("expected 1 ledge, got %d", ledges)
	}
}

func TestLoadLevelOverrides(t *testing.T) {
	lvl := &levels.Level{
		Entities: []levels.Entity{
			{Type: "rope", Props: map[string]interface{}{"end_x": 100.0, "static_end": false, "interval_scale_factor": 0.2}},
		},
	}
	static := true
	scale := 0.0
	w := ecs.NewWorld()
	ropes, err := LoadLevelToWorld(w, lvl, LevelOverrides{StaticEnd: &static, IntervalScaleFactor: &scale})
	if err != nil {
		t.Fatalf("LoadLevelToWorld: %v", err)
	}
	r, _ := ecs.Get(w, ropes[0], component.RopeComponent.Kind())
	if !r.StaticEnd || r.IntervalScaleFactor != 0 {
		t.Fatalf("overrides should win over props: %+v", r)
	}
}

func TestLoadEmbeddedLevels(t *testing.T) {
	for _, name := range levels.Names() {
		t.Run(name, func(t *testing.T) {
			lvl, err := levels.LoadLevelFromFS(name)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			w := ecs.NewWorld()
			if _, err := LoadLevelToWorld(w, lvl, LevelOverrides{}); err != nil {
				t.Fatalf("LoadLevelToWorld: %v", err)
			}
		})
	}
}
