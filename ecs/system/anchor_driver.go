package system

import (
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/prefabs"
)

const anchorDriverDispatchScript = `
update(__engine, __state)
`

// AnchorDriverSystem moves kinematic anchors along paths computed by tengo
// scripts. Targets are turned into velocities so attached joints feel the
// motion instead of seeing a teleport.
type AnchorDriverSystem struct {
	physics *PhysicsSystem
	cache   map[ecs.Entity]*anchorScriptRuntime
}

type anchorScriptRuntime struct {
	scriptPath string
	compiled   *tengo.Compiled
	stateData  *tengo.Map
}

func NewAnchorDriverSystem(physics *PhysicsSystem) *AnchorDriverSystem {
	return &AnchorDriverSystem{
		physics: physics,
		cache:   make(map[ecs.Entity]*anchorScriptRuntime),
	}
}

// Invalidate forgets every compiled script. Script state is reset too.
func (s *AnchorDriverSystem) Invalidate() {
	clear(s.cache)
}

func (s *AnchorDriverSystem) Update(w *ecs.World) {
	if s == nil || w == nil || s.physics == nil {
		return
	}
	for e := range s.cache {
		if !ecs.IsAlive(w, e) || !ecs.Has(w, e, component.AnchorDriverComponent.Kind()) {
			delete(s.cache, e)
		}
	}

	dt := s.physics.TimeStep()
	ecs.ForEach(w, component.AnchorDriverComponent.Kind(), func(e ecs.Entity, d *component.AnchorDriver) {
		body, err := s.physics.EnsureBody(w, e)
		if err != nil {
			log.Printf("AnchorDriverSystem: entity %v: %v", e, err)
			return
		}
		if body.GetType() != cp.BODY_KINEMATIC {
			return
		}

		pos := body.Position()
		if !d.Initialized {
			d.OriginX, d.OriginY = pos.X, pos.Y
			d.Initialized = true
		}
		d.Elapsed += dt

		rt, err := s.runtime(e, d.Script)
		if err != nil {
			log.Printf("AnchorDriverSystem: entity %v load %q: %v", e, d.Script, err)
			body.SetVelocityVector(cp.Vector{})
			return
		}

		target := pos
		moved := false
		engine := buildAnchorScriptEngine(d, pos, dt, func(x, y float64) {
			target = cp.Vector{X: x, Y: y}
			moved = true
		})
		if err := rt.run(engine); err != nil {
			log.Printf("AnchorDriverSystem: entity %v script %q: %v", e, d.Script, err)
			body.SetVelocityVector(cp.Vector{})
			return
		}
		if !moved {
			body.SetVelocityVector(cp.Vector{})
			return
		}
		body.SetVelocityVector(target.Sub(pos).Mult(1 / dt))
	})
}

func (s *AnchorDriverSystem) runtime(e ecs.Entity, scriptPath string) (*anchorScriptRuntime, error) {
	if strings.TrimSpace(scriptPath) == "" {
		return nil, fmt.Errorf("empty script path")
	}
	if rt, ok := s.cache[e]; ok && rt.scriptPath == scriptPath {
		return rt, nil
	}

	scriptBytes, err := prefabs.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}

	src := string(scriptBytes) + "\n" + anchorDriverDispatchScript
	script := tengo.NewScript([]byte(src))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}

	rt := &anchorScriptRuntime{
		scriptPath: scriptPath,
		compiled:   compiled,
		stateData:  &tengo.Map{Value: map[string]tengo.Object{}},
	}
	s.cache[e] = rt
	return rt, nil
}

func (rt *anchorScriptRuntime) run(engine *tengo.ImmutableMap) error {
	if err := rt.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.stateData); err != nil {
		return err
	}
	return rt.compiled.Run()
}

func buildAnchorScriptEngine(d *component.AnchorDriver, pos cp.Vector, dt float64, moveTo func(x, y float64)) *tengo.ImmutableMap {
	values := map[string]tengo.Object{
		"time":     &tengo.Float{Value: d.Elapsed},
		"dt":       &tengo.Float{Value: dt},
		"x":        &tengo.Float{Value: pos.X},
		"y":        &tengo.Float{Value: pos.Y},
		"origin_x": &tengo.Float{Value: d.OriginX},
		"origin_y": &tengo.Float{Value: d.OriginY},
	}

	values["move_to"] = &tengo.UserFunction{Name: "move_to", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, tengo.ErrWrongNumArguments
		}
		x, ok := tengo.ToFloat64(args[0])
		if !ok {
			return tengo.FalseValue, tengo.ErrInvalidArgumentType{Name: "x", Expected: "float", Found: args[0].TypeName()}
		}
		y, ok := tengo.ToFloat64(args[1])
		if !ok {
			return tengo.FalseValue, tengo.ErrInvalidArgumentType{Name: "y", Expected: "float", Found: args[1].TypeName()}
		}
		moveTo(x, y)
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
