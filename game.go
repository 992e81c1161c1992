package main

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/ecs/entity"
	"github.com/milk9111/rope/ecs/render"
	"github.com/milk9111/rope/ecs/system"
	"github.com/milk9111/rope/levels"
	"github.com/milk9111/rope/prefabs"
	"golang.org/x/image/colornames"
)

const (
	baseWidth  = 1280
	baseHeight = 720
)

type GameConfig struct {
	Level     string
	Debug     bool
	Watch     bool
	Overrides entity.LevelOverrides
}

type Game struct {
	cfg    GameConfig
	frames int
	debug  bool

	world     *ecs.World
	scheduler *ecs.Scheduler
	physics   *system.PhysicsSystem
	ropes     *system.RopeSystem
	drivers   *system.AnchorDriverSystem
	input     ecs.Entity

	watcher *prefabs.Watcher
}

func NewGame(cfg GameConfig) (*Game, error) {
	g := &Game{cfg: cfg, debug: cfg.Debug}
	if err := g.reset(); err != nil {
		return nil, err
	}
	if cfg.Watch {
		watcher, err := prefabs.NewWatcher(prefabs.Dir, prefabs.Dir+"/scripts", levels.Dir)
		if err != nil {
			log.Printf("Game: hot reload disabled: %v", err)
		} else {
			g.watcher = watcher
		}
	}
	return g, nil
}

// reset builds a fresh world from the configured level. Update order is
// input, anchor drivers, rope builds, physics, then curve refresh and camera.
func (g *Game) reset() error {
	lvl, err := levels.Load(g.cfg.Level)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}

	world := ecs.NewWorld()
	physics := system.NewPhysicsSystem(system.DefaultPhysicsConfig())
	ropes := system.NewRopeSystem(physics)
	drivers := system.NewAnchorDriverSystem(physics)

	if _, err := entity.NewCamera(world, baseWidth, baseHeight); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	input := ecs.CreateEntity(world)
	if err := ecs.Add(world, input, component.InputComponent.Kind(), &component.Input{}); err != nil {
		return fmt.Errorf("game: add input: %w", err)
	}
	ropeEnts, err := entity.LoadLevelToWorld(world, lvl, g.cfg.Overrides)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}
	log.Printf("Game: loaded level %q with %d ropes", lvl.Name, len(ropeEnts))

	g.world = world
	g.physics = physics
	g.ropes = ropes
	g.drivers = drivers
	g.input = input
	g.scheduler = ecs.NewScheduler(
		system.NewControlSystem(physics),
		drivers,
		ropes,
		physics,
		ropes.RefreshPhase(),
		system.NewCameraSystem(),
	)
	return nil
}

func (g *Game) Update() error {
	g.frames++

	if debugToggled() {
		g.debug = !g.debug
	}
	if levelReset() {
		g.resetOrLog()
	}
	g.pollWatcher()

	if in, ok := ecs.Get(g.world, g.input, component.InputComponent.Kind()); ok {
		*in = readInput(render.ViewFromWorld(g.world))
	}
	g.scheduler.Update(g.world)
	g.logEvents()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	view := render.ViewFromWorld(g.world)

	render.DrawLedges(g.world, screen, view)
	render.DrawRopes(g.world, screen, view)
	render.DrawAnchors(g.world, screen, view)
	if g.debug {
		render.DrawPhysicsDebug(g.physics.Space(), screen, view)
	}
	render.DrawRopeStats(g.world, screen,
		fmt.Sprintf("FPS: %.1f  level: %s  bodies: %d  joints: %d", ebiten.ActualFPS(), g.cfg.Level, g.physics.BodyCount(), g.physics.JointCount()),
		"R rebuild  S toggle static end  +/- scale  drag anchors  F1 debug  Backspace reset",
	)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}

func (g *Game) Close() {
	if g.watcher != nil {
		if err := g.watcher.Close(); err != nil {
			log.Printf("Game: close watcher: %v", err)
		}
	}
}

func (g *Game) resetOrLog() {
	if err := g.reset(); err != nil {
		log.Printf("Game: reset: %v", err)
	}
}

// pollWatcher applies file changes without blocking the frame.
func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.reload(name)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			log.Printf("Game: watcher: %v", err)
		default:
			return
		}
	}
}

func (g *Game) reload(name string) {
	switch {
	case prefabs.IsLevelFile(name):
		log.Printf("Game: level changed (%s), reloading", name)
		g.resetOrLog()
	case prefabs.IsScriptFile(name):
		log.Printf("Game: script changed (%s)", name)
		g.drivers.Invalidate()
	case prefabs.IsSpecFile(name):
		log.Printf("Game: prefab changed (%s), rebuilding ropes", name)
		g.ropes.InvalidateTemplates()
		ecs.ForEach(g.world, component.RopeComponent.Kind(), func(e ecs.Entity, _ *component.Rope) {
			if err := entity.RequestRopeBuild(g.world, e); err != nil {
				log.Printf("Game: request rebuild of %v: %v", e, err)
			}
		})
	}
}

func (g *Game) logEvents() {
	for _, evt := range g.world.Events().Drain() {
		re, ok := evt.Data.(ecs.RopeEvent)
		if !ok {
			continue
		}
		switch re.Kind {
		case ecs.RopeEventBuilt:
			log.Printf("Game: rope %v built with %d links", re.Rope, re.Segments)
		case ecs.RopeEventBuildFailed:
			log.Printf("Game: rope %v failed to build: %v", re.Rope, re.Err)
		default:
			log.Printf("Game: rope %v %s", re.Rope, re.Kind)
		}
	}
}
