package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"golang.org/x/image/colornames"
)

const defaultAnchorRadius = 6

// DrawRopes strokes every rope curve as a polyline.
func DrawRopes(w *ecs.World, screen *ebiten.Image, view View) {
	if w == nil || screen == nil {
		return
	}
	ecs.ForEach(w, component.RopeCurveComponent.Kind(), func(_ ecs.Entity, curve *component.RopeCurve) {
		if len(curve.Points) < 2 {
			return
		}
		c := curve.Color
		if c == nil {
			c = colornames.Burlywood
		}
		width := curve.Width * float32(view.Zoom)
		if width <= 0 {
			width = 1
		}
		for i := 1; i < len(curve.Points); i++ {
			x1, y1 := view.ToScreen(curve.Points[i-1])
			x2, y2 := view.ToScreen(curve.Points[i])
			vector.StrokeLine(screen, x1, y1, x2, y2, width, c, curve.AntiAlias)
		}
	})
}

// DrawAnchors marks rope anchors. Kinematic anchors are drawn solid, free
// ones as an outline.
func DrawAnchors(w *ecs.World, screen *ebiten.Image, view View) {
	if w == nil || screen == nil {
		return
	}
	ecs.ForEach2(w, component.RopeAnchorComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, anchor *component.RopeAnchor, t *component.Transform) {
		radius := float32(defaultAnchorRadius)
		kinematic := false
		if pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok {
			if pb.Radius > 0 {
				radius = float32(pb.Radius)
			}
			kinematic = pb.Kinematic
		}
		radius *= float32(view.Zoom)
		x, y := view.ToScreen(cp.Vector{X: t.X, Y: t.Y})

		c := anchorColor(anchor.Role)
		if kinematic {
			vector.FillCircle(screen, x, y, radius, c, true)
			return
		}
		vector.StrokeCircle(screen, x, y, radius, 2, c, true)
	})
}

func anchorColor(role component.AnchorRole) color.Color {
	if role == component.AnchorRoleEnd {
		return colornames.Indianred
	}
	return colornames.Lightgrey
}

// DrawLedges fills static box bodies.
func DrawLedges(w *ecs.World, screen *ebiten.Image, view View) {
	if w == nil || screen == nil {
		return
	}
	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, pb *component.PhysicsBody, t *component.Transform) {
		if !pb.Static || pb.Radius > 0 || pb.Length > 0 {
			return
		}
		x, y := view.ToScreen(cp.Vector{X: t.X - pb.Width/2, Y: t.Y - pb.Height/2})
		wdt := float32(pb.Width * view.Zoom)
		hgt := float32(pb.Height * view.Zoom)
		vector.FillRect(screen, x, y, wdt, hgt, colornames.Slategray, false)
		vector.StrokeRect(screen, x, y, wdt, hgt, 1, colornames.Lightslategray, false)
	})
}
