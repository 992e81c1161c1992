package render

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
)

// View maps world coordinates to screen pixels.
type View struct {
	X    float64
	Y    float64
	Zoom float64
}

// ViewFromWorld reads the first camera in w. Without one the world is drawn
// unscaled from the origin.
func ViewFromWorld(w *ecs.World) View {
	v := View{Zoom: 1}
	camEntity, ok := ecs.First(w, component.CameraComponent.Kind())
	if !ok {
		return v
	}
	if camTransform, ok := ecs.Get(w, camEntity, component.TransformComponent.Kind()); ok {
		v.X = camTransform.X
		v.Y = camTransform.Y
	}
	if cam, ok := ecs.Get(w, camEntity, component.CameraComponent.Kind()); ok && cam.Zoom > 0 {
		v.Zoom = cam.Zoom
	}
	return v
}

func (v View) ToScreen(p cp.Vector) (float32, float32) {
	return float32((p.X - v.X) * v.Zoom), float32((p.Y - v.Y) * v.Zoom)
}
