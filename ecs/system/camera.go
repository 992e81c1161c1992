package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/common"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
)

type CameraSystem struct {
	camEntity ecs.Entity
}

func NewCameraSystem() *CameraSystem {
	return &CameraSystem{}
}

// Update centres the camera on the bounding box of every rope curve.
func (cs *CameraSystem) Update(w *ecs.World) {
	if !cs.camEntity.Valid() || !ecs.IsAlive(w, cs.camEntity) {
		camEntity, ok := ecs.First(w, component.CameraComponent.Kind())
		if !ok {
			return
		}
		cs.camEntity = camEntity
	}

	cam, ok := ecs.Get(w, cs.camEntity, component.CameraComponent.Kind())
	if !ok {
		return
	}
	camTransform, ok := ecs.Get(w, cs.camEntity, component.TransformComponent.Kind())
	if !ok {
		return
	}
	center, ok := sceneCenter(w)
	if !ok {
		return
	}

	zoom := cam.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	targetX := center.X - cam.ViewWidth/(2*zoom)
	targetY := center.Y - cam.ViewHeight/(2*zoom)

	if !cam.Snapped || cam.Smoothness <= 0 || cam.Smoothness >= 1 {
		camTransform.X = targetX
		camTransform.Y = targetY
		cam.Snapped = true
		return
	}
	camTransform.X = common.Lerp(camTransform.X, targetX, cam.Smoothness)
	camTransform.Y = common.Lerp(camTransform.Y, targetY, cam.Smoothness)
}

func sceneCenter(w *ecs.World) (cp.Vector, bool) {
	var bb cp.BB
	found := false
	ecs.ForEach(w, component.RopeCurveComponent.Kind(), func(_ ecs.Entity, curve *component.RopeCurve) {
		for _, p := range curve.Points {
			if !found {
				bb = cp.NewBBForCircle(p, 0)
				found = true
				continue
			}
			bb = bb.Expand(p)
		}
	})
	if !found {
		return cp.Vector{}, false
	}
	return bb.Center(), true
}
