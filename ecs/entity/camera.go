package entity

import (
	"fmt"

	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
)

const CameraPrefab = "camera.yaml"

// NewCamera builds the camera prefab for a viewport of the given size.
func NewCamera(w *ecs.World, viewWidth, viewHeight float64) (ecs.Entity, error) {
	camera, err := BuildEntity(w, CameraPrefab)
	if err != nil {
		return 0, fmt.Errorf("camera: %w", err)
	}
	cam, ok := ecs.Get(w, camera, component.CameraComponent.Kind())
	if !ok {
		ecs.DestroyEntity(w, camera)
		return 0, fmt.Errorf("camera: prefab %q has no camera component", CameraPrefab)
	}
	cam.ViewWidth = viewWidth
	cam.ViewHeight = viewHeight
	return camera, nil
}
