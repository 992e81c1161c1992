package component

// Camera frames the scene. The entity's Transform holds the world point
// drawn at the top-left of the screen.
type Camera struct {
	Zoom       float64
	Smoothness float64
	ViewWidth  float64
	ViewHeight float64
	// Snapped is set once the camera has jumped to its first target;
	// later frames ease towards the target instead.
	Snapped bool
}

var CameraComponent = NewComponent[Camera]()
