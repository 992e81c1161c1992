package component

// Input stores one frame of player intent.
type Input struct {
	Rebuild         bool
	ToggleStaticEnd bool
	// ScaleDelta is added to every rope's interval scale factor.
	ScaleDelta float64
	Grab       bool
	GrabX      float64
	GrabY      float64
}

var InputComponent = NewComponent[Input]()
