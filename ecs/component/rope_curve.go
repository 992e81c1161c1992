package component

import (
	"image/color"

	"github.com/jakecoffman/cp"
)

// RopeCurve is the world-space polyline published for a rope every frame.
type RopeCurve struct {
	Points    []cp.Vector
	Width     float32
	Color     color.Color
	AntiAlias bool
}

var RopeCurveComponent = NewComponent[RopeCurve]()
