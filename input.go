package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/ecs/render"
)

const scaleStep = 0.01

// readInput samples the keyboard and mouse for one frame. The pointer is
// converted to world space through view.
func readInput(view render.View) component.Input {
	in := component.Input{
		Rebuild:         inpututil.IsKeyJustPressed(ebiten.KeyR),
		ToggleStaticEnd: inpututil.IsKeyJustPressed(ebiten.KeyS),
		Grab:            ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		in.ScaleDelta += scaleStep
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		in.ScaleDelta -= scaleStep
	}

	if gamepads := ebiten.AppendGamepadIDs(nil); len(gamepads) > 0 {
		id := gamepads[0]
		in.Rebuild = in.Rebuild || inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightBottom)
		in.ToggleStaticEnd = in.ToggleStaticEnd || inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightRight)
	}

	mx, my := ebiten.CursorPosition()
	zoom := view.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	in.GrabX = float64(mx)/zoom + view.X
	in.GrabY = float64(my)/zoom + view.Y
	return in
}

func debugToggled() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyF1)
}

func levelReset() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyBackspace)
}
