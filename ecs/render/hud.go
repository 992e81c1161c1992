package render

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
)

// DrawRopeStats prints one status line per rope plus any extra lines.
func DrawRopeStats(w *ecs.World, screen *ebiten.Image, extra ...string) {
	if w == nil || screen == nil {
		return
	}
	var b strings.Builder
	for _, line := range extra {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	ecs.ForEach(w, component.RopeComponent.Kind(), func(e ecs.Entity, r *component.Rope) {
		fmt.Fprintf(&b, "rope %v: %s links=%d interval=%.2f static_end=%v scale=%.3f\n",
			e, r.State, len(r.Segments), r.Interval, r.StaticEnd, r.IntervalScaleFactor)
	})
	ebitenutil.DebugPrintAt(screen, b.String(), 10, 10)
}
