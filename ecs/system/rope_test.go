package system

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rope/ecs"
	"github.com/milk9111/rope/ecs/component"
	"github.com/milk9111/rope/ecs/entity"
	"github.com/milk9111/rope/prefabs"
	"github.com/milk9111/rope/rope"
)

func newTestRope(t *testing.T, w *ecs.World, p entity.RopeParams) ecs.Entity {
	t.Helper()
	ropeEnt, err := entity.NewRope(w, p)
	if err != nil {
		t.Fatalf("NewRope: %v", err)
	}
	return ropeEnt
}

func newRopeSystems() (*PhysicsSystem, *RopeSystem) {
	ps := NewPhysicsSystem(DefaultPhysicsConfig())
	return ps, NewRopeSystem(ps)
}

func TestRopeBuildHorizontal(t *testing.T) {
	w := ecs.NewWorld()
	ps, rs := newRopeSystems()
	ropeEnt := newTestRope(t, w, entity.RopeParams{EndX: 100})

	chain, err := rs.Build(w, ropeEnt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r, _ := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	if r.State != component.RopeBuilt {
		t.Fatalf("state = %v, want built", r.State)
	}
	if r.Interval != 13 || r.SegmentCount != 8 {
		t.Fatalf("interval = %v count = %d, want 13 and 8", r.Interval, r.SegmentCount)
	}
	if len(chain) != 9 || len(r.Segments) != 9 {
		t.Fatalf("chain length = %d (component %d), want 9", len(chain), len(r.Segments))
	}
	if chain[0] != ecs.Entity(r.Start) || chain[len(chain)-1] != ecs.Entity(r.End) {
		t.Fatalf("chain must start and end with the anchors")
	}

	for i, e := range chain {
		if ecs.Entity(r.Segments[i]) != e {
			t.Fatalf("Segments[%d] mismatch", i)
		}
		seg, ok := ecs.Get(w, e, component.RopeSegmentComponent.Kind())
		if !ok {
			t.Fatalf("chain entry %d has no rope segment", i)
		}
		if seg.Index != i {
			t.Fatalf("chain entry %d has index %d", i, seg.Index)
		}
		if ecs.Entity(seg.Rope) != ropeEnt {
			t.Fatalf("chain entry %d points at rope %v", i, seg.Rope)
		}
	}

	for i, e := range chain[1 : len(chain)-1] {
		body, ok := ps.Body(e)
		if !ok {
			t.Fatalf("segment %d has no body", i+1)
		}
		want := cp.Vector{X: 13 * float64(i+1)}
		if body.Position().Distance(want) > 1e-9 {
			t.Fatalf("segment %d at %v, want %v", i+1, body.Position(), want)
		}
		if math.Abs(body.Angle()+math.Pi/2) > 1e-9 {
			t.Fatalf("segment %d angle = %v", i+1, body.Angle())
		}
	}

	if len(r.Joints) != len(chain)-1 || ps.JointCount() != len(chain)-1 {
		t.Fatalf("joints = %d (space %d), want %d", len(r.Joints), ps.JointCount(), len(chain)-1)
	}
	for i, j := range r.Joints {
		a, b, ok := ps.JointBodies(j.Constraint)
		if !ok {
			t.Fatalf("joint %d not registered", i)
		}
		if a != chain[i] || b != chain[i+1] {
			t.Fatalf("joint %d links %v-%v, want %v-%v", i, a, b, chain[i], chain[i+1])
		}
		if ecs.Entity(j.A) != a || ecs.Entity(j.B) != b {
			t.Fatalf("joint %d handles disagree with space", i)
		}
	}
	if last := r.Joints[len(r.Joints)-1].Pivot; last != (cp.Vector{X: 100}) {
		t.Fatalf("closing joint pivot = %v, want end anchor", last)
	}

	if ps.BodyCount() != len(chain) {
		t.Fatalf("BodyCount = %d, want %d", ps.BodyCount(), len(chain))
	}
	end, _ := ps.Body(chain[len(chain)-1])
	if end.GetType() != cp.BODY_DYNAMIC {
		t.Fatalf("free end should be dynamic")
	}
	start, _ := ps.Body(chain[0])
	if start.GetType() != cp.BODY_KINEMATIC {
		t.Fatalf("start anchor should be kinematic")
	}
}

func TestRopeBuildStaticEnd(t *testing.T) {
	w := ecs.NewWorld()
	ps, rs := newRopeSystems()
	static := true
	ropeEnt := newTestRope(t, w, entity.RopeParams{EndX: 60, EndY: 80, StaticEnd: &static})

	chain, err := rs.Build(w, ropeEnt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	end, _ := ps.Body(chain[len(chain)-1])
	if end.GetType() != cp.BODY_KINEMATIC {
		t.Fatalf("static end should be kinematic")
	}

	for i := 0; i < 30; i++ {
		ps.Update(w)
	}
	if end.Position().Distance(cp.Vector{X: 60, Y: 80}) > 1e-9 {
		t.Fatalf("static end moved to %v", end.Position())
	}
}

func TestRopeRebuildReplacesSegments(t *testing.T) {
	w := ecs.NewWorld()
	ps, rs := newRopeSystems()
	ropeEnt := newTestRope(t, w, entity.RopeParams{EndX: 100})

	first, err := rs.Build(w, ropeEnt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	entities := len(ecs.Entities(w))

	second, err := rs.Build(w, ropeEnt)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("rebuild changed chain length %d -> %d", len(first), len(second))
	}
	if second[0] != first[0] || second[len(second)-1] != first[len(first)-1] {
		t.Fatalf("rebuild must keep the anchors")
	}
	for _, e := range first[1 : len(first)-1] {
		if ecs.IsAlive(w, e) {
			t.Fatalf("old segment %v survived the rebuild", e)
		}
	}
	if got := len(ecs.Entities(w)); got != entities {
		t.Fatalf("entity count %d -> %d across rebuild", entities, got)
	}
	if ps.BodyCount() != len(second) || ps.JointCount() != len(second)-1 {
		t.Fatalf("bodies = %d joints = %d after rebuild", ps.BodyCount(), ps.JointCount())
	}
}

func TestRopeBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, w *ecs.World) ecs.Entity
		want  error
	}{
		{
			name: "coincident anchors",
			setup: func(t *testing.T, w *ecs.World) ecs.Entity {
				return newTestRope(t, w, entity.RopeParams{StartX: 5, StartY: 5, EndX: 5, EndY: 5})
			},
			want: rope.ErrDegenerateRope,
		},
		{
			name: "missing end anchor",
			setup: func(t *testing.T, w *ecs.World) ecs.Entity {
				ropeEnt := newTestRope(t, w, entity.RopeParams{EndX: 40})
				r, _ := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
				ecs.DestroyEntity(w, ecs.Entity(r.End))
				return ropeEnt
			},
			want: ErrMissingAnchor,
		},
		{
			name: "not a rope",
			setup: func(t *testing.T, w *ecs.World) ecs.Entity {
				return ecs.CreateEntity(w)
			},
			want: ErrNotRope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ecs.NewWorld()
			ps, rs := newRopeSystems()
			ropeEnt := tt.setup(t, w)

			chain, err := rs.Build(w, ropeEnt)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build error = %v, want %v", err, tt.want)
			}
			if chain != nil {
				t.Fatalf("failed build returned a chain")
			}
			if ps.JointCount() != 0 {
				t.Fatalf("failed build left %d joints", ps.JointCount())
			}
			if n := len(ecs.Query(w, component.RopeSegmentComponent.Kind())); n > 2 {
				t.Fatalf("failed build left %d segment entities", n)
			}
			if r, ok := ecs.Get(w, ropeEnt, component.RopeComponent.Kind()); ok && r.State != component.RopeUnbuilt {
				t.Fatalf("failed build changed state to %v", r.State)
			}
		})
	}
}

func TestRopeUpdateProcessesRequests(t *testing.T) {
	w := ecs.NewWorld()
	_, rs := newRopeSystems()
	good := newTestRope(t, w, entity.RopeParams{EndX: 100})
	bad := newTestRope(t, w, entity.RopeParams{StartX: 1, EndX: 1})

	rs.Update(w)

	for _, e := range []ecs.Entity{good, bad} {
		if ecs.Has(w, e, component.RopeBuildRequestComponent.Kind()) {
			t.Fatalf("request on %v not consumed", e)
		}
	}

	kinds := map[ecs.Entity]ecs.RopeEventKind{}
	for _, evt := range w.Events().Drain() {
		re, ok := evt.Data.(ecs.RopeEvent)
		if !ok {
			continue
		}
		kinds[re.Rope] = re.Kind
		if re.Kind == ecs.RopeEventBuildFailed && !errors.Is(re.Err, rope.ErrDegenerateRope) {
			t.Fatalf("unexpected failure cause %v", re.Err)
		}
	}
	if kinds[good] != ecs.RopeEventBuilt {
		t.Fatalf("expected built event for good rope, got %v", kinds[good])
	}
	if kinds[bad] != ecs.RopeEventBuildFailed {
		t.Fatalf("expected failed event for bad rope, got %v", kinds[bad])
	}
}

func TestRefreshRenderCurve(t *testing.T) {
	w := ecs.NewWorld()
	ps, rs := newRopeSystems()
	ropeEnt := newTestRope(t, w, entity.RopeParams{EndX: 100})

	if pts := rs.RefreshRenderCurve(w, ropeEnt); pts != nil {
		t.Fatalf("unbuilt rope should have no curve, got %v", pts)
	}

	chain, err := rs.Build(w, ropeEnt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pts := rs.RefreshRenderCurve(w, ropeEnt)
	if len(pts) != len(chain) {
		t.Fatalf("curve has %d points, want %d", len(pts), len(chain))
	}
	if pts[0] != (cp.Vector{}) || pts[len(pts)-1] != (cp.Vector{X: 100}) {
		t.Fatalf("curve endpoints = %v, %v", pts[0], pts[len(pts)-1])
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].X <= pts[i-1].X {
			t.Fatalf("curve not ordered start to end at %d: %v", i, pts)
		}
	}

	mid := len(chain) / 2
	for i := 0; i < 20; i++ {
		ps.Update(w)
		rs.Refresh(w)
	}
	curve, _ := ecs.Get(w, ropeEnt, component.RopeCurveComponent.Kind())
	if len(curve.Points) != len(chain) {
		t.Fatalf("refresh changed curve length to %d", len(curve.Points))
	}
	body, _ := ps.Body(chain[mid])
	if curve.Points[mid] != body.Position() {
		t.Fatalf("curve point %d = %v, body at %v", mid, curve.Points[mid], body.Position())
	}
	if curve.Points[mid].Y <= 0 {
		t.Fatalf("rope should sag under gravity, mid y = %v", curve.Points[mid].Y)
	}
}

func TestRefreshTearsDownOrphanedRope(t *testing.T) {
	w := ecs.NewWorld()
	ps, rs := newRopeSystems()
	ropeEnt := newTestRope(t, w, entity.RopeParams{EndX: 100})
	chain, err := rs.Build(w, ropeEnt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ecs.DestroyEntity(w, chain[len(chain)-1])
	rs.Refresh(w)

	r, _ := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	if r.State != component.RopeUnbuilt || len(r.Segments) != 0 || len(r.Joints) != 0 {
		t.Fatalf("orphaned rope not torn down: %+v", r)
	}
	for _, e := range chain[1 : len(chain)-1] {
		if ecs.IsAlive(w, e) {
			t.Fatalf("segment %v survived teardown", e)
		}
	}
	if !ecs.IsAlive(w, chain[0]) {
		t.Fatalf("teardown must not destroy the surviving anchor")
	}
	if ps.JointCount() != 0 {
		t.Fatalf("teardown left %d joints", ps.JointCount())
	}
	if got := Chain(w, ropeEnt); len(got) != 0 {
		t.Fatalf("Chain after teardown = %v", got)
	}
}

func TestRopeTemplateCache(t *testing.T) {
	_, rs := newRopeSystems()
	a, err := rs.template("")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	b, err := rs.template(entity.DefaultSegmentPrefab)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if a != b {
		t.Fatalf("default template should be cached")
	}
	rs.InvalidateTemplates()
	c, err := rs.template(entity.DefaultSegmentPrefab)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if c == a {
		t.Fatalf("InvalidateTemplates should drop cached templates")
	}
}

func TestRopeEndRestsOnLedge(t *testing.T) {
	w := ecs.NewWorld()
	ps, rs := newRopeSystems()
	ledge, err := entity.NewLedge(w, 60, 200, 200, 20)
	if err != nil {
		t.Fatalf("NewLedge: %v", err)
	}
	ropeEnt := newTestRope(t, w, entity.RopeParams{StartY: 100, EndX: 100, EndY: 100})

	for i := 0; i < 300; i++ {
		rs.Update(w)
		ps.Update(w)
		rs.Refresh(w)
	}

	if body, ok := ps.Body(ledge); !ok || body.GetType() != cp.BODY_STATIC {
		t.Fatalf("ledge should have a static body in the space")
	}
	r, _ := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	end, _ := ps.Body(ecs.Entity(r.End))
	if y := end.Position().Y; y > 190 {
		t.Fatalf("free end fell through the ledge, y = %v (ledge top 190)", y)
	}
}

func TestRopeBuildRollsBackFailedSegment(t *testing.T) {
	dir := t.TempDir()
	prefab := "name: bad_segment\ncomponents:\n  physics_body:\n    radius: 3\n  rope_segment: {}\n  sparkle: {}\n"
	if err := os.WriteFile(filepath.Join(dir, "bad_segment.yaml"), []byte(prefab), 0o644); err != nil {
		t.Fatalf("write prefab: %v", err)
	}
	prev := prefabs.Dir
	prefabs.Dir = dir
	t.Cleanup(func() { prefabs.Dir = prev })

	w := ecs.NewWorld()
	ps, rs := newRopeSystems()
	ropeEnt := newTestRope(t, w, entity.RopeParams{EndX: 100})
	r, _ := ecs.Get(w, ropeEnt, component.RopeComponent.Kind())
	r.SegmentPrefab = "bad_segment.yaml"

	if _, err := rs.Build(w, ropeEnt); err == nil {
		t.Fatalf("expected build to fail on an unbuildable segment prefab")
	}
	if r.State != component.RopeUnbuilt || len(r.Segments) != 0 {
		t.Fatalf("failed build left state %v with %d segments", r.State, len(r.Segments))
	}
	if ps.JointCount() != 0 || ps.BodyCount() != 2 {
		t.Fatalf("failed build left joints=%d bodies=%d, want 0 and the 2 anchors", ps.JointCount(), ps.BodyCount())
	}
	if n := len(ecs.Query(w, component.RopeSegmentComponent.Kind())); n != 2 {
		t.Fatalf("segment entities = %d, want only the anchors", n)
	}
	// anchors keep what was applied before the failure
	seg, _ := ecs.Get(w, ecs.Entity(r.Start), component.RopeSegmentComponent.Kind())
	if seg.Index != 0 || ecs.Entity(seg.Rope) != ropeEnt {
		t.Fatalf("start anchor tag = %+v", seg)
	}
}
