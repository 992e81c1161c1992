package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/rope/ecs/component"
)

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if len(Entities(w)) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(Entities(w)))
			}
			if c.destroyIndex < 0 {
				return
			}
			dead := ents[c.destroyIndex]
			if !DestroyEntity(w, dead) {
				t.Fatalf("DestroyEntity should return true for alive entity")
			}
			if IsAlive(w, dead) {
				t.Fatalf("entity should not be alive after destruction")
			}
			if DestroyEntity(w, dead) {
				t.Fatalf("destroying twice should report false")
			}

			reused := CreateEntity(w)
			if reused.id() != dead.id() {
				t.Fatalf("expected slot %d to be reused, got %d", dead.id(), reused.id())
			}
			if reused == dead || IsAlive(w, dead) {
				t.Fatalf("stale handle must not alias the new entity")
			}
		})
	}
}

func intPtr(i int) *int {
	return &i
}

func TestComponents(t *testing.T) {
	w := NewWorld()
	ints := component.NewComponent[int]()
	strs := component.NewComponent[string]()
	e := CreateEntity(w)

	tests := []struct {
		name string
		add  func() error
		want error
	}{
		{"valid", func() error { return Add(w, e, ints.Kind(), intPtr(10)) }, nil},
		{"nil value", func() error { return Add[string](w, e, strs.Kind(), nil) }, component.ErrNilComponent},
		{"zero kind", func() error { return Add(w, e, component.ComponentKind[int]{}, intPtr(1)) }, component.ErrInvalidComponentKind},
		{"dead entity", func() error {
			dead := CreateEntity(w)
			DestroyEntity(w, dead)
			return Add(w, dead, ints.Kind(), intPtr(1))
		}, component.ErrEntityNotAlive},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.add(); !errors.Is(err, tc.want) {
				t.Fatalf("Add error = %v, want %v", err, tc.want)
			}
		})
	}

	v, ok := Get(w, e, ints.Kind())
	if !ok || *v != 10 {
		t.Fatalf("expected 10, got %v ok=%v", v, ok)
	}
	*v = 11
	if again, _ := Get(w, e, ints.Kind()); *again != 11 {
		t.Fatalf("Get should return the stored pointer")
	}
	if !Remove(w, e, ints.Kind()) || Has(w, e, ints.Kind()) {
		t.Fatalf("Remove failed")
	}
	if Remove(w, e, ints.Kind()) {
		t.Fatalf("second Remove should report false")
	}
}

func TestDestroyRemovesComponents(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()
	e := CreateEntity(w)
	if err := Add(w, e, h.Kind(), intPtr(1)); err != nil {
		t.Fatal(err)
	}
	DestroyEntity(w, e)

	reused := CreateEntity(w)
	if Has(w, reused, h.Kind()) {
		t.Fatalf("reused slot inherited a component")
	}
	if n := len(Query(w, h.Kind())); n != 0 {
		t.Fatalf("query returned %d entities after destroy", n)
	}
}

func TestForEach(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)
	e3 := CreateEntity(w)
	for _, e := range []Entity{e1, e3} {
		if err := Add(w, e, h.Kind(), intPtr(1)); err != nil {
			t.Fatal(err)
		}
	}

	seen := map[Entity]bool{}
	ForEach(w, h.Kind(), func(e Entity, v *int) {
		seen[e] = true
		// mutating the store while iterating is allowed
		Remove(w, e, h.Kind())
	})
	if !seen[e1] || !seen[e3] || seen[e2] {
		t.Fatalf("unexpected ForEach result %v", seen)
	}
	if len(Query(w, h.Kind())) != 0 {
		t.Fatalf("removals during ForEach were lost")
	}
}

func TestForEachIntersections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(w *World, ka, kb, kc, kd component.ComponentKind[int]) Entity
		want  int
	}{
		{
			name: "intersection",
			setup: func(w *World, ka, kb, kc, kd component.ComponentKind[int]) Entity {
				all := CreateEntity(w)
				partial := CreateEntity(w)
				for _, k := range []component.ComponentKind[int]{ka, kb, kc, kd} {
					_ = Add(w, all, k, intPtr(1))
				}
				_ = Add(w, partial, ka, intPtr(1))
				_ = Add(w, partial, kb, intPtr(1))
				return all
			},
			want: 1,
		},
		{
			name: "ignores_dead_entities",
			setup: func(w *World, ka, kb, kc, kd component.ComponentKind[int]) Entity {
				e := CreateEntity(w)
				for _, k := range []component.ComponentKind[int]{ka, kb, kc, kd} {
					_ = Add(w, e, k, intPtr(1))
				}
				DestroyEntity(w, e)
				return 0
			},
			want: 0,
		},
		{
			name: "missing_store",
			setup: func(w *World, ka, kb, kc, kd component.ComponentKind[int]) Entity {
				e := CreateEntity(w)
				_ = Add(w, e, ka, intPtr(1))
				return 0
			},
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWorld()
			ka := component.NewComponentKind[int]()
			kb := component.NewComponentKind[int]()
			kc := component.NewComponentKind[int]()
			kd := component.NewComponentKind[int]()
			expect := tc.setup(w, ka, kb, kc, kd)

			var got2, got3, got4 []Entity
			ForEach2(w, ka, kb, func(e Entity, _, _ *int) { got2 = append(got2, e) })
			ForEach3(w, ka, kb, kc, func(e Entity, _, _, _ *int) { got3 = append(got3, e) })
			ForEach4(w, ka, kb, kc, kd, func(e Entity, _, _, _, _ *int) { got4 = append(got4, e) })

			if len(got3) != tc.want || len(got4) != tc.want {
				t.Fatalf("ForEach3 = %v, ForEach4 = %v, want %d", got3, got4, tc.want)
			}
			if tc.want > 0 && (got3[0] != expect || got4[0] != expect) {
				t.Fatalf("expected %v, got %v / %v", expect, got3, got4)
			}
			if tc.name == "intersection" && len(got2) != 2 {
				t.Fatalf("ForEach2 should see both entities, got %v", got2)
			}
		})
	}
}

func TestEventQueue(t *testing.T) {
	w := NewWorld()
	w.Events().PushRope(RopeEvent{Rope: 1, Kind: RopeEventBuilt, Segments: 9})
	w.Events().Push(Event{Type: "other"})
	if w.Events().Len() != 2 {
		t.Fatalf("Len = %d", w.Events().Len())
	}
	events := w.Events().Drain()
	if len(events) != 2 || w.Events().Len() != 0 {
		t.Fatalf("Drain returned %d, %d left", len(events), w.Events().Len())
	}
	re, ok := events[0].Data.(RopeEvent)
	if !ok || events[0].Type != string(RopeEventBuilt) || re.Segments != 9 {
		t.Fatalf("unexpected rope event %+v", events[0])
	}
	if w.Events().Drain() != nil {
		t.Fatalf("empty queue should drain to nil")
	}
}

type recordingSystem struct {
	name string
	log  *[]string
}

func (s recordingSystem) Update(*World) {
	*s.log = append(*s.log, s.name)
}

func TestSchedulerOrder(t *testing.T) {
	var order []string
	s := NewScheduler(recordingSystem{"a", &order}, nil, recordingSystem{"b", &order})
	s.Add(recordingSystem{"c", &order})
	s.Update(NewWorld())

	if len(s.Systems()) != 3 {
		t.Fatalf("nil systems should be skipped, have %d", len(s.Systems()))
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("systems ran in order %v", order)
	}
}
