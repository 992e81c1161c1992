package ecs

import "github.com/milk9111/rope/ecs/component"

// candidates returns a snapshot of the entities present in every listed
// store, iterating the smallest one. A missing store yields nil.
func candidates(w *World, ids ...component.ComponentID) []Entity {
	if w == nil || len(ids) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(ids))
	smallest := -1
	for _, id := range ids {
		s := w.store(id)
		if s.Len() == 0 {
			return nil
		}
		sets = append(sets, s)
		if smallest < 0 || s.Len() < sets[smallest].Len() {
			smallest = len(sets) - 1
		}
	}

	out := make([]Entity, 0, sets[smallest].Len())
outer:
	for _, e := range sets[smallest].Entities() {
		if !w.entities.isAlive(e) {
			continue
		}
		for i, s := range sets {
			if i != smallest && !s.Has(e) {
				continue outer
			}
		}
		out = append(out, e)
	}
	return out
}
