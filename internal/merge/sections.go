package merge

import (
	"cmp"
	"slices"

	"github.com/voyagen/sectionvault/internal/models"
)

// MergeSections merges two id-keyed section lists. Matched pairs are
// reconciled, base sections without a match are kept, and overlay sections
// without a match are appended. A tombstoned section on either side removes
// the pair. The result is sorted by ascending order (missing order is 0),
// keeping the relative position of equal orders.
func MergeSections(base, overlay []models.Section) []models.Section {
	return mergeSections(base, overlay, nil)
}

func mergeSections(base, overlay []models.Section, rep *Report) []models.Section {
	index := make(map[string]int, len(overlay))
	for j, s := range overlay {
		if s.ID == "" {
			continue
		}
		if _, dup := index[s.ID]; dup {
			rep.collide("section", s.ID, NoMatch)
			continue
		}
		index[s.ID] = j
	}

	consumed := make([]bool, len(overlay))
	out := make([]models.Section, 0, len(base)+len(overlay))
	for _, b := range base {
		j, ok := index[b.ID]
		if b.ID == "" || !ok || consumed[j] {
			if b.Deleted {
				rep.suppress(b)
				continue
			}
			out = append(out, clone(b))
			continue
		}
		consumed[j] = true
		o := overlay[j]
		if o.Deleted || b.Deleted {
			rep.suppress(b)
			continue
		}
		out = append(out, ReconcileSection(b, o))
	}
	for j, o := range overlay {
		if consumed[j] {
			continue
		}
		if o.Deleted {
			rep.suppress(o)
			continue
		}
		out = append(out, clone(o))
	}

	sortSections(out)
	return out
}

func sortSections(s []models.Section) {
	slices.SortStableFunc(s, func(a, b models.Section) int {
		return cmp.Compare(a.SortOrder(), b.SortOrder())
	})
}

// dropTombstones removes tombstoned sections from a list taken over without
// a counterpart.
func dropTombstones(sections []models.Section, rep *Report) []models.Section {
	out := sections[:0]
	for _, s := range sections {
		if s.Deleted {
			rep.suppress(s)
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *Report) suppress(s models.Section) {
	if r == nil {
		return
	}
	r.SuppressedSections = append(r.SuppressedSections, s.ID)
}

func (r *Report) collide(kind, key string, strategy Strategy) {
	if r == nil {
		return
	}
	for i := range r.Collisions {
		c := &r.Collisions[i]
		if c.Kind == kind && c.Key == key && c.Strategy == strategy {
			c.Count++
			return
		}
	}
	r.Collisions = append(r.Collisions, Collision{Kind: kind, Key: key, Strategy: strategy, Count: 2})
}
