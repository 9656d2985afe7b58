package merge

import (
	"github.com/voyagen/sectionvault/internal/models"
)

// MergeForLoad builds the working tree from the built-in defaults and the
// admin-saved overrides. Saved values win field by field; defaults without an
// override and saved groups without a default are both kept.
func MergeForLoad(defaults, saved []models.Group) ([]models.Group, Report) {
	return mergeGroups(defaults, saved, ModeLoad)
}

// MergeForSave folds the operator's working tree into the freshly fetched
// saved tree. The working tree wins field by field and its tombstones delete
// the matching saved items even when those changed in the meantime. Saved
// groups the working tree never saw pass through; working groups created in
// this session are appended. The result carries no tombstones.
func MergeForSave(working, fresh []models.Group) ([]models.Group, Report) {
	return mergeGroups(fresh, working, ModeSave)
}

func mergeGroups(base, overlay []models.Group, mode Mode) ([]models.Group, Report) {
	rep := Report{Mode: mode}
	consumed := make([]bool, len(overlay))
	skip := func(i int) bool { return consumed[i] }

	out := make([]models.Group, 0, len(base)+len(overlay))
	for _, b := range base {
		j, strategy, extra := resolveGroup(b, overlay, skip)
		if extra > 0 {
			c := Collision{Kind: "group", Key: b.Label(), Strategy: strategy, Count: extra + 1}
			rep.Collisions = append(rep.Collisions, c)
		}
		if j < 0 {
			if b.Deleted {
				rep.DroppedGroups = append(rep.DroppedGroups, b.Label())
				continue
			}
			g := clone(b)
			g.Sections = dropTombstones(g.Sections, &rep)
			out = keepGroup(out, g, &rep)
			continue
		}

		consumed[j] = true
		o := overlay[j]
		if o.Deleted || b.Deleted {
			rep.DroppedGroups = append(rep.DroppedGroups, b.Label())
			continue
		}

		g := ReconcileGroup(b, o)
		if mode == ModeLoad {
			trackOrigin(b, &g)
		}
		normalizeOrigin(&g)
		g.Sections = mergeSections(b.Sections, o.Sections, &rep)
		out = keepGroup(out, g, &rep)
	}

	for j, o := range overlay {
		if consumed[j] {
			continue
		}
		if o.Deleted {
			rep.DroppedGroups = append(rep.DroppedGroups, o.Label())
			continue
		}
		g := clone(o)
		g.Sections = dropTombstones(g.Sections, &rep)
		out = keepGroup(out, g, &rep)
	}

	stripTombstones(out)
	return out, rep
}

// keepGroup appends g unless it is a non-authored group left without
// sections.
func keepGroup(out []models.Group, g models.Group, rep *Report) []models.Group {
	if len(g.Sections) == 0 && !g.IsCustom() {
		rep.PrunedGroups = append(rep.PrunedGroups, g.Label())
		return out
	}
	return append(out, g)
}

// stripTombstones clears every deleted flag so none reaches storage.
func stripTombstones(groups []models.Group) {
	for i := range groups {
		groups[i].Deleted = false
		if groups[i].Sections == nil {
			groups[i].Sections = []models.Section{}
		}
		for j := range groups[i].Sections {
			groups[i].Sections[j].Deleted = false
		}
	}
}
