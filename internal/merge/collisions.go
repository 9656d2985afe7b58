package merge

import (
	"github.com/voyagen/sectionvault/internal/models"
)

// FindCollisions lists identity keys that occur more than once in a tree:
// group ids, (name, author) pairs among groups, and section ids across the
// whole group array. Tombstoned items are ignored. A tree with collisions
// merges deterministically (first match wins) but loses the later items'
// identity, so writers reject it.
func FindCollisions(groups []models.Group) []Collision {
	var rep Report
	groupIDs := map[string]bool{}
	nameKeys := map[[2]string]bool{}
	sectionIDs := map[string]bool{}
	for _, g := range groups {
		if g.Deleted {
			continue
		}
		if g.ID != "" {
			if groupIDs[g.ID] {
				rep.collide("group", g.ID, StrategyID)
			}
			groupIDs[g.ID] = true
		}
		key := [2]string{g.Name, g.Author}
		if g.Name != "" {
			if nameKeys[key] {
				rep.collide("group", nameKey(g), StrategyNameAuthor)
			}
			nameKeys[key] = true
		}
		for _, s := range g.Sections {
			if s.Deleted || s.ID == "" {
				continue
			}
			if sectionIDs[s.ID] {
				rep.collide("section", s.ID, NoMatch)
			}
			sectionIDs[s.ID] = true
		}
	}
	return rep.Collisions
}

func nameKey(g models.Group) string {
	if g.Author == "" {
		return g.Name
	}
	return g.Name + " (" + g.Author + ")"
}
