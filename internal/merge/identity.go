package merge

import (
	"github.com/voyagen/sectionvault/internal/models"
)

// Strategy names the rule that matched two groups.
type Strategy int

const (
	NoMatch Strategy = iota
	StrategyID
	StrategyNameAuthor
	StrategyOriginalName
)

func (s Strategy) String() string {
	switch s {
	case StrategyID:
		return "id"
	case StrategyNameAuthor:
		return "name+author"
	case StrategyOriginalName:
		return "originalName+author"
	default:
		return "none"
	}
}

// ResolveGroup finds the pool entry that is the same logical group as
// candidate. Strategies are tried in order: id, (name, author), then
// (originalName or name, author). An empty author only equals an empty
// author. The name strategies ignore ids, so two groups with different ids
// but the same name and author are the same group. Returns -1 and NoMatch
// when nothing matches.
func ResolveGroup(candidate models.Group, pool []models.Group) (int, Strategy) {
	idx, strategy, _ := resolveGroup(candidate, pool, nil)
	return idx, strategy
}

// resolveGroup is ResolveGroup with a skip filter for already consumed pool
// entries. It also returns how many further pool entries satisfied the
// winning strategy; the first one in pool order is used.
func resolveGroup(candidate models.Group, pool []models.Group, skip func(int) bool) (int, Strategy, int) {
	for _, strategy := range []Strategy{StrategyID, StrategyNameAuthor, StrategyOriginalName} {
		first, extra := -1, 0
		for i := range pool {
			if skip != nil && skip(i) {
				continue
			}
			if !groupsMatch(candidate, pool[i], strategy) {
				continue
			}
			if first < 0 {
				first = i
			} else {
				extra++
			}
		}
		if first >= 0 {
			return first, strategy, extra
		}
	}
	return -1, NoMatch, 0
}

func groupsMatch(a, b models.Group, strategy Strategy) bool {
	switch strategy {
	case StrategyID:
		return a.ID != "" && a.ID == b.ID
	case StrategyNameAuthor:
		return a.Name != "" && a.Name == b.Name && a.Author == b.Author
	case StrategyOriginalName:
		if a.OriginalName == "" && b.OriginalName == "" {
			return false
		}
		return a.OriginKey() != "" && a.OriginKey() == b.OriginKey() && a.Author == b.Author
	}
	return false
}

// ResolveSection returns the index of the pool section with the candidate's
// id, or -1. Sections have no name-based fallback.
func ResolveSection(candidate models.Section, pool []models.Section) int {
	if candidate.ID == "" {
		return -1
	}
	for i := range pool {
		if pool[i].ID == candidate.ID {
			return i
		}
	}
	return -1
}
