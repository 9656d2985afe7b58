// Package editor holds the working trees of an operator's editing session.
//
// A Session owns one working tree per collection. Edits never touch the
// saved trees; deletions become tombstones so a later save can tell "removed
// here" from "never seen here". Sessions are plain values passed to the
// operations explicitly, one per operator.
package editor

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/voyagen/sectionvault/internal/apperr"
	"github.com/voyagen/sectionvault/internal/merge"
	"github.com/voyagen/sectionvault/internal/models"
)

// DefaultOperator is used as author of groups created in sessions opened
// without an operator name.
const DefaultOperator = "admin"

// Session is one operator's set of working trees.
type Session struct {
	ID          string                                `json:"id"`
	Operator    string                                `json:"operator"`
	Collections map[models.Collection][]models.Group `json:"collections"`
	OpenedAt    time.Time                             `json:"openedAt"`
	UpdatedAt   time.Time                             `json:"updatedAt"`
}

// NewSession creates an empty session.
func NewSession(operator string, now time.Time) *Session {
	if operator == "" {
		operator = DefaultOperator
	}
	return &Session{
		ID:          uuid.NewString(),
		Operator:    operator,
		Collections: map[models.Collection][]models.Group{},
		OpenedAt:    now,
		UpdatedAt:   now,
	}
}

// Tree returns the working tree of c, or an empty tree.
func (s *Session) Tree(c models.Collection) []models.Group {
	if g, ok := s.Collections[c]; ok && g != nil {
		return g
	}
	return []models.Group{}
}

// Replace swaps in a whole working tree, e.g. after a load or a save.
func (s *Session) Replace(c models.Collection, groups []models.Group) {
	if s.Collections == nil {
		s.Collections = map[models.Collection][]models.Group{}
	}
	if groups == nil {
		groups = []models.Group{}
	}
	s.Collections[c] = groups
}

// CreateGroup appends an empty group authored by the session operator.
// Authored groups survive being saved without sections.
func (s *Session) CreateGroup(c models.Collection, name, description string) (models.Group, error) {
	if name == "" {
		return models.Group{}, apperr.New(apperr.CodeValidation, "group name is required")
	}
	tree := s.Tree(c)
	if i := findGroupByName(tree, name, s.Operator); i >= 0 {
		return models.Group{}, apperr.Newf(apperr.CodeConflict, "group %q by %s already exists", name, s.Operator)
	}
	g := models.Group{ID: uuid.NewString(), Name: name, Author: s.Operator, Sections: []models.Section{}}
	if description != "" {
		g.Description = &description
	}
	s.Replace(c, append(tree, g))
	return g, nil
}

// ImportGroup appends a group taken from a shared document. The author is
// mandatory so imports never merge into built-in groups. Section ids that
// are missing or already used in the collection are replaced.
func (s *Session) ImportGroup(c models.Collection, g models.Group) (models.Group, error) {
	if g.Author == "" {
		return models.Group{}, apperr.New(apperr.CodeValidation, "imported group needs an author")
	}
	if g.Name == "" {
		return models.Group{}, apperr.New(apperr.CodeValidation, "imported group needs a name")
	}
	tree := s.Tree(c)
	if findGroupByName(tree, g.Name, g.Author) >= 0 {
		return models.Group{}, apperr.Newf(apperr.CodeConflict, "group %q by %s already exists", g.Name, g.Author)
	}
	used := sectionIDs(tree)
	if g.ID == "" || slices.ContainsFunc(tree, func(o models.Group) bool { return o.ID == g.ID }) {
		g.ID = uuid.NewString()
	}
	g.OriginalName = ""
	g.Deleted = false
	sections := make([]models.Section, 0, len(g.Sections))
	for _, sec := range g.Sections {
		if sec.Deleted {
			continue
		}
		if sec.ID == "" || used[sec.ID] {
			sec.ID = uuid.NewString()
		}
		used[sec.ID] = true
		sections = append(sections, sec)
	}
	g.Sections = sections
	s.Replace(c, append(tree, g))
	return g, nil
}

// RenameGroup renames the group identified by ref (id, name or label) and keeps
// its _originalName marker in step. defaults is the built-in tree of c.
func (s *Session) RenameGroup(c models.Collection, ref, name string, defaults []models.Group) (models.Group, error) {
	if name == "" {
		return models.Group{}, apperr.New(apperr.CodeValidation, "group name is required")
	}
	tree := s.Tree(c)
	i := findGroup(tree, ref)
	if i < 0 {
		return models.Group{}, apperr.NotFound("group", ref)
	}
	if j := findGroupByName(tree, name, tree[i].Author); j >= 0 && j != i {
		return models.Group{}, apperr.Newf(apperr.CodeConflict, "group %q already exists", name)
	}
	tree[i] = merge.TrackRename(tree[i], name, defaults)
	return tree[i], nil
}

// DeleteGroup marks the group as deleted. The tombstone keeps the group's
// identity so a save removes the saved copy too.
func (s *Session) DeleteGroup(c models.Collection, ref string) error {
	tree := s.Tree(c)
	i := findGroup(tree, ref)
	if i < 0 {
		return apperr.NotFound("group", ref)
	}
	g := tree[i]
	tree[i] = models.Group{
		ID:           g.ID,
		Name:         g.Name,
		Author:       g.Author,
		OriginalName: g.OriginalName,
		Sections:     []models.Section{},
		Deleted:      true,
	}
	return nil
}

// AddSection appends sec to the group identified by ref. A missing id is
// generated and a missing order places the section last.
func (s *Session) AddSection(c models.Collection, ref string, sec models.Section) (models.Section, error) {
	tree := s.Tree(c)
	i := findGroup(tree, ref)
	if i < 0 {
		return models.Section{}, apperr.NotFound("group", ref)
	}
	if sec.ID == "" {
		sec.ID = uuid.NewString()
	} else if sectionIDs(tree)[sec.ID] {
		return models.Section{}, apperr.Newf(apperr.CodeConflict, "section %q already exists", sec.ID)
	}
	if sec.Order == nil {
		next := 1.0
		for _, other := range tree[i].Sections {
			if !other.Deleted && other.SortOrder() >= next {
				next = other.SortOrder() + 1
			}
		}
		sec.Order = &next
	}
	sec.Deleted = false
	tree[i].Sections = append(tree[i].Sections, sec)
	return sec, nil
}

// UpdateSection applies a patch: every field set on patch replaces the
// current value, and a non-nil patch.Queries replaces the query list.
func (s *Session) UpdateSection(c models.Collection, id string, patch models.Section) (models.Section, error) {
	tree := s.Tree(c)
	gi, si, ok := findSection(tree, id)
	if !ok {
		return models.Section{}, apperr.NotFound("section", id)
	}
	cur := tree[gi].Sections[si]
	queries := patch.Queries
	patch.Queries = nil
	next := merge.ReconcileSection(cur, patch)
	if queries != nil {
		next.Queries = queries
	}
	tree[gi].Sections[si] = next
	return next, nil
}

// DeleteSection removes a section. A section shipped in defaults would come
// back on the next load, so it is hidden instead; any other section is
// replaced with a tombstone carrying its id. The returned flag reports
// whether the section was hidden.
func (s *Session) DeleteSection(c models.Collection, id string, defaults []models.Group) (bool, error) {
	tree := s.Tree(c)
	gi, si, ok := findSection(tree, id)
	if !ok {
		return false, apperr.NotFound("section", id)
	}
	if _, _, builtin := findSection(defaults, id); builtin {
		_, err := s.SetHidden(c, id, true)
		return err == nil, err
	}
	tree[gi].Sections[si] = models.Section{ID: id, Deleted: true}
	return false, nil
}

// MoveSection sets the section's order. Sections are re-sorted on merge.
func (s *Session) MoveSection(c models.Collection, id string, order float64) (models.Section, error) {
	return s.UpdateSection(c, id, models.Section{Order: &order})
}

// SetHidden shows or hides a section without deleting it.
func (s *Session) SetHidden(c models.Collection, id string, hidden bool) (models.Section, error) {
	return s.UpdateSection(c, id, models.Section{Hidden: &hidden})
}

// Touch records a modification time.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

// findGroup locates a live group by id, then by name, then by label.
func findGroup(tree []models.Group, ref string) int {
	if ref == "" {
		return -1
	}
	for _, match := range []func(models.Group) bool{
		func(g models.Group) bool { return g.ID == ref },
		func(g models.Group) bool { return g.Name == ref },
		func(g models.Group) bool { return g.Label() == ref },
	} {
		if i := slices.IndexFunc(tree, func(g models.Group) bool { return !g.Deleted && match(g) }); i >= 0 {
			return i
		}
	}
	return -1
}

func findGroupByName(tree []models.Group, name, author string) int {
	return slices.IndexFunc(tree, func(g models.Group) bool {
		return !g.Deleted && g.Name == name && g.Author == author
	})
}

// findSection locates a live section by id anywhere in the tree.
func findSection(tree []models.Group, id string) (int, int, bool) {
	for gi, g := range tree {
		if g.Deleted {
			continue
		}
		for si, sec := range g.Sections {
			if !sec.Deleted && sec.ID == id {
				return gi, si, true
			}
		}
	}
	return 0, 0, false
}

// sectionIDs returns every section id in use, tombstones included.
func sectionIDs(tree []models.Group) map[string]bool {
	ids := map[string]bool{}
	for _, g := range tree {
		for _, sec := range g.Sections {
			if sec.ID != "" {
				ids[sec.ID] = true
			}
		}
	}
	return ids
}
