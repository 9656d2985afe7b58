package models

import (
	"github.com/goccy/go-json"
)

// Group is a named, ordered collection of sections. Author separates
// community or imported groups that share a name. OriginalName is only set on
// a built-in group an admin renamed; it holds the name the group shipped with.
type Group struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name" validate:"required"`
	Author       string    `json:"author,omitempty"`
	Description  *string   `json:"description,omitempty"`
	OriginalName string    `json:"_originalName,omitempty"`
	Sections     []Section `json:"sections" validate:"dive"`
	Deleted      bool      `json:"deleted,omitempty"`

	Extra Extra `json:"-"`
}

var groupKeys = keySet("id", "name", "author", "description", "_originalName", "sections", "deleted")

type groupAlias Group

// MarshalJSON always writes a sections array, never null.
func (g Group) MarshalJSON() ([]byte, error) {
	a := groupAlias(g)
	if a.Sections == nil {
		a.Sections = []Section{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return joinObject(data, nil, g.Extra, groupKeys)
}

// UnmarshalJSON reads the typed fields and keeps unknown keys in Extra.
// Use ParseTree for input that may not have the expected shape.
func (g *Group) UnmarshalJSON(data []byte) error {
	var a groupAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, groupKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*g = Group(a)
	return nil
}

// IsCustom reports whether the group was created or imported by someone and
// therefore survives being emptied by a merge.
func (g Group) IsCustom() bool {
	return g.Author != ""
}

// OriginKey is the name the group shipped with (OriginalName, or Name when
// it was never renamed).
func (g Group) OriginKey() string {
	if g.OriginalName != "" {
		return g.OriginalName
	}
	return g.Name
}

// FindSection returns the index of the section with id, or -1.
func (g Group) FindSection(id string) int {
	for i := range g.Sections {
		if g.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

// Label identifies the group in logs and reports.
func (g Group) Label() string {
	switch {
	case g.ID != "":
		return g.ID
	case g.Author != "":
		return g.Name + " (" + g.Author + ")"
	default:
		return g.Name
	}
}
