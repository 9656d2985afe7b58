package merge

import (
	"github.com/voyagen/sectionvault/internal/models"
)

func ptr[T any](v T) *T { return &v }

func section(id, name string, order float64) models.Section {
	return models.Section{ID: id, Name: ptr(name), Order: ptr(order)}
}

func tombstone(id string) models.Section {
	return models.Section{ID: id, Deleted: true}
}

func group(id, name string, sections ...models.Section) models.Group {
	if sections == nil {
		sections = []models.Section{}
	}
	return models.Group{ID: id, Name: name, Sections: sections}
}

func sectionNames(g models.Group) []string {
	names := make([]string, 0, len(g.Sections))
	for _, s := range g.Sections {
		names = append(names, s.DisplayName())
	}
	return names
}

func sectionIDs(g models.Group) []string {
	ids := make([]string, 0, len(g.Sections))
	for _, s := range g.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}
