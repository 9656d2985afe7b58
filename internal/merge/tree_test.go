package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/sectionvault/internal/models"
)

func TestMergeForLoad_SectionAbsentFromOverlaySurvives(t *testing.T) {
	defaults := []models.Group{group("g1", "Home", section("s1", "A", 1), section("s2", "B", 2))}
	saved := []models.Group{group("g1", "Home", section("s1", "A-renamed", 1))}

	got, rep := MergeForLoad(defaults, saved)

	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].ID)
	assert.Equal(t, []string{"A-renamed", "B"}, sectionNames(got[0]))
	assert.Equal(t, 1.0, *got[0].Sections[0].Order)
	assert.Equal(t, 2.0, *got[0].Sections[1].Order)
	assert.Empty(t, got[0].OriginalName)
	assert.True(t, rep.Clean(), rep.String())
}

func TestMergeForLoad_Idempotent(t *testing.T) {
	defaults := []models.Group{
		group("g1", "Home",
			models.Section{ID: "s1", Name: ptr("Latest"), Order: ptr(1.0), Queries: []models.Query{
				{QueryOptions: models.QueryOptions{"IncludeItemTypes": "Movie", "Limit": 20.0}},
			}},
			section("s2", "Continue", 2),
		),
		group("g2", "Music", section("m1", "Albums", 1)),
	}
	saved := []models.Group{
		{ID: "g1", Name: "My Home", Sections: []models.Section{
			{ID: "s1", Enabled: ptr(false), Queries: []models.Query{
				{QueryOptions: models.QueryOptions{"Genres": "Drama"}},
				{DataSource: ptr("recently-added")},
			}},
			section("s3", "Custom", 0.5),
		}},
		{Name: "Favorites", Author: "alice", Sections: []models.Section{section("f1", "Faves", 1)}},
	}

	once, _ := MergeForLoad(defaults, saved)
	twice, _ := MergeForLoad(defaults, once)

	require.Equal(t, once, twice)
	assert.Equal(t, []string{"s3", "s1", "s2"}, sectionIDs(once[0]))
	assert.Equal(t, "Home", once[0].OriginalName)
	assert.Equal(t, "Favorites", once[2].Name)
}

func TestMergeForLoad_SavedFieldsWin(t *testing.T) {
	def := models.Section{
		ID:         "s1",
		Name:       ptr("Latest Movies"),
		Enabled:    ptr(true),
		Order:      ptr(1.0),
		CardFormat: ptr(models.CardPortrait),
		RenderMode: ptr("carousel"),
	}
	over := models.Section{
		ID:         "s1",
		Name:       ptr("New Films"),
		Enabled:    ptr(false),
		CardFormat: ptr(models.CardLandscape),
	}

	got, _ := MergeForLoad(
		[]models.Group{group("g1", "Home", def)},
		[]models.Group{group("g1", "Home", over)},
	)

	require.Len(t, got, 1)
	s := got[0].Sections[0]
	assert.Equal(t, "New Films", *s.Name)
	assert.False(t, *s.Enabled)
	assert.Equal(t, models.CardLandscape, *s.CardFormat)
	assert.Equal(t, "carousel", *s.RenderMode, "base-only fields carry through")
	assert.Equal(t, 1.0, *s.Order)
}

func TestMergeForLoad_RenamedGroupStillMatchesByID(t *testing.T) {
	defaults := []models.Group{group("g1", "Home", section("s1", "A", 1))}
	saved := []models.Group{{ID: "g1", Name: "My Home", OriginalName: "Home", Sections: []models.Section{section("s1", "A", 1)}}}

	got, _ := MergeForLoad(defaults, saved)

	require.Len(t, got, 1, "renamed group must not be duplicated")
	assert.Equal(t, "g1", got[0].ID)
	assert.Equal(t, "My Home", got[0].Name)
	assert.Equal(t, "Home", got[0].OriginalName)
}

func TestMergeForLoad_RenamedGroupWithoutIDMatchesByOriginalName(t *testing.T) {
	defaults := []models.Group{group("", "Home", section("s1", "A", 1), section("s2", "B", 2))}
	saved := []models.Group{{Name: "My Home", OriginalName: "Home", Sections: []models.Section{section("s1", "A*", 1)}}}

	got, _ := MergeForLoad(defaults, saved)

	require.Len(t, got, 1)
	assert.Equal(t, "My Home", got[0].Name)
	assert.Equal(t, []string{"A*", "B"}, sectionNames(got[0]))
}

func TestMergeForLoad_SameNameDifferentIDsMatch(t *testing.T) {
	defaults := []models.Group{group("g1", "Home", section("s1", "A", 1), section("s2", "B", 2))}
	saved := []models.Group{group("g2", "Home", section("s1", "A*", 1))}

	got, rep := MergeForLoad(defaults, saved)

	require.Len(t, got, 1)
	assert.Equal(t, "g2", got[0].ID, "overlay id wins")
	assert.Equal(t, []string{"A*", "B"}, sectionNames(got[0]))
	assert.True(t, rep.Clean(), rep.String())
}

func TestMergeForLoad_AuthoredGroupsStaySeparate(t *testing.T) {
	defaults := []models.Group{group("", "Favorites", section("d1", "Default faves", 1))}
	saved := []models.Group{
		{Name: "Favorites", Author: "alice", Sections: []models.Section{section("a1", "Alice", 1)}},
		{Name: "Favorites", Author: "bob", Sections: []models.Section{section("b1", "Bob", 1)}},
	}

	got, _ := MergeForLoad(defaults, saved)

	require.Len(t, got, 3)
	assert.Equal(t, "", got[0].Author)
	assert.Equal(t, []string{"d1"}, sectionIDs(got[0]))
	assert.Equal(t, "alice", got[1].Author)
	assert.Equal(t, "bob", got[2].Author)
}

func TestMergeForLoad_MalformedLayersDegradeToEmpty(t *testing.T) {
	defaults := []models.Group{group("g1", "Home", section("s1", "A", 1))}

	got, _ := MergeForLoad(defaults, nil)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"s1"}, sectionIDs(got[0]))

	got, _ = MergeForLoad(nil, defaults)
	require.Len(t, got, 1)

	got, _ = MergeForLoad(nil, nil)
	assert.Empty(t, got)
}

func TestMergeForSave_TombstoneBeatsConcurrentEdit(t *testing.T) {
	working := []models.Group{group("g1", "Home", tombstone("s1"), section("s2", "B", 2))}
	fresh := []models.Group{group("g1", "Home", section("s1", "Changed Elsewhere", 1), section("s2", "B", 2))}

	got, rep := MergeForSave(working, fresh)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"s2"}, sectionIDs(got[0]))
	assert.Equal(t, []string{"s1"}, rep.SuppressedSections)
}

func TestMergeForSave_SessionCreatedGroupAppendedUnchanged(t *testing.T) {
	created := models.Group{ID: "g2", Name: "Kids", Author: "admin", Sections: []models.Section{section("k1", "Cartoons", 1)}}
	working := []models.Group{group("g1", "Home", section("s1", "A", 1)), created}
	fresh := []models.Group{group("g1", "Home", section("s1", "A", 1))}

	got, _ := MergeForSave(working, fresh)

	require.Len(t, got, 2)
	assert.Equal(t, created, got[1])
}

func TestMergeForSave_UnseenSavedGroupPassesThrough(t *testing.T) {
	other := group("g9", "Added in another tab", section("x1", "X", 1))
	working := []models.Group{group("g1", "Home", section("s1", "A", 1))}
	fresh := []models.Group{group("g1", "Home", section("s1", "A", 1)), other}

	got, _ := MergeForSave(working, fresh)

	require.Len(t, got, 2)
	assert.Equal(t, other, got[1])
}

func TestMergeForSave_KeepsSectionsAddedElsewhere(t *testing.T) {
	working := []models.Group{group("g1", "Home", section("s1", "A (edited)", 1))}
	fresh := []models.Group{group("g1", "Home", section("s1", "A", 1), section("s5", "From other tab", 3))}

	got, _ := MergeForSave(working, fresh)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"A (edited)", "From other tab"}, sectionNames(got[0]))
}

func TestMergeForSave_GroupTombstone(t *testing.T) {
	doomed := group("g1", "Home", section("s1", "A", 1))
	doomed.Deleted = true
	working := []models.Group{doomed, group("g2", "Movies", section("m1", "M", 1))}
	fresh := []models.Group{group("g1", "Home", section("s1", "A changed", 1), section("s7", "new", 2)), group("g2", "Movies", section("m1", "M", 1))}

	got, rep := MergeForSave(working, fresh)

	require.Len(t, got, 1)
	assert.Equal(t, "g2", got[0].ID)
	assert.Equal(t, []string{"g1"}, rep.DroppedGroups)
}

func TestMergeForSave_EmptyGroupPruning(t *testing.T) {
	builtin := group("g1", "Home", section("s1", "A", 1))
	custom := models.Group{ID: "g2", Name: "Mine", Author: "alice", Sections: []models.Section{section("s2", "B", 1)}}
	working := []models.Group{
		group("g1", "Home", tombstone("s1")),
		{ID: "g2", Name: "Mine", Author: "alice", Sections: []models.Section{tombstone("s2")}},
	}

	got, rep := MergeForSave(working, []models.Group{builtin, custom})

	require.Len(t, got, 1)
	assert.Equal(t, "g2", got[0].ID)
	assert.NotNil(t, got[0].Sections)
	assert.Empty(t, got[0].Sections)
	assert.Equal(t, []string{"g1"}, rep.PrunedGroups)
}

func TestMergeForSave_EmptyGroupPruningWithoutSavedGroup(t *testing.T) {
	working := []models.Group{
		group("g1", "Home", tombstone("s1")),
		{ID: "g2", Name: "Mine", Author: "alice", Sections: []models.Section{tombstone("s2")}},
	}

	got, rep := MergeForSave(working, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "g2", got[0].ID)
	assert.Empty(t, got[0].Sections)
	assert.Equal(t, []string{"g1"}, rep.PrunedGroups)

	got, rep = MergeForSave(working, []models.Group{group("g9", "Other", section("x1", "X", 1))})

	require.Len(t, got, 2)
	assert.Equal(t, "g9", got[0].ID)
	assert.Equal(t, "g2", got[1].ID)
	assert.Equal(t, []string{"g1"}, rep.PrunedGroups)
}

func TestMergeForSave_UnmatchedSavedGroupEmptiedByTombstonesIsPruned(t *testing.T) {
	fresh := []models.Group{group("g1", "Home", tombstone("s1"))}

	got, rep := MergeForSave(nil, fresh)

	assert.Empty(t, got)
	assert.Equal(t, []string{"g1"}, rep.PrunedGroups)
}

func TestMergeForSave_StripsTombstones(t *testing.T) {
	working := []models.Group{
		group("g1", "Home", tombstone("gone"), section("s1", "A", 1)),
		{ID: "g3", Name: "New", Author: "me", Sections: []models.Section{section("n1", "N", 1), tombstone("n2")}},
	}
	fresh := []models.Group{group("g1", "Home", section("s1", "A", 1))}

	got, _ := MergeForSave(working, fresh)

	for _, g := range got {
		assert.False(t, g.Deleted)
		for _, s := range g.Sections {
			assert.False(t, s.Deleted, s.ID)
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, []string{"n1"}, sectionIDs(got[1]))
}

func TestMergeForSave_SequentialSavesConverge(t *testing.T) {
	fresh := []models.Group{group("g1", "Home", section("s1", "A", 1), section("s2", "B", 2))}
	tabA := []models.Group{group("g1", "Home", section("s1", "A from tab A", 1), section("s2", "B", 2))}
	tabB := []models.Group{group("g1", "Home", section("s1", "A", 1), section("s2", "B", 2), section("s3", "C from tab B", 3))}

	first, _ := MergeForSave(tabA, fresh)
	second, _ := MergeForSave(tabB, first)
	again, _ := MergeForSave(tabB, second)

	assert.Equal(t, []string{"s1", "s2", "s3"}, sectionIDs(second[0]))
	assert.Equal(t, second, again)
}

func TestMergeForSave_ReportsGroupCollisions(t *testing.T) {
	working := []models.Group{
		group("", "Home", section("s1", "A", 1)),
		group("", "Home", section("s2", "B", 1)),
	}
	fresh := []models.Group{group("", "Home", section("s1", "A", 1))}

	got, rep := MergeForSave(working, fresh)

	require.Len(t, rep.Collisions, 1)
	assert.Equal(t, "group", rep.Collisions[0].Kind)
	assert.Equal(t, StrategyNameAuthor, rep.Collisions[0].Strategy)
	// The starved duplicate falls through as a session-created group.
	assert.Len(t, got, 2)
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	defaults := []models.Group{group("g1", "Home", models.Section{ID: "s1", Queries: []models.Query{
		{QueryOptions: models.QueryOptions{"A": 1.0}},
	}})}
	saved := []models.Group{group("g1", "Home", models.Section{ID: "s1", Name: ptr("x")})}

	got, _ := MergeForLoad(defaults, saved)
	got[0].Sections[0].Queries[0].QueryOptions["A"] = 99.0
	*got[0].Sections[0].Name = "mutated"

	assert.Equal(t, 1.0, defaults[0].Sections[0].Queries[0].QueryOptions["A"])
	assert.Equal(t, "x", *saved[0].Sections[0].Name)
}
