package defaults

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/sectionvault/internal/merge"
	"github.com/voyagen/sectionvault/internal/models"
	"github.com/voyagen/sectionvault/internal/validation"
)

func TestBuiltinDefaults(t *testing.T) {
	p, err := Load()
	require.NoError(t, err)

	for _, c := range models.Collections {
		groups, err := p.FetchDefaultTree(context.Background(), c)
		require.NoError(t, err, c)
		assert.NotNil(t, groups, c)
		assert.NoError(t, validation.Tree(groups), c)
		assert.Empty(t, merge.FindCollisions(groups), c)
	}

	home := p.Groups(models.CollectionHome)
	require.NotEmpty(t, home)
	assert.Equal(t, "home-main", home[0].ID)
	assert.Equal(t, 20.0, home[0].Sections[2].Queries[0].QueryOptions["Limit"])
	assert.Empty(t, p.Groups(models.CollectionCustom))
}

func TestFetchDefaultTree_ReturnsCopies(t *testing.T) {
	p := MustLoad()

	a := p.Groups(models.CollectionSeasonal)
	a[0].Name = "changed"
	a[0].Sections = nil

	b := p.Groups(models.CollectionSeasonal)
	assert.Equal(t, "Holidays", b[0].Name)
	assert.Len(t, b[0].Sections, 3)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("home: []\nsidebar: []\n"))
	assert.ErrorContains(t, err, `unknown collection "sidebar"`)

	_, err = Parse([]byte("home: []\n"))
	assert.ErrorContains(t, err, "missing collections: custom, discovery, seasonal")

	_, err = Parse([]byte("home:\n  - name: Broken\n    sections: nope\nseasonal: []\ndiscovery: []\ncustom: []\n"))
	assert.ErrorContains(t, err, "$[0].sections")

	_, err = Parse([]byte("- just a list"))
	assert.Error(t, err)

	_, err = Parse(nil)
	assert.Error(t, err)

	p, err := Parse([]byte("home: []\nseasonal: []\ndiscovery: []\ncustom: []\n"))
	require.NoError(t, err)
	_, err = p.FetchDefaultTree(context.Background(), models.Collection("sidebar"))
	assert.Error(t, err)
}
