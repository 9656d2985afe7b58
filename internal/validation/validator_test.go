package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/sectionvault/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestTree_Valid(t *testing.T) {
	groups := []models.Group{{
		Name: "Seasonal",
		Sections: []models.Section{{
			ID:         "xmas",
			CardFormat: ptr(models.CardBackdrop),
			StartDate:  ptr("12-01"),
			EndDate:    ptr("12-31"),
			Queries: []models.Query{
				{QueryOptions: models.QueryOptions{"Tags": "christmas", "Limit": 12.0}},
				{DataSource: ptr("recently-added")},
			},
		}},
	}}

	assert.NoError(t, Tree(groups))
	assert.NoError(t, Tree(nil))
}

func TestTree_StructRules(t *testing.T) {
	groups := []models.Group{{
		Sections: []models.Section{{
			CardFormat: ptr(models.CardFormat("poster")),
			StartDate:  ptr("13-40"),
			Queries:    []models.Query{{ParentItemType: ptr(models.ParentItemType("folder"))}},
		}},
	}}

	err := Tree(groups)
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, "required", fields["groups[0].name"])
	assert.Equal(t, "required", fields["groups[0].sections[0].id"])
	assert.Equal(t, "cardformat", fields["groups[0].sections[0].cardFormat"])
	assert.Equal(t, "monthday", fields["groups[0].sections[0].startDate"])
	assert.Equal(t, "oneof", fields["groups[0].sections[0].queries[0]._parentItemType"])
}

func TestTree_QueryRules(t *testing.T) {
	groups := []models.Group{{
		Name: "Home",
		Sections: []models.Section{{
			ID: "s1",
			Queries: []models.Query{
				{Path: ptr("/Items"), DataSource: ptr("next-up")},
				{QueryOptions: models.QueryOptions{"Limit": "ten"}},
			},
		}},
	}}

	err := Tree(groups)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "exclusive", verr.Fields[0].Tag)
	assert.Equal(t, "groups[0].sections[0].queries[1].queryOptions", verr.Fields[1].Field)
	assert.Contains(t, err.Error(), "query option Limit")
}
