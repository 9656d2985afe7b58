package merge

import (
	"github.com/voyagen/sectionvault/internal/models"
)

// ReconcileSection merges a matched section pair. Every field present on
// overlay replaces the base value; queries are merged index by index instead
// of replaced. The result keeps base's id.
func ReconcileSection(base, overlay models.Section) models.Section {
	out := clone(base)
	set(&out.Name, overlay.Name)
	set(&out.Enabled, overlay.Enabled)
	set(&out.Order, overlay.Order)
	set(&out.CardFormat, overlay.CardFormat)
	set(&out.RenderMode, overlay.RenderMode)
	set(&out.DiscoveryEnabled, overlay.DiscoveryEnabled)
	set(&out.StartDate, overlay.StartDate)
	set(&out.EndDate, overlay.EndDate)
	set(&out.Hidden, overlay.Hidden)
	if overlay.Queries != nil {
		out.Queries = MergeQueries(base.Queries, overlay.Queries)
	}
	out.Extra = base.Extra.Merge(overlay.Extra)
	out.ID = base.ID
	out.Deleted = false
	return out
}

// MergeQueries pairs queries by position. Past the end of the shorter list
// the surviving entries are copied as they are.
func MergeQueries(base, overlay []models.Query) []models.Query {
	n := max(len(base), len(overlay))
	out := make([]models.Query, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(base) && i < len(overlay):
			out = append(out, ReconcileQuery(base[i], overlay[i]))
		case i < len(base):
			out = append(out, clone(base[i]))
		default:
			out = append(out, clone(overlay[i]))
		}
	}
	return out
}

// ReconcileQuery merges a query pair. queryOptions is merged key by key so an
// overlay can add a filter without erasing the base filters. An overlay that
// names a path or data source replaces both, keeping at most one of them set.
func ReconcileQuery(base, overlay models.Query) models.Query {
	out := clone(base)
	if overlay.Path != nil || overlay.DataSource != nil {
		out.Path = clonePtr(overlay.Path)
		out.DataSource = clonePtr(overlay.DataSource)
	}
	if overlay.QueryOptions != nil {
		opts := make(models.QueryOptions, len(out.QueryOptions)+len(overlay.QueryOptions))
		for k, v := range out.QueryOptions {
			opts[k] = v
		}
		for k, v := range clone(overlay.QueryOptions) {
			opts[k] = v
		}
		out.QueryOptions = opts
	}
	set(&out.MinAge, overlay.MinAge)
	set(&out.MaxAge, overlay.MaxAge)
	set(&out.ParentItemType, overlay.ParentItemType)
	out.Extra = base.Extra.Merge(overlay.Extra)
	return out
}

// ReconcileGroup merges the fields of a matched group pair. Sections are left
// empty; the tree merger fills them from MergeSections. ID, Name, Author and
// OriginalName are plain strings, so an empty overlay value counts as absent
// and never clears the base value.
func ReconcileGroup(base, overlay models.Group) models.Group {
	b := base
	b.Sections = nil
	out := clone(b)
	if overlay.ID != "" {
		out.ID = overlay.ID
	}
	if overlay.Name != "" {
		out.Name = overlay.Name
	}
	if overlay.Author != "" {
		out.Author = overlay.Author
	}
	if overlay.OriginalName != "" {
		out.OriginalName = overlay.OriginalName
	}
	set(&out.Description, overlay.Description)
	out.Extra = base.Extra.Merge(overlay.Extra)
	out.Deleted = false
	return out
}

func set[T any](dst **T, src *T) {
	if src != nil {
		*dst = clonePtr(src)
	}
}
