package models

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// ParentItemType tells how a ParentId inside queryOptions is interpreted.
type ParentItemType string

const (
	ParentItemGeneric    ParentItemType = "parent"
	ParentItemCollection ParentItemType = "collection"
	ParentItemPlaylist   ParentItemType = "playlist"
)

// Query is one data-retrieval request of a section. At most one of Path and
// DataSource is set; when neither is set the query is a standard item search
// filtered by QueryOptions.
type Query struct {
	Path           *string         `json:"path,omitempty"`
	DataSource     *string         `json:"dataSource,omitempty"`
	QueryOptions   QueryOptions    `json:"queryOptions,omitempty"`
	MinAge         *float64        `json:"minAge,omitempty"`
	MaxAge         *float64        `json:"maxAge,omitempty"`
	ParentItemType *ParentItemType `json:"_parentItemType,omitempty" validate:"omitempty,oneof=parent collection playlist"`

	Extra Extra `json:"-"`
}

var queryKeys = keySet("path", "dataSource", "queryOptions", "minAge", "maxAge", "_parentItemType")

type queryAlias Query

// MarshalJSON writes the typed fields followed by the pass-through bag.
func (q Query) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(queryAlias(q))
	if err != nil {
		return nil, err
	}
	return joinObject(data, nil, q.Extra, queryKeys)
}

// UnmarshalJSON reads the typed fields and keeps unknown keys in Extra.
func (q *Query) UnmarshalJSON(data []byte) error {
	var a queryAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, queryKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*q = Query(a)
	return nil
}

// IsStandard reports whether the query is a plain item search.
func (q Query) IsStandard() bool {
	return q.Path == nil && q.DataSource == nil
}

// QueryOptions is the string-keyed filter bag of a query. Values are strings,
// numbers, booleans or arrays of strings.
type QueryOptions map[string]any

// OptionKind is the value shape a known query option accepts.
type OptionKind string

const (
	OptionString      OptionKind = "string"
	OptionNumber      OptionKind = "number"
	OptionBool        OptionKind = "bool"
	OptionStringList  OptionKind = "stringList"
	OptionStringOrCSV OptionKind = "stringOrList"
)

// OptionDescriptor documents a known query option for the editor.
type OptionDescriptor struct {
	Kind  OptionKind `json:"kind"`
	Label string     `json:"label"`
	Hint  string     `json:"hint,omitempty"`
}

// KnownOptions is the metadata table for query options the editor offers.
// Options outside this table are accepted and passed through unchecked.
var KnownOptions = map[string]OptionDescriptor{
	"IncludeItemTypes":   {Kind: OptionStringOrCSV, Label: "Item types", Hint: "Movie, Series, Episode, MusicAlbum..."},
	"ExcludeItemTypes":   {Kind: OptionStringOrCSV, Label: "Excluded item types"},
	"Genres":             {Kind: OptionStringOrCSV, Label: "Genres", Hint: "Pipe or comma separated genre names"},
	"Tags":               {Kind: OptionStringOrCSV, Label: "Tags"},
	"Studios":            {Kind: OptionStringOrCSV, Label: "Studios / networks"},
	"ParentId":           {Kind: OptionString, Label: "Parent", Hint: "Library, collection or playlist id; see _parentItemType"},
	"SortBy":             {Kind: OptionStringOrCSV, Label: "Sort by", Hint: "DateCreated, PremiereDate, Random..."},
	"SortOrder":          {Kind: OptionString, Label: "Sort order", Hint: "Ascending or Descending"},
	"Limit":              {Kind: OptionNumber, Label: "Limit"},
	"Recursive":          {Kind: OptionBool, Label: "Recursive"},
	"IsPlayed":           {Kind: OptionBool, Label: "Played"},
	"IsFavorite":         {Kind: OptionBool, Label: "Favorites only"},
	"HasTrailer":         {Kind: OptionBool, Label: "Has trailer"},
	"MinCommunityRating": {Kind: OptionNumber, Label: "Minimum community rating"},
	"MinCriticRating":    {Kind: OptionNumber, Label: "Minimum critic rating"},
	"OfficialRatings":    {Kind: OptionStringOrCSV, Label: "Official ratings"},
	"Years":              {Kind: OptionStringOrCSV, Label: "Years"},
	"Filters":            {Kind: OptionStringOrCSV, Label: "Filters", Hint: "IsUnplayed, IsResumable, Likes..."},
}

// Validate checks every known option against its descriptor kind.
func (o QueryOptions) Validate() error {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d, ok := KnownOptions[k]
		if !ok {
			continue
		}
		if !d.accepts(o[k]) {
			return fmt.Errorf("query option %s: expected %s, got %T", k, d.Kind, o[k])
		}
	}
	return nil
}

func (d OptionDescriptor) accepts(v any) bool {
	switch d.Kind {
	case OptionString:
		_, ok := v.(string)
		return ok
	case OptionNumber:
		switch v.(type) {
		case float64, float32, int, int64, json.Number:
			return true
		}
		return false
	case OptionBool:
		_, ok := v.(bool)
		return ok
	case OptionStringList:
		return isStringList(v)
	case OptionStringOrCSV:
		if _, ok := v.(string); ok {
			return true
		}
		return isStringList(v)
	}
	return true
}

func isStringList(v any) bool {
	switch l := v.(type) {
	case []string:
		return true
	case []any:
		for _, e := range l {
			if _, ok := e.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}
