package models

import (
	"github.com/goccy/go-json"
)

// CardFormat selects how items of a section are drawn.
type CardFormat string

const (
	CardPortrait  CardFormat = "portrait"
	CardLandscape CardFormat = "landscape"
	CardSquare    CardFormat = "square"
	CardBackdrop  CardFormat = "backdrop"
	CardThumb     CardFormat = "thumb"
)

// CardFormats lists every accepted card format.
var CardFormats = []CardFormat{CardPortrait, CardLandscape, CardSquare, CardBackdrop, CardThumb}

// Section is one content block of a group. ID is assigned once at creation
// and is the only key used to match a section across trees. Pointer fields
// are nil when the field is absent from the layer it was read from.
type Section struct {
	ID               string      `json:"id" validate:"required"`
	Name             *string     `json:"name,omitempty"`
	Enabled          *bool       `json:"enabled,omitempty"`
	Order            *float64    `json:"order,omitempty"`
	CardFormat       *CardFormat `json:"cardFormat,omitempty" validate:"omitempty,cardformat"`
	Queries          []Query     `json:"queries,omitempty" validate:"dive"`
	RenderMode       *string     `json:"renderMode,omitempty"`
	DiscoveryEnabled *bool       `json:"discoveryEnabled,omitempty"`
	StartDate        *string     `json:"startDate,omitempty" validate:"omitempty,monthday"`
	EndDate          *string     `json:"endDate,omitempty" validate:"omitempty,monthday"`
	Hidden           *bool       `json:"hidden,omitempty"`
	Deleted          bool        `json:"deleted,omitempty"`

	Extra Extra `json:"-"`
}

var sectionKeys = keySet("id", "name", "enabled", "order", "cardFormat", "queries", "renderMode",
	"discoveryEnabled", "startDate", "endDate", "hidden", "deleted")

type sectionAlias Section

// MarshalJSON keeps an explicitly empty queries list and the pass-through bag.
func (s Section) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(sectionAlias(s))
	if err != nil {
		return nil, err
	}
	var forced map[string]json.RawMessage
	if s.Queries != nil && len(s.Queries) == 0 {
		forced = map[string]json.RawMessage{"queries": emptyArray}
	}
	return joinObject(data, forced, s.Extra, sectionKeys)
}

// UnmarshalJSON reads the typed fields and keeps unknown keys in Extra.
func (s *Section) UnmarshalJSON(data []byte) error {
	var a sectionAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, sectionKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	*s = Section(a)
	return nil
}

// SortOrder returns the order used for sorting; a missing order sorts as 0.
func (s Section) SortOrder() float64 {
	if s.Order == nil {
		return 0
	}
	return *s.Order
}

// DisplayName returns the section name or its id when unnamed.
func (s Section) DisplayName() string {
	if s.Name == nil || *s.Name == "" {
		return s.ID
	}
	return *s.Name
}
