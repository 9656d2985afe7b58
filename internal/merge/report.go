package merge

import (
	"fmt"
	"strings"

	"github.com/voyagen/sectionvault/internal/models"
)

// Mode selects the precedence rules of a tree merge.
type Mode string

const (
	// ModeLoad overlays admin-saved groups on the defaults.
	ModeLoad Mode = "load"
	// ModeSave overlays the operator's working tree, with delete authority,
	// on the freshly fetched saved tree.
	ModeSave Mode = "save"
)

// Collision records two or more items in one pool that satisfied the same
// identity rule. The first one in pool order was used.
type Collision struct {
	Kind     string   `json:"kind"`
	Key      string   `json:"key"`
	Strategy Strategy `json:"-"`
	Count    int      `json:"count"`
}

func (c Collision) String() string {
	if c.Strategy != NoMatch {
		return fmt.Sprintf("%s %q matched %d items by %s", c.Kind, c.Key, c.Count, c.Strategy)
	}
	return fmt.Sprintf("%s %q appears %d times", c.Kind, c.Key, c.Count)
}

// Report describes what a merge did beyond plain field reconciliation.
type Report struct {
	Mode               Mode                `json:"mode"`
	Collisions         []Collision         `json:"collisions,omitempty"`
	DroppedGroups      []string            `json:"droppedGroups,omitempty"`
	PrunedGroups       []string            `json:"prunedGroups,omitempty"`
	SuppressedSections []string            `json:"suppressedSections,omitempty"`
	ShapeIssues        []models.ShapeIssue `json:"shapeIssues,omitempty"`
}

// Clean reports whether the merge had nothing worth logging.
func (r Report) Clean() bool {
	return len(r.Collisions) == 0 && len(r.DroppedGroups) == 0 && len(r.PrunedGroups) == 0 &&
		len(r.SuppressedSections) == 0 && len(r.ShapeIssues) == 0
}

func (r Report) String() string {
	var parts []string
	if n := len(r.Collisions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d collisions", n))
	}
	if n := len(r.DroppedGroups); n > 0 {
		parts = append(parts, fmt.Sprintf("%d groups deleted", n))
	}
	if n := len(r.PrunedGroups); n > 0 {
		parts = append(parts, fmt.Sprintf("%d empty groups pruned", n))
	}
	if n := len(r.SuppressedSections); n > 0 {
		parts = append(parts, fmt.Sprintf("%d sections deleted", n))
	}
	if n := len(r.ShapeIssues); n > 0 {
		parts = append(parts, fmt.Sprintf("%d shape issues", n))
	}
	if len(parts) == 0 {
		return string(r.Mode) + ": clean"
	}
	return string(r.Mode) + ": " + strings.Join(parts, ", ")
}
