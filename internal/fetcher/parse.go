package fetcher

import (
	"bytes"
	"errors"

	"github.com/voyagen/sectionvault/internal/models"
)

// ErrEmptyDocument is returned for a document holding no groups at all.
var ErrEmptyDocument = errors.New("document contains no groups")

// ParseGroups decodes a shared group document. JSON is recognised by its
// first character; anything else is read as YAML. A single object is
// treated as a one-element list. Tombstones are meaningless in a shared
// document and are dropped.
func ParseGroups(data []byte) ([]models.Group, []models.ShapeIssue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, ErrEmptyDocument
	}
	js := trimmed
	if trimmed[0] != '[' && trimmed[0] != '{' {
		var err error
		if js, err = models.YAMLToJSON(trimmed); err != nil {
			return nil, nil, err
		}
		js = bytes.TrimSpace(js)
	}
	if len(js) > 0 && js[0] == '{' {
		js = append(append([]byte{'['}, js...), ']')
	}

	parsed, issues := models.ParseTree(js)
	groups := make([]models.Group, 0, len(parsed))
	for _, g := range parsed {
		if g.Deleted {
			continue
		}
		kept := g.Sections[:0]
		for _, s := range g.Sections {
			if !s.Deleted {
				kept = append(kept, s)
			}
		}
		g.Sections = kept
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		if len(issues) > 0 {
			return nil, issues, errors.New("document is not a group or a list of groups: " + issues[0].String())
		}
		return nil, nil, ErrEmptyDocument
	}
	return groups, issues, nil
}
