package models

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// ShapeIssue describes a part of a stored tree that did not have the expected
// shape and was replaced by an empty value.
type ShapeIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (i ShapeIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Reason)
}

// ParseTree decodes a group array without failing on shape errors. A
// non-array document yields no groups, a group whose sections is not an array
// keeps its other fields with no sections, and undecodable elements are
// skipped. Every substitution is returned as a ShapeIssue.
func ParseTree(data []byte) ([]Group, []ShapeIssue) {
	var issues []ShapeIssue
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Group{}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		issues = append(issues, ShapeIssue{Path: "$", Reason: "groups is not an array"})
		return []Group{}, issues
	}

	groups := make([]Group, 0, len(raw))
	for i, elem := range raw {
		path := fmt.Sprintf("$[%d]", i)
		g, groupIssues, ok := parseGroup(path, elem)
		issues = append(issues, groupIssues...)
		if ok {
			groups = append(groups, g)
		}
	}
	return groups, issues
}

func parseGroup(path string, data []byte) (Group, []ShapeIssue, bool) {
	var issues []ShapeIssue
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Group{}, append(issues, ShapeIssue{Path: path, Reason: "group is not an object"}), false
	}

	rawSections, hasSections := fields["sections"]
	delete(fields, "sections")
	rest, err := json.Marshal(fields)
	if err != nil {
		return Group{}, append(issues, ShapeIssue{Path: path, Reason: err.Error()}), false
	}
	var g Group
	if err := json.Unmarshal(rest, &g); err != nil {
		return Group{}, append(issues, ShapeIssue{Path: path, Reason: "group fields: " + err.Error()}), false
	}

	g.Sections = []Section{}
	if !hasSections || isNull(rawSections) {
		issues = append(issues, ShapeIssue{Path: path + ".sections", Reason: "missing sections array"})
		return g, issues, true
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(rawSections, &elems); err != nil {
		issues = append(issues, ShapeIssue{Path: path + ".sections", Reason: "sections is not an array"})
		return g, issues, true
	}
	for j, elem := range elems {
		var s Section
		if err := json.Unmarshal(elem, &s); err != nil {
			issues = append(issues, ShapeIssue{Path: fmt.Sprintf("%s.sections[%d]", path, j), Reason: err.Error()})
			continue
		}
		g.Sections = append(g.Sections, s)
	}
	return g, issues, true
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
