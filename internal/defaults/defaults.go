// Package defaults provides the built-in section trees shipped with the
// binary. They never change while the process runs.
package defaults

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/voyagen/sectionvault/internal/models"
)

//go:embed defaults.yaml
var builtin []byte

// Provider serves default trees. Every call returns a fresh copy.
type Provider struct {
	trees map[models.Collection][]byte
}

// Load parses the embedded defaults.
func Load() (*Provider, error) {
	return Parse(builtin)
}

// MustLoad is Load that panics; the embedded file is part of the build.
func MustLoad() *Provider {
	p, err := Load()
	if err != nil {
		panic(err)
	}
	return p
}

// Parse reads a YAML document mapping collection names to group lists.
// Unlike stored trees, defaults must decode without a single shape issue,
// and every collection must be present.
func Parse(data []byte) (*Provider, error) {
	js, err := models.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("defaults: top level must map collections to groups: %w", err)
	}
	p := &Provider{trees: make(map[models.Collection][]byte, len(doc))}
	for name, raw := range doc {
		c, err := models.ParseCollection(name)
		if err != nil {
			return nil, fmt.Errorf("defaults: %w", err)
		}
		groups, issues := models.ParseTree(raw)
		if len(issues) > 0 {
			msgs := make([]string, len(issues))
			for i, is := range issues {
				msgs[i] = is.String()
			}
			return nil, fmt.Errorf("defaults: %s: %s", c, strings.Join(msgs, "; "))
		}
		// Re-encode so stored bytes are canonical.
		canon, err := json.Marshal(groups)
		if err != nil {
			return nil, fmt.Errorf("defaults: %s: %w", c, err)
		}
		p.trees[c] = canon
	}
	var missing []string
	for _, c := range models.Collections {
		if _, ok := p.trees[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("defaults: missing collections: %s", strings.Join(missing, ", "))
	}
	return p, nil
}

// FetchDefaultTree returns a copy of the built-in tree of c.
func (p *Provider) FetchDefaultTree(_ context.Context, c models.Collection) ([]models.Group, error) {
	raw, ok := p.trees[c]
	if !ok {
		return nil, fmt.Errorf("defaults: unknown collection %q", c)
	}
	groups, _ := models.ParseTree(raw)
	return groups, nil
}

// Groups is FetchDefaultTree without a context, for callers outside a request.
func (p *Provider) Groups(c models.Collection) []models.Group {
	groups, _ := p.FetchDefaultTree(context.Background(), c)
	return groups
}
