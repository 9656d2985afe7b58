package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/voyagen/sectionvault/internal/models"
)

// Memory is an in-process Store. Trees are kept encoded, so reads go
// through the same tolerant decoder as Postgres and never alias earlier
// writes.
type Memory struct {
	mu    sync.RWMutex
	trees map[models.Collection]memoryRow
	now   func() time.Time
}

type memoryRow struct {
	data      []byte
	revision  int64
	groups    int
	updatedAt time.Time
}

func NewMemory() *Memory {
	return &Memory{trees: map[models.Collection]memoryRow{}, now: time.Now}
}

// Seed stores a raw document as is, bypassing encoding. Used to load trees
// from files and to reproduce malformed stored data.
func (m *Memory) Seed(c models.Collection, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.trees[c]
	groups, _ := models.ParseTree(raw)
	m.trees[c] = memoryRow{data: slices.Clone(raw), revision: row.revision + 1, groups: len(groups), updatedAt: m.now()}
}

func (m *Memory) GetTree(_ context.Context, c models.Collection) (*SavedTree, error) {
	m.mu.RLock()
	row, ok := m.trees[c]
	m.mu.RUnlock()
	t := emptyTree(c)
	if !ok {
		return t, nil
	}
	t.Groups, t.Issues = models.ParseTree(row.data)
	t.Revision = row.revision
	t.UpdatedAt = row.updatedAt
	return t, nil
}

func (m *Memory) PutTree(_ context.Context, c models.Collection, groups []models.Group) (int64, error) {
	if groups == nil {
		groups = []models.Group{}
	}
	data, err := json.Marshal(groups)
	if err != nil {
		return 0, fmt.Errorf("PutTree %s: marshal: %w", c, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.trees[c]
	row = memoryRow{data: data, revision: row.revision + 1, groups: len(groups), updatedAt: m.now()}
	m.trees[c] = row
	return row.revision, nil
}

func (m *Memory) DeleteTree(_ context.Context, c models.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trees[c]; !ok {
		return ErrNotFound
	}
	delete(m.trees, c)
	return nil
}

func (m *Memory) ListCollections(_ context.Context) ([]CollectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CollectionInfo, 0, len(m.trees))
	for c, row := range m.trees {
		out = append(out, CollectionInfo{Collection: c, Revision: row.revision, Groups: row.groups, UpdatedAt: row.updatedAt})
	}
	slices.SortFunc(out, func(a, b CollectionInfo) int {
		switch {
		case a.Collection < b.Collection:
			return -1
		case a.Collection > b.Collection:
			return 1
		}
		return 0
	})
	return out, nil
}
