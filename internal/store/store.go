package store

import (
	"context"
	"errors"
	"time"

	"github.com/voyagen/sectionvault/internal/models"
)

// ErrNotFound is returned when a collection has no saved tree.
var ErrNotFound = errors.New("not found")

// Store persists the admin-saved tree of every collection.
type Store interface {
	// GetTree returns the saved tree of c. A collection that was never saved
	// yields an empty tree at revision 0, not an error.
	GetTree(ctx context.Context, c models.Collection) (*SavedTree, error)
	// PutTree replaces the saved tree of c and returns the new revision.
	PutTree(ctx context.Context, c models.Collection, groups []models.Group) (int64, error)
	// DeleteTree drops the saved tree of c so it falls back to the defaults.
	DeleteTree(ctx context.Context, c models.Collection) error
	// ListCollections returns every collection with a saved tree.
	ListCollections(ctx context.Context) ([]CollectionInfo, error)
}

// SavedTree is a stored tree with its bookkeeping. Issues lists the parts of
// the stored document that did not decode and were replaced by empty values.
type SavedTree struct {
	Collection models.Collection   `json:"collection"`
	Groups     []models.Group      `json:"groups"`
	Issues     []models.ShapeIssue `json:"issues,omitempty"`
	Revision   int64               `json:"revision"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// CollectionInfo summarises one saved collection.
type CollectionInfo struct {
	Collection models.Collection `json:"collection"`
	Revision   int64             `json:"revision"`
	Groups     int               `json:"groups"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func emptyTree(c models.Collection) *SavedTree {
	return &SavedTree{Collection: c, Groups: []models.Group{}}
}
