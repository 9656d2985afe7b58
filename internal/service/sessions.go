package service

import (
	"context"
	"errors"
	"time"

	"github.com/voyagen/sectionvault/internal/apperr"
	"github.com/voyagen/sectionvault/internal/editor"
	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/models"
)

// GroupImporter downloads shared group documents.
type GroupImporter interface {
	FetchGroups(ctx context.Context, url, author string) ([]models.Group, []models.ShapeIssue, error)
}

// Sessions manages editing sessions on top of a Reconciler.
type Sessions struct {
	rec      *Reconciler
	defaults DefaultTreeFetcher
	store    editor.Store
	importer GroupImporter
	now      func() time.Time
}

func NewSessions(rec *Reconciler, defaults DefaultTreeFetcher, st editor.Store, importer GroupImporter) *Sessions {
	return &Sessions{rec: rec, defaults: defaults, store: st, importer: importer, now: time.Now}
}

// Open starts a session with the load view of every collection.
func (s *Sessions) Open(ctx context.Context, operator string) (*editor.Session, error) {
	sess := editor.NewSession(operator, s.now())
	for _, c := range models.Collections {
		groups, err := s.rec.ReconcileOnLoad(ctx, c)
		if err != nil {
			return nil, err
		}
		sess.Replace(c, groups)
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "store session", err)
	}
	logging.Info().Str("session", sess.ID).Str("operator", sess.Operator).Msg("session opened")
	return sess, nil
}

func (s *Sessions) Get(ctx context.Context, id string) (*editor.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, editor.ErrSessionNotFound) {
		return nil, apperr.NotFound("session", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "load session", err)
	}
	return sess, nil
}

// Edit loads the session, applies fn and stores the result. Nothing is
// stored when fn fails.
func (s *Sessions) Edit(ctx context.Context, id string, fn func(*editor.Session) error) (*editor.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.Touch(s.now())
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "store session", err)
	}
	return sess, nil
}

// Close discards a session without saving it.
func (s *Sessions) Close(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.CodeStorage, "delete session", err)
	}
	return nil
}

// Rename renames a group, keeping the rename marker against the defaults.
func (s *Sessions) Rename(ctx context.Context, id string, c models.Collection, ref, name string) (models.Group, error) {
	defaults, err := s.defaults.FetchDefaultTree(ctx, c)
	if err != nil {
		logging.Warn().Err(err).Str("collection", string(c)).Msg("fetch default tree failed, rename without marker")
		defaults = nil
	}
	var out models.Group
	_, err = s.Edit(ctx, id, func(sess *editor.Session) error {
		g, err := sess.RenameGroup(c, ref, name, defaults)
		out = g
		return err
	})
	return out, err
}

// DeleteSection removes a section from the working tree of c. Sections that
// ship in the defaults are hidden rather than deleted.
func (s *Sessions) DeleteSection(ctx context.Context, id string, c models.Collection, section string) (bool, error) {
	defaults, err := s.defaults.FetchDefaultTree(ctx, c)
	if err != nil {
		logging.Warn().Err(err).Str("collection", string(c)).Msg("fetch default tree failed, deleting without built-in check")
		defaults = nil
	}
	var hidden bool
	_, err = s.Edit(ctx, id, func(sess *editor.Session) error {
		h, err := sess.DeleteSection(c, section, defaults)
		hidden = h
		return err
	})
	return hidden, err
}

// Import downloads url and adds every group in it to the working tree of c.
// The whole import fails when any group conflicts with an existing one.
func (s *Sessions) Import(ctx context.Context, id string, c models.Collection, url, author string) ([]models.Group, error) {
	if s.importer == nil {
		return nil, apperr.New(apperr.CodeImport, "imports are disabled")
	}
	if url == "" {
		return nil, apperr.New(apperr.CodeValidation, "url is required")
	}
	if author == "" {
		return nil, apperr.New(apperr.CodeValidation, "author is required")
	}
	groups, issues, err := s.importer.FetchGroups(ctx, url, author)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeImport, "fetch "+url, err)
	}
	for _, issue := range issues {
		logging.Warn().Str("url", url).Str("issue", issue.String()).Msg("skipped malformed imported entry")
	}

	var added []models.Group
	_, err = s.Edit(ctx, id, func(sess *editor.Session) error {
		for _, g := range groups {
			out, err := sess.ImportGroup(c, g)
			if err != nil {
				return err
			}
			added = append(added, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Info().Str("session", id).Str("collection", string(c)).Str("url", url).Int("groups", len(added)).Msg("groups imported")
	return added, nil
}

// SaveAll saves every collection of the session and replaces each working
// tree with the new load view. Collections saved before a failure stay
// saved; the session is stored either way.
func (s *Sessions) SaveAll(ctx context.Context, id string) ([]*Result, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var results []*Result
	var saveErr error
	for _, c := range models.Collections {
		working, ok := sess.Collections[c]
		if !ok {
			continue
		}
		res, err := s.rec.Save(ctx, c, working)
		if err != nil {
			saveErr = err
			break
		}
		loaded, err := s.rec.Load(ctx, c)
		if err != nil {
			saveErr = err
			break
		}
		sess.Replace(c, loaded.Groups)
		res.Groups = loaded.Groups
		results = append(results, res)
	}
	sess.Touch(s.now())
	if err := s.store.Put(ctx, sess); err != nil && saveErr == nil {
		saveErr = apperr.Wrap(apperr.CodeStorage, "store session", err)
	}
	return results, saveErr
}
