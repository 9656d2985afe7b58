// Package service wires the merge engine to storage, locking and sessions.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voyagen/sectionvault/internal/apperr"
	"github.com/voyagen/sectionvault/internal/cache"
	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/merge"
	"github.com/voyagen/sectionvault/internal/metrics"
	"github.com/voyagen/sectionvault/internal/models"
	"github.com/voyagen/sectionvault/internal/store"
	"github.com/voyagen/sectionvault/internal/validation"
)

// DefaultTreeFetcher supplies the built-in tree of a collection. The saved
// tree comes from a store.Store, which also reports revision and shape issues.
type DefaultTreeFetcher interface {
	FetchDefaultTree(ctx context.Context, c models.Collection) ([]models.Group, error)
}

// Result is a reconciled tree with what the merge did to it.
type Result struct {
	Collection models.Collection `json:"collection"`
	Revision   int64             `json:"revision"`
	Groups     []models.Group    `json:"groups"`
	Report     merge.Report      `json:"report"`
}

// Options tunes a Reconciler. A nil Redis falls back to in-process locks and
// disables change events.
type Options struct {
	Redis   *cache.Redis
	LockTTL time.Duration
}

// Reconciler runs the load and save merges against real collaborators.
type Reconciler struct {
	defaults DefaultTreeFetcher
	store    store.Store
	redis    *cache.Redis
	locks    locker
	now      func() time.Time
}

func NewReconciler(defaults DefaultTreeFetcher, st store.Store, opts Options) *Reconciler {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	var l locker = &localLocker{held: map[string]bool{}}
	if opts.Redis != nil {
		l = &redisLocker{redis: opts.Redis, ttl: opts.LockTTL}
	}
	return &Reconciler{defaults: defaults, store: st, redis: opts.Redis, locks: l, now: time.Now}
}

// ReconcileOnLoad returns the working tree for c: defaults with the saved
// overrides applied.
func (r *Reconciler) ReconcileOnLoad(ctx context.Context, c models.Collection) ([]models.Group, error) {
	res, err := r.Load(ctx, c)
	if err != nil {
		return nil, err
	}
	return res.Groups, nil
}

// Load is ReconcileOnLoad with the saved revision and the merge report. A
// failing fetch degrades to an empty layer and is logged.
func (r *Reconciler) Load(ctx context.Context, c models.Collection) (*Result, error) {
	start := time.Now()
	defaults, err := r.defaults.FetchDefaultTree(ctx, c)
	if err != nil {
		logging.Error().Err(err).Str("collection", string(c)).Msg("fetch default tree failed, using empty tree")
		defaults = nil
	}
	saved, err := r.store.GetTree(ctx, c)
	if err != nil {
		logging.Error().Err(err).Str("collection", string(c)).Msg("fetch saved tree failed, using empty tree")
		saved = &store.SavedTree{Collection: c, Groups: []models.Group{}}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups, rep := merge.MergeForLoad(defaults, saved.Groups)
	rep.ShapeIssues = saved.Issues
	record(c, rep, time.Since(start))
	return &Result{Collection: c, Revision: saved.Revision, Groups: groups, Report: rep}, nil
}

// ReconcileOnSave folds working into the freshly fetched saved tree without
// persisting anything. A failing fetch degrades to an empty saved tree.
func (r *Reconciler) ReconcileOnSave(ctx context.Context, c models.Collection, working []models.Group) ([]models.Group, error) {
	fresh, err := r.store.GetTree(ctx, c)
	if err != nil {
		logging.Error().Err(err).Str("collection", string(c)).Msg("fetch saved tree failed, using empty tree")
		fresh = &store.SavedTree{Collection: c, Groups: []models.Group{}}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	groups, rep := merge.MergeForSave(working, fresh.Groups)
	rep.ShapeIssues = fresh.Issues
	record(c, rep, time.Since(start))
	return groups, nil
}

// Save merges working into the current saved tree and persists the result.
// Saves of one collection are serialised by a lock; a working tree with
// ambiguous group or section identities is rejected before anything is
// fetched. Unlike ReconcileOnSave a failing fetch aborts the save.
func (r *Reconciler) Save(ctx context.Context, c models.Collection, working []models.Group) (*Result, error) {
	if collisions := merge.FindCollisions(working); len(collisions) > 0 {
		for _, col := range collisions {
			logging.Warn().Str("collection", string(c)).Str("collision", col.String()).Msg("rejecting save")
		}
		metrics.IdentityCollisions.Add(float64(len(collisions)))
		return nil, apperr.New(apperr.CodeIdentityCollision, "working tree has ambiguous identities").
			WithDetail("collisions", collisions)
	}

	unlock, err := r.locks.lock(ctx, "lock:save:"+string(c))
	if err != nil {
		return nil, err
	}
	defer unlock()

	fresh, err := r.store.GetTree(ctx, c)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "fetch saved tree", err)
	}

	start := time.Now()
	groups, rep := merge.MergeForSave(working, fresh.Groups)
	rep.ShapeIssues = fresh.Issues
	record(c, rep, time.Since(start))

	if err := validation.Tree(groups); err != nil {
		appErr := apperr.Wrap(apperr.CodeValidation, "merged tree is invalid", err)
		var verr *validation.Error
		if errors.As(err, &verr) {
			appErr.WithDetail("fields", verr.Fields)
		}
		return nil, appErr
	}

	rev, err := r.store.PutTree(ctx, c, groups)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "persist tree", err)
	}
	r.publish(ctx, cache.TreeEvent{Collection: string(c), Revision: rev, At: r.now()})

	logging.Info().Str("collection", string(c)).Int64("revision", rev).Int("groups", len(groups)).
		Str("report", rep.String()).Msg("tree saved")
	return &Result{Collection: c, Revision: rev, Groups: groups, Report: rep}, nil
}

// Reset drops the saved tree of c so it loads as the defaults again.
func (r *Reconciler) Reset(ctx context.Context, c models.Collection) error {
	unlock, err := r.locks.lock(ctx, "lock:save:"+string(c))
	if err != nil {
		return err
	}
	defer unlock()

	if err := r.store.DeleteTree(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("saved tree", string(c))
		}
		return apperr.Wrap(apperr.CodeStorage, "delete tree", err)
	}
	r.publish(ctx, cache.TreeEvent{Collection: string(c), Reset: true, At: r.now()})
	logging.Info().Str("collection", string(c)).Msg("tree reset to defaults")
	return nil
}

// Collections lists every collection with its saved state. Collections that
// were never saved are reported with revision 0.
func (r *Reconciler) Collections(ctx context.Context) ([]store.CollectionInfo, error) {
	saved, err := r.store.ListCollections(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "list collections", err)
	}
	byName := make(map[models.Collection]store.CollectionInfo, len(saved))
	for _, info := range saved {
		byName[info.Collection] = info
	}
	out := make([]store.CollectionInfo, 0, len(models.Collections))
	for _, c := range models.Collections {
		info, ok := byName[c]
		if !ok {
			info = store.CollectionInfo{Collection: c}
		}
		out = append(out, info)
	}
	return out, nil
}

func (r *Reconciler) publish(ctx context.Context, ev cache.TreeEvent) {
	if r.redis == nil {
		return
	}
	if err := cache.Enqueue(ctx, r.redis, cache.EventQueue, ev); err != nil {
		logging.Warn().Err(err).Str("collection", ev.Collection).Msg("publish tree event failed")
	}
}

// record logs anything unusual a merge did and updates the merge metrics.
func record(c models.Collection, rep merge.Report, d time.Duration) {
	metrics.RecordMerge(string(rep.Mode), d, metrics.MergeStats{
		Collisions:  len(rep.Collisions),
		Groups:      len(rep.DroppedGroups),
		Sections:    len(rep.SuppressedSections),
		Pruned:      len(rep.PrunedGroups),
		ShapeIssues: len(rep.ShapeIssues),
	})
	if rep.Clean() {
		return
	}
	for _, col := range rep.Collisions {
		logging.Warn().Str("collection", string(c)).Str("collision", col.String()).Msg("identity collision")
	}
	for _, issue := range rep.ShapeIssues {
		logging.Warn().Str("collection", string(c)).Str("issue", issue.String()).Msg("skipped malformed tree entry")
	}
	logging.Debug().Str("collection", string(c)).Str("report", rep.String()).Msg("merge finished")
}

type locker interface {
	lock(ctx context.Context, key string) (func(), error)
}

type redisLocker struct {
	redis *cache.Redis
	ttl   time.Duration
}

func (l *redisLocker) lock(ctx context.Context, key string) (func(), error) {
	unlock, err := cache.TryLock(ctx, l.redis, key, l.ttl)
	if errors.Is(err, cache.ErrLocked) {
		return nil, apperr.New(apperr.CodeLocked, "another save of this collection is in progress")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "acquire save lock", err)
	}
	return unlock, nil
}

// localLocker serialises saves within one process.
type localLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *localLocker) lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, apperr.New(apperr.CodeLocked, "another save of this collection is in progress")
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}
