package service

import (
	"context"
	"time"

	"github.com/voyagen/sectionvault/internal/cache"
	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/models"
)

// RunEventWorker consumes tree change events and rebuilds the load view of
// each changed collection, which refills the read-through cache. It stops
// when ctx is cancelled.
func RunEventWorker(ctx context.Context, rds *cache.Redis, rec *Reconciler) {
	logging.Info().Msg("tree event worker started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("tree event worker stopping")
			return
		default:
		}

		ev, err := cache.Dequeue(ctx, rds, cache.EventQueue, 5*time.Second)
		if err != nil {
			logging.Error().Err(err).Msg("tree event worker: dequeue failed")
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
			continue
		}
		if ev == nil {
			continue
		}
		HandleEvent(ctx, rec, *ev)
	}
}

// HandleEvent processes one tree change event.
func HandleEvent(ctx context.Context, rec *Reconciler, ev cache.TreeEvent) {
	c, err := models.ParseCollection(ev.Collection)
	if err != nil {
		logging.Warn().Err(err).Msg("tree event worker: dropping event")
		return
	}
	res, err := rec.Load(ctx, c)
	if err != nil {
		logging.Warn().Err(err).Str("collection", string(c)).Msg("tree event worker: warm failed")
		return
	}
	logging.Info().Str("collection", string(c)).Int64("revision", ev.Revision).Bool("reset", ev.Reset).
		Int("groups", len(res.Groups)).Dur("lag", time.Since(ev.At)).Msg("tree changed")
}
