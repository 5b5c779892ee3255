// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"log/slog"
	"time"
)

// sweepBatch caps the keys handled per tick.
const sweepBatch = 100

// ReferenceChecker reports which objects are still referenced by catalog rows.
// The result is keyed by [Object.Key].
type ReferenceChecker interface {
	Referenced(context context.Context, objects []Object) (map[string]bool, error)
}

// Sweeper deletes ledger entries whose objects no catalog row references.
type Sweeper struct {
	store      Store
	ledger     OrphanLedger
	references ReferenceChecker
	interval   time.Duration
	grace      time.Duration
	logger     *slog.Logger
}

// NewSweeper builds a sweeper that runs every interval. Entries younger than
// one interval are skipped so an in-flight submission can still commit.
func NewSweeper(store Store, ledger OrphanLedger, references ReferenceChecker, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:      store,
		ledger:     ledger,
		references: references,
		interval:   interval,
		grace:      interval,
		logger:     logger,
	}
}

// Run sweeps on every tick until context is cancelled. It always returns nil
// so it can sit in an errgroup next to the HTTP server.
func (sweeper *Sweeper) Run(context context.Context) error {
	ticker := time.NewTicker(sweeper.interval)
	defer ticker.Stop()

	sweeper.logger.Info("blob_sweeper_started", slog.Duration("interval", sweeper.interval))

	for {
		select {
		case <-context.Done():
			sweeper.logger.Info("blob_sweeper_stopped")
			return nil
		case <-ticker.C:
			if _, err := sweeper.SweepOnce(context); err != nil {
				sweeper.logger.Error("blob_sweep_failed", slog.Any("error", err))
			}
		}
	}
}

/*
SweepOnce processes one batch of due ledger entries.

Description: Referenced objects are only dropped from the ledger. Unreferenced
objects are deleted from the store first; a failed delete stays in the ledger
for the next tick.

Returns:
  - int: Number of objects deleted
  - error: Ledger or reference lookup failure
*/
func (sweeper *Sweeper) SweepOnce(context context.Context) (int, error) {
	keys, err := sweeper.ledger.Due(context, time.Now().Add(-sweeper.grace), sweepBatch)
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	objects := make([]Object, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, Object{Key: key, URL: sweeper.store.URL(key)})
	}

	referenced, err := sweeper.references.Referenced(context, objects)
	if err != nil {
		return 0, err
	}

	var resolved []string
	deleted := 0
	for _, object := range objects {
		if referenced[object.Key] {
			resolved = append(resolved, object.Key)
			continue
		}

		if err := sweeper.store.Delete(context, object.Key); err != nil {
			sweeper.logger.Warn("blob_orphan_delete_failed", slog.String("key", object.Key), slog.Any("error", err))
			continue
		}

		resolved = append(resolved, object.Key)
		deleted++
	}

	if err := sweeper.ledger.Resolve(context, resolved...); err != nil {
		return deleted, err
	}

	if deleted > 0 {
		sweeper.logger.Info("blob_orphans_deleted", slog.Int("count", deleted))
	}

	return deleted, nil
}
