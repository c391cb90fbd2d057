// Package jobs hosts the scheduled maintenance work.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"eduauth/internal/observability/metrics"
	"eduauth/internal/store"

	"github.com/robfig/cron/v3"
)

const purgeBatchSize = 500

// StartSessionPurge schedules removal of expired and revoked sessions along
// with their leftover pending-factor rows. Returns the scheduler so the
// caller can stop it on shutdown.
func StartSessionPurge(st *store.Store, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := PurgeOnce(context.Background(), st); err != nil {
			slog.Error("session purge failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// PurgeOnce removes one batch of dead sessions.
func PurgeOnce(ctx context.Context, st *store.Store) error {
	cutoff := time.Now().UTC()
	return st.WithTx(ctx, func(tx *store.Store) error {
		ids, err := tx.Sessions().ListDead(ctx, cutoff, purgeBatchSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.Factors().PurgeForSessions(ctx, ids); err != nil {
			return err
		}
		purged, err := tx.Sessions().DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		metrics.SessionsPurgedTotal.WithLabelValues().Add(float64(purged))
		slog.Info("purged dead sessions", "count", purged)
		return nil
	})
}
