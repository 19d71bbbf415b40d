// Package sweep runs the background maintenance jobs: expiring peer
// activity and flushing conversation snapshots to the store.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"timelined/pkg/logger"
	"timelined/pkg/store"
	"timelined/pkg/telemetry"
	"timelined/pkg/timeline"
)

type Sweeper struct {
	reg          *timeline.Registry
	presenceCron string
	snapshotCron string
}

// New validates both cron expressions up front.
func New(reg *timeline.Registry, presenceCron, snapshotCron string) (*Sweeper, error) {
	if !gronx.IsValid(presenceCron) {
		return nil, fmt.Errorf("invalid presence cron expression: %s", presenceCron)
	}
	if !gronx.IsValid(snapshotCron) {
		return nil, fmt.Errorf("invalid snapshot cron expression: %s", snapshotCron)
	}
	return &Sweeper{
		reg:          reg,
		presenceCron: presenceCron,
		snapshotCron: snapshotCron,
	}, nil
}

// Run drives both jobs until ctx is cancelled. Cron granularity is a
// minute; presence TTLs are seconds, so reads also sweep lazily and
// the cron pass only reclaims idle entries.
func (s *Sweeper) Run(ctx context.Context) {
	go s.runJob(ctx, "presence", s.presenceCron, func() {
		active := s.reg.SweepSendActions(time.Now())
		logger.Debug("presence_swept", "active_conversations", active)
	})
	s.runJob(ctx, "snapshot", s.snapshotCron, s.flushSnapshots)
}

func (s *Sweeper) runJob(ctx context.Context, name, cronExpr string, fn func()) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep_job_stopped", "job", name)
			return
		default:
		}
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweep_nexttick_failed", "job", name, "cron", cronExpr, "error", err.Error())
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case <-time.After(time.Until(next)):
			fn()
			telemetry.SweepRuns.WithLabelValues(name).Inc()
		case <-ctx.Done():
			logger.Info("sweep_job_stopped", "job", name)
			return
		}
	}
}

func (s *Sweeper) flushSnapshots() {
	flushed := 0
	for _, id := range s.reg.IDs() {
		var snap store.Snapshot
		err := s.reg.With(id, func(t *timeline.Timeline) error {
			snap = store.Snapshot{
				Info:       t.Info(),
				Dialog:     t.DialogSnapshot(),
				LocalDraft: t.LocalDraft().Clone(),
				EditDraft:  t.EditDraft().Clone(),
			}
			return nil
		})
		if err != nil {
			continue
		}
		if err := store.SaveSnapshot(id, snap); err != nil {
			logger.Warn("snapshot_flush_failed", "conv", id, "error", err.Error())
			continue
		}
		flushed++
	}
	logger.Info("snapshots_flushed", "count", flushed)
}

// FlushNow flushes all snapshots once, used at shutdown.
func (s *Sweeper) FlushNow() {
	s.flushSnapshots()
}
