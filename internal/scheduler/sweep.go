package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/index"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// SweepRunner runs one sweep of an environment.
type SweepRunner interface {
	Sweep(ctx context.Context, env domain.Environment, creds domain.Credentials, trigger string) (domain.Snapshot, error)
}

// SnapshotSaver persists snapshots outside the process.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// ReportArchiver stores a sweep as an immutable report. Archiving the same
// sweep twice returns the first report.
type ReportArchiver interface {
	ArchiveReport(env domain.Environment, results []domain.HostResult, createdBy string, finishedAt time.Time) (domain.ReportMetadata, error)
}

// SweepScheduler sweeps every environment periodically and on demand, and
// publishes the results.
type SweepScheduler struct {
	sweeper       SweepRunner
	index         *index.SnapshotIndex
	store         SnapshotSaver
	archive       ReportArchiver
	credentials   map[domain.Environment]domain.Credentials
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan domain.Environment
}

// NewSweepScheduler creates a sweep scheduler. store and archive may be
// nil. An interval of 0 disables periodic sweeps; manual triggers still
// run.
func NewSweepScheduler(
	sweeper SweepRunner,
	idx *index.SnapshotIndex,
	store SnapshotSaver,
	archive ReportArchiver,
	creds map[domain.Environment]domain.Credentials,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan domain.Environment,
) *SweepScheduler {
	return &SweepScheduler{
		sweeper:       sweeper,
		index:         idx,
		store:         store,
		archive:       archive,
		credentials:   creds,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs the scheduling loop in the background. When periodic sweeps
// are enabled every environment is swept right away.
func (ss *SweepScheduler) Start(ctx context.Context) error {
	if ss.interval <= 0 {
		ss.logger.Info("periodic sweeps disabled")
	}

	go func() {
		var tick <-chan time.Time
		if ss.interval > 0 {
			ticker := time.NewTicker(ss.interval)
			defer ticker.Stop()
			tick = ticker.C
			ss.sweepAll(ctx, domain.TriggerSchedule)
		}

		for {
			select {
			case <-tick:
				ss.sweepAll(ctx, domain.TriggerSchedule)
			case env := <-ss.manualTrigger:
				ss.logger.Info("manual sweep triggered", logger.String("environment", env.String()))
				if err := ss.Run(ctx, env, domain.TriggerManual); err != nil {
					ss.logger.Error("manual sweep failed", logger.Error(err))
				}
			case <-ss.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the scheduler.
func (ss *SweepScheduler) Stop() {
	close(ss.stopCh)
}

func (ss *SweepScheduler) sweepAll(ctx context.Context, trigger string) {
	for _, env := range domain.Environments() {
		if ctx.Err() != nil {
			return
		}
		if err := ss.Run(ctx, env, trigger); err != nil {
			ss.logger.Error("scheduled sweep failed",
				logger.String("environment", env.String()),
				logger.Error(err))
		}
	}
}

// Run sweeps env with its configured credentials and publishes the result.
func (ss *SweepScheduler) Run(ctx context.Context, env domain.Environment, trigger string) error {
	snap, err := ss.sweeper.Sweep(ctx, env, ss.credentials[env], trigger)
	if err != nil {
		return fmt.Errorf("sweep %s: %w", env, err)
	}

	ss.Publish(ctx, snap)

	if ss.archive != nil {
		meta, err := ss.archive.ArchiveReport(env, snap.Results, "scheduler", snap.FinishedAt)
		if err != nil {
			ss.logger.Warn("failed to archive sweep", logger.String("sweep_id", snap.ID), logger.Error(err))
		} else {
			ss.logger.Info("sweep archived", logger.String("report_id", meta.ID))
		}
	}
	return nil
}

// Publish records snap in the index and, best effort, in Redis. A snapshot
// that is already indexed, or older than the indexed one, is skipped.
func (ss *SweepScheduler) Publish(ctx context.Context, snap domain.Snapshot) {
	if !ss.index.Put(snap) {
		ss.logger.Debug("snapshot already indexed or stale", logger.String("sweep_id", snap.ID))
		return
	}

	if ss.store != nil {
		if err := ss.store.SaveSnapshot(ctx, snap); err != nil {
			// The index stays the source of truth.
			ss.logger.Warn("failed to save snapshot to redis", logger.Error(err))
		}
	}
}
