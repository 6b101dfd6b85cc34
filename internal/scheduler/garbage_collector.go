package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

const (
	// DefaultReportRetention is how long archived reports are kept.
	DefaultReportRetention = 30 * 24 * time.Hour // 30 days
)

// ReportPruner deletes reports older than a cutoff.
type ReportPruner interface {
	PruneReports(cutoff time.Time) (int, error)
}

// GarbageCollector deletes archived reports past their retention.
type GarbageCollector struct {
	reports   ReportPruner
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// NewGarbageCollector creates a new garbage collector. A zero retention
// uses DefaultReportRetention.
func NewGarbageCollector(
	reports ReportPruner,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *GarbageCollector {
	if retention == 0 {
		retention = DefaultReportRetention
	}

	return &GarbageCollector{
		reports:   reports,
		logger:    log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start prunes once, then every interval until Stop or ctx ends.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if gc.interval <= 0 {
		return fmt.Errorf("garbage collector interval must be > 0, got %v", gc.interval)
	}

	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector.
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect removes reports older than the retention.
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cutoff := gc.now().Add(-gc.retention)
	gc.logger.Debug("running report garbage collection", logger.Time("cutoff", cutoff))

	deleted, err := gc.reports.PruneReports(cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("reports_deleted", deleted),
			logger.Duration("retention", gc.retention))
	} else {
		gc.logger.Debug("no reports to garbage collect")
	}

	return nil
}
