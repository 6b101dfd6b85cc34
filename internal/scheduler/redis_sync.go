package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/index"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// SnapshotLoader reads back persisted snapshots.
type SnapshotLoader interface {
	LatestSnapshots(ctx context.Context) ([]domain.Snapshot, error)
}

// RedisSyncer restores the latest snapshots from Redis into the index on
// startup.
type RedisSyncer struct {
	store  SnapshotLoader
	index  *index.SnapshotIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer.
func NewRedisSyncer(store SnapshotLoader, idx *index.SnapshotIndex, log logger.Logger) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads snapshots from Redis. Snapshots older than what the index
// already holds are ignored.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing snapshots from redis to memory")

	snaps, err := rs.store.LatestSnapshots(ctx)
	if err != nil {
		return err
	}

	if len(snaps) == 0 {
		rs.logger.Info("no snapshots found in redis")
		return nil
	}

	restored := 0
	for _, snap := range snaps {
		if rs.index.Put(snap) {
			restored++
		}
	}

	rs.logger.Info("synced snapshots from redis",
		logger.Int("count", restored))

	return nil
}
