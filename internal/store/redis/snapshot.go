package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSnapshotTTL is how long a latest snapshot survives without a
	// newer sweep (48 hours).
	DefaultSnapshotTTL = 48 * time.Hour
	// DefaultHistoryLength caps the list of recent snapshot ids.
	DefaultHistoryLength = 20
)

// Store persists sweep snapshots in Redis.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStore creates a snapshot store.
func NewStore(client redis.Cmdable) *Store {
	return &Store{
		client: client,
		ttl:    DefaultSnapshotTTL,
	}
}

// SaveSnapshot stores snap as the latest snapshot of its environment and
// records its id in the environment's history.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SnapshotKey(snap.Environment), data, s.ttl)
	pipe.LPush(ctx, HistoryKey(snap.Environment), snap.ID)
	pipe.LTrim(ctx, HistoryKey(snap.Environment), 0, DefaultHistoryLength-1)
	pipe.Expire(ctx, HistoryKey(snap.Environment), s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns env's latest snapshot, or domain.ErrNotFound.
func (s *Store) LatestSnapshot(ctx context.Context, env domain.Environment) (domain.Snapshot, error) {
	data, err := s.client.Get(ctx, SnapshotKey(env)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, fmt.Errorf("snapshot for %s: %w", env, domain.ErrNotFound)
		}
		return domain.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// LatestSnapshots returns the latest snapshot of every environment that has
// one stored.
func (s *Store) LatestSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	var out []domain.Snapshot
	for _, env := range domain.Environments() {
		snap, err := s.LatestSnapshot(ctx, env)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// RecentSnapshotIDs returns up to DefaultHistoryLength snapshot ids of env,
// newest first.
func (s *Store) RecentSnapshotIDs(ctx context.Context, env domain.Environment) ([]string, error) {
	ids, err := s.client.LRange(ctx, HistoryKey(env), 0, DefaultHistoryLength-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot history: %w", err)
	}
	return ids, nil
}

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
