package monitor

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/metrics"
)

// Inventory is the read side of the inventory store.
type Inventory interface {
	ListHosts(env domain.Environment) ([]domain.Host, error)
	FindInstance(env domain.Environment, instanceID int) (domain.Host, domain.Instance, error)
}

// Sweeper runs sweeps against the current inventory.
type Sweeper struct {
	inventory  Inventory
	aggregator *Aggregator
	logger     logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	group      singleflight.Group
}

// NewSweeper creates a sweeper.
func NewSweeper(inv Inventory, agg *Aggregator, log logger.Logger, m *metrics.Metrics) *Sweeper {
	return &Sweeper{
		inventory:  inv,
		aggregator: agg,
		logger:     log,
		metrics:    m,
		now:        time.Now,
	}
}

// Sweep checks every host of env. Concurrent calls for the same
// environment and credentials share one sweep. The only error is a failure
// to read the inventory.
func (s *Sweeper) Sweep(ctx context.Context, env domain.Environment, creds domain.Credentials, trigger string) (domain.Snapshot, error) {
	key := sweepKey(env, creds)
	// The shared sweep must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)

	v, err, joined := s.group.Do(key, func() (any, error) {
		return s.sweep(shared, env, creds, trigger)
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	if joined {
		s.logger.Debug("joined in-flight sweep", logger.String("environment", env.String()))
	}
	return v.(domain.Snapshot), nil
}

func (s *Sweeper) sweep(ctx context.Context, env domain.Environment, creds domain.Credentials, trigger string) (domain.Snapshot, error) {
	hosts, err := s.inventory.ListHosts(env)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read inventory: %w", err)
	}

	snap := domain.Snapshot{
		ID:          uuid.NewString(),
		Environment: env,
		Trigger:     trigger,
		StartedAt:   s.now(),
	}

	log := s.logger.With(
		logger.String("sweep_id", snap.ID),
		logger.String("environment", env.String()))
	log.Info("starting sweep",
		logger.String("trigger", trigger),
		logger.Int("hosts", len(hosts)))

	snap.Results = s.aggregator.CheckFleet(ctx, env, hosts, creds)
	snap.FinishedAt = s.now()

	elapsed := snap.FinishedAt.Sub(snap.StartedAt)
	s.metrics.ObserveSweep(env.String(), trigger, elapsed, snap.FinishedAt)

	summary := snap.Summary()
	log.Info("sweep completed",
		logger.Duration("elapsed", elapsed),
		logger.Int("online", summary[domain.StatusOnline]),
		logger.Int("offline", summary[domain.StatusOffline]),
		logger.Int("error", summary[domain.StatusError]))

	return snap, nil
}

// CheckInstanceByID checks one instance. It returns domain.ErrNotFound when
// the id does not exist in env.
func (s *Sweeper) CheckInstanceByID(ctx context.Context, env domain.Environment, instanceID int, creds domain.Credentials) (domain.InstanceDetail, error) {
	h, inst, err := s.inventory.FindInstance(env, instanceID)
	if err != nil {
		return domain.InstanceDetail{}, err
	}
	return s.aggregator.CheckInstanceDetail(ctx, env, h, inst, creds), nil
}

func sweepKey(env domain.Environment, creds domain.Credentials) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(creds.Username + "\x00" + creds.Password))
	return fmt.Sprintf("%s/%x", env, h.Sum64())
}
