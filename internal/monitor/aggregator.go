package monitor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/metrics"
	"github.com/MrSnakeDoc/jbmon/internal/probe"
)

// DefaultConcurrency is the number of instances probed at once.
const DefaultConcurrency = 4

// Aggregator walks hosts and instances and assembles result trees.
//
// It never mutates inventory and never returns an error: every failure is
// recorded on the entry it belongs to, so a sweep always has one entry per
// input host and instance, in input order.
type Aggregator struct {
	prober  probe.Prober
	slots   *semaphore.Weighted
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewAggregator creates an aggregator probing at most concurrency
// instances at a time. concurrency <= 0 uses DefaultConcurrency; 1 probes
// strictly one instance after another.
func NewAggregator(p probe.Prober, concurrency int, log logger.Logger, m *metrics.Metrics) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		prober:  p,
		slots:   semaphore.NewWeighted(int64(concurrency)),
		logger:  log,
		metrics: m,
	}
}

// CheckFleet checks every host. Hosts are checked concurrently but the
// returned slice follows the input order.
func (a *Aggregator) CheckFleet(ctx context.Context, env domain.Environment, hosts []domain.Host, creds domain.Credentials) []domain.HostResult {
	results := make([]domain.HostResult, len(hosts))

	var wg sync.WaitGroup
	for i, h := range hosts {
		wg.Add(1)
		go func(i int, h domain.Host) {
			defer wg.Done()
			results[i] = a.checkHostSafe(ctx, env, h, creds)
		}(i, h)
	}
	wg.Wait()

	return results
}

// checkHostSafe is the host-level failure boundary.
func (a *Aggregator) checkHostSafe(ctx context.Context, env domain.Environment, h domain.Host, creds domain.Credentials) (res domain.HostResult) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("host check panicked",
				logger.String("hostname", h.Hostname),
				logger.String("panic", fmt.Sprint(rec)))
			res = domain.HostResult{
				ID:            h.ID,
				Hostname:      h.Hostname,
				Status:        domain.StatusError,
				StatusMessage: fmt.Sprint(rec),
				Instances:     []domain.InstanceResult{},
			}
		}
	}()
	return a.CheckHost(ctx, env, h, creds)
}

// CheckHost checks every instance of h. A host without instances is
// returned as-is without probing.
func (a *Aggregator) CheckHost(ctx context.Context, env domain.Environment, h domain.Host, creds domain.Credentials) domain.HostResult {
	out := domain.HostResult{
		ID:        h.ID,
		Hostname:  h.Hostname,
		Instances: make([]domain.InstanceResult, len(h.Instances)),
	}

	var wg sync.WaitGroup
	for i, inst := range h.Instances {
		wg.Add(1)
		go func(i int, inst domain.Instance) {
			defer wg.Done()
			out.Instances[i] = a.CheckInstance(ctx, env, h, inst, creds)
		}(i, inst)
	}
	wg.Wait()

	return out
}

// CheckInstance probes one instance. Datasources and deployments are only
// queried when the instance is online. Any error or panic raised while
// probing becomes an "error" entry.
func (a *Aggregator) CheckInstance(ctx context.Context, env domain.Environment, h domain.Host, inst domain.Instance, creds domain.Credentials) (res domain.InstanceResult) {
	defer func() {
		a.metrics.ObserveInstance(env.String(), string(res.Status))
	}()

	if err := a.slots.Acquire(ctx, 1); err != nil {
		return errorResult(inst, err)
	}
	defer a.slots.Release(1)

	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("instance check panicked",
				logger.String("hostname", h.Hostname),
				logger.String("instance", inst.Name),
				logger.String("panic", fmt.Sprint(rec)))
			res = errorResult(inst, fmt.Errorf("%v", rec))
		}
	}()

	res, err := a.probeInstance(ctx, h, inst, creds)
	if err != nil {
		a.logger.Error("error checking instance",
			logger.String("hostname", h.Hostname),
			logger.String("instance", inst.Name),
			logger.Int("port", inst.Port),
			logger.Error(err))
		return errorResult(inst, err)
	}
	return res
}

func (a *Aggregator) probeInstance(ctx context.Context, h domain.Host, inst domain.Instance, creds domain.Credentials) (domain.InstanceResult, error) {
	t := probe.Target{Host: h.Hostname, Port: inst.Port, Credentials: creds}

	status, err := a.prober.Status(ctx, t)
	if err != nil {
		return domain.InstanceResult{}, err
	}

	res := domain.InstanceResult{
		ID:            inst.ID,
		Name:          inst.Name,
		Port:          inst.Port,
		Status:        status.Status,
		Reason:        status.Reason,
		StatusMessage: status.Message,
		Datasources:   []domain.DatasourceStatus{},
		WarFiles:      []domain.DeploymentStatus{},
	}
	if status.Status != domain.StatusOnline {
		return res, nil
	}

	ds, err := a.prober.Datasources(ctx, t)
	if err != nil {
		return domain.InstanceResult{}, err
	}
	deps, err := a.prober.Deployments(ctx, t)
	if err != nil {
		return domain.InstanceResult{}, err
	}
	if ds != nil {
		res.Datasources = ds
	}
	if deps != nil {
		res.WarFiles = deps
	}
	return res, nil
}

// CheckInstanceDetail is CheckInstance in the single-instance shape.
func (a *Aggregator) CheckInstanceDetail(ctx context.Context, env domain.Environment, h domain.Host, inst domain.Instance, creds domain.Credentials) domain.InstanceDetail {
	return a.CheckInstance(ctx, env, h, inst, creds).Detail(h)
}

func errorResult(inst domain.Instance, err error) domain.InstanceResult {
	return domain.InstanceResult{
		ID:            inst.ID,
		Name:          inst.Name,
		Port:          inst.Port,
		Status:        domain.StatusError,
		Reason:        domain.ReasonProbeError,
		StatusMessage: err.Error(),
		Datasources:   []domain.DatasourceStatus{},
		WarFiles:      []domain.DeploymentStatus{},
	}
}
