package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/jbmon/internal/auth"
	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/index"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/monitor"
	"github.com/MrSnakeDoc/jbmon/internal/store/file"
)

// SnapshotPublisher records a finished sweep as the latest one.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap domain.Snapshot)
}

// SnapshotHistory is the persisted side of the snapshot index.
type SnapshotHistory interface {
	Ping(ctx context.Context) error
	RecentSnapshotIDs(ctx context.Context, env domain.Environment) ([]string, error)
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access /api
	AllowedCIDRS []string         // IPs allowed to access healthz/readyz/infra/metrics
	TrustProxy   bool             // true if running behind a trusted reverse proxy

	Store     *file.Store          // inventory and reports
	Sweeper   *monitor.Sweeper     // runs sweeps and single-instance checks
	Index     *index.SnapshotIndex // latest sweep per environment
	Publisher SnapshotPublisher    // nil => results only go to Index
	Tokens    *auth.Service        // dashboard login and token checks
	Gatherer  prometheus.Gatherer  // served on /metrics, nil disables it
	Snapshots SnapshotHistory      // nil when snapshot persistence is disabled

	CLICredentials domain.Credentials      // default management credentials
	CLIMode        string                  // "exec" or "mock"
	SweepTrigger   chan domain.Environment // manual sweep requests

	LoginRatePerMinute int
	LoginBurst         int
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
