package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
)

type componentStatus struct {
	OK        bool              `json:"ok"`
	Hosts     *int              `json:"hosts,omitempty"`
	Snapshots *int              `json:"snapshots,omitempty"`
	LastSweep string            `json:"last_sweep,omitempty"`
	Latest    map[string]string `json:"latest,omitempty"`
	Mode      string            `json:"mode,omitempty"`
	Impact    string            `json:"impact,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"inventory": checkInventory(d),
			"snapshots": checkSnapshots(d),
			"redis":     checkRedis(r.Context(), d),
			"cli":       {OK: true, Mode: d.CLIMode},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if !components["inventory"].OK {
		return "critical"
	}
	if redis, ok := components["redis"]; ok && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}
	if components["cli"].Mode == "mock" {
		return "mock"
	}
	return "operational"
}

func checkInventory(d deps.Deps) componentStatus {
	total := 0
	for _, env := range domain.Environments() {
		hosts, err := d.Store.ListHosts(env)
		if err != nil {
			return componentStatus{OK: false, Error: err.Error()}
		}
		total += len(hosts)
	}
	return componentStatus{OK: true, Hosts: &total}
}

func checkSnapshots(d deps.Deps) componentStatus {
	count := d.Index.Count()
	last := "never"
	if t := d.Index.GetLastUpdate(); !t.IsZero() {
		last = t.Format("2006-01-02 15:04:05")
	}

	var latest map[string]string
	for _, snap := range d.Index.All() {
		if latest == nil {
			latest = make(map[string]string, 2)
		}
		latest[snap.Environment.String()] = snap.FinishedAt.UTC().Format(time.RFC3339)
	}
	return componentStatus{OK: true, Snapshots: &count, LastSweep: last, Latest: latest}
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.Snapshots == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "snapshots-not-persisted",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Snapshots.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "snapshots-not-persisted",
			Error:  "timeout",
		}
	}

	return componentStatus{OK: true, Mode: "optimal"}
}
