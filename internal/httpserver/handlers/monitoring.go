package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/utils"
)

type statusResponse struct {
	Results []domain.HostResult    `json:"results"`
	Report  *domain.ReportMetadata `json:"report,omitempty"`
}

type instanceStatusResponse struct {
	Status domain.InstanceDetail `json:"status"`
}

// queryCredentials lets a caller override the default management
// credentials with ?username=&password=. The pair is all or nothing.
func queryCredentials(r *http.Request, fallback domain.Credentials) (domain.Credentials, error) {
	q := r.URL.Query()
	creds := domain.Credentials{
		Username: q.Get("username"),
		Password: q.Get("password"),
	}
	if (creds.Username == "") != (creds.Password == "") {
		return domain.Credentials{}, fmt.Errorf("%w: username and password must be given together", domain.ErrValidation)
	}
	return creds.Or(fallback), nil
}

// MonitoringStatus sweeps the caller's environment, publishes the snapshot
// and optionally archives it as a report.
func MonitoringStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity(r)
		creds, err := queryCredentials(r, d.CLICredentials)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		snap, err := d.Sweeper.Sweep(r.Context(), id.Environment, creds, domain.TriggerRequest)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		if d.Publisher != nil {
			d.Publisher.Publish(r.Context(), snap)
		} else if d.Index != nil {
			d.Index.Put(snap)
		}

		resp := statusResponse{Results: snap.Results}

		if save, _ := strconv.ParseBool(r.URL.Query().Get("save_report")); save {
			meta, err := d.Store.ArchiveReport(id.Environment, snap.Results, id.Username, snap.FinishedAt)
			if err != nil {
				writeStoreError(w, d.Logger, err)
				return
			}
			resp.Report = &meta
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// LatestSnapshot returns the newest published sweep without probing.
func LatestSnapshot(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := d.Index.Latest(identity(r).Environment)
		if !ok {
			writeError(w, http.StatusNotFound, "no sweep recorded yet")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type historyResponse struct {
	Environment domain.Environment `json:"environment"`
	SnapshotIDs []string           `json:"snapshot_ids"`
	Persisted   bool               `json:"persisted"`
}

// SnapshotHistory lists recent sweep ids of the caller's environment, newest
// first. Without Redis only the indexed sweep is known.
func SnapshotHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := identity(r).Environment
		resp := historyResponse{Environment: env, SnapshotIDs: []string{}}

		if d.Snapshots != nil {
			ids, err := d.Snapshots.RecentSnapshotIDs(r.Context(), env)
			if err == nil {
				resp.SnapshotIDs = append(resp.SnapshotIDs, ids...)
				resp.Persisted = true
				writeJSON(w, http.StatusOK, resp)
				return
			}
			d.Logger.Warn("failed to read snapshot history, using the index",
				logger.String("environment", env.String()),
				logger.Error(err))
		}

		if snap, ok := d.Index.Latest(env); ok {
			resp.SnapshotIDs = append(resp.SnapshotIDs, snap.ID)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Refresh asks the sweep scheduler for an immediate sweep of the caller's
// environment.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := identity(r).Environment
		remote := utils.ClientIP(r, d.TrustProxy)

		select {
		case d.SweepTrigger <- env:
			d.Logger.Info("manual sweep triggered via endpoint",
				logger.String("environment", env.String()),
				logger.String("remote_ip", remote))
			writeJSON(w, http.StatusAccepted, messageResponse{Message: "sweep triggered"})
		default:
			d.Logger.Warn("sweep already pending",
				logger.String("environment", env.String()),
				logger.String("remote_ip", remote))
			writeError(w, http.StatusTooManyRequests, "sweep already pending, please wait")
		}
	}
}

// InstanceStatus checks a single instance of the caller's environment.
func InstanceStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instanceID, err := pathInt(r, "instanceID")
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		creds, err := queryCredentials(r, d.CLICredentials)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}
		detail, err := d.Sweeper.CheckInstanceByID(r.Context(), identity(r).Environment, instanceID, creds)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, instanceStatusResponse{Status: detail})
	}
}
