package handlers

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/store/file"
)

type hostsResponse struct {
	Hosts []domain.Host `json:"hosts"`
}

type hostResponse struct {
	Host domain.Host `json:"host"`
}

type instanceResponse struct {
	Instance domain.Instance `json:"instance"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type bulkRequest struct {
	Hosts []string `json:"hosts"`
}

type duplicateRequest struct {
	Hostname     string `json:"hostname"`
	Port         int    `json:"port"`
	InstanceName string `json:"instance_name"`
}

type duplicateResponse struct {
	Duplicate bool   `json:"duplicate"`
	Message   string `json:"message,omitempty"`
}

// ListHosts returns the caller's environment inventory.
func ListHosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hosts, err := d.Store.ListHosts(identity(r).Environment)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, hostsResponse{Hosts: hosts})
	}
}

// AddHost creates a host. A duplicate hostname/instance pair returns the
// existing host with 200 instead of 201.
func AddHost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in file.HostInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		host, created, err := d.Store.AddHost(identity(r).Environment, in)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		status := http.StatusCreated
		if !created {
			status = http.StatusOK
		}
		writeJSON(w, status, hostResponse{Host: host})
	}
}

// BulkAddHosts imports "hostname:port:instance" lines.
func BulkAddHosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := d.Store.BulkAdd(identity(r).Environment, req.Hosts)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// CheckDuplicate tells the UI whether a hostname already runs an instance
// with the given name and port.
func CheckDuplicate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req duplicateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		dup, err := d.Store.IsDuplicate(identity(r).Environment, req.Hostname, req.Port, req.InstanceName)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		resp := duplicateResponse{Duplicate: dup}
		if dup {
			resp.Message = fmt.Sprintf("Host %s with instance %s on port %d already exists.",
				req.Hostname, req.InstanceName, req.Port)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func DeleteHost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostID, err := pathInt(r, "hostID")
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		env := identity(r).Environment
		if err := d.Store.DeleteHost(env, hostID); err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		d.Logger.Info("host deleted",
			logger.String("environment", env.String()),
			logger.Int("host_id", hostID))
		writeJSON(w, http.StatusOK, messageResponse{Message: "host deleted"})
	}
}

func AddInstance(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostID, err := pathInt(r, "hostID")
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		var in file.InstanceInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		inst, err := d.Store.AddInstance(identity(r).Environment, hostID, in)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, instanceResponse{Instance: inst})
	}
}

func DeleteInstance(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instanceID, err := pathInt(r, "instanceID")
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		env := identity(r).Environment
		if err := d.Store.DeleteInstance(env, instanceID); err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}

		d.Logger.Info("instance deleted",
			logger.String("environment", env.String()),
			logger.Int("instance_id", instanceID))
		writeJSON(w, http.StatusOK, messageResponse{Message: "instance deleted"})
	}
}
