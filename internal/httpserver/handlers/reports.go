package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/store/file"
)

const maxReportLimit = 100

type reportsResponse struct {
	Reports []domain.ReportMetadata `json:"reports"`
}

type reportResponse struct {
	Report domain.Report `json:"report"`
}

func ListReports(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := file.DefaultRecentReports
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxReportLimit)
		}

		reports, err := d.Store.RecentReports(identity(r).Environment, limit)
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, reportsResponse{Reports: reports})
	}
}

// GetReport returns one archived report. Reports of the other environment
// are reported as missing.
func GetReport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := d.Store.GetReport(chi.URLParam(r, "reportID"))
		if err != nil {
			writeStoreError(w, d.Logger, err)
			return
		}
		if report.Metadata.Environment != identity(r).Environment {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		writeJSON(w, http.StatusOK, reportResponse{Report: report})
	}
}
