package domain

import (
	"fmt"
	"time"
)

// ReportTimestampLayout is used both in report IDs and file names, so it
// must stay filesystem-safe and sortable.
const ReportTimestampLayout = "20060102T150405.000Z"

// ReportMetadata is the index entry of an archived sweep.
type ReportMetadata struct {
	ID          string      `json:"id"`
	Timestamp   time.Time   `json:"timestamp"`
	Environment Environment `json:"environment"`
	HostCount   int         `json:"hostCount"`
	CreatedBy   string      `json:"createdBy"`
}

// Report is an archived sweep. It is never rewritten once stored.
type Report struct {
	Results   []HostResult   `json:"results"`
	CreatedBy string         `json:"createdBy"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  ReportMetadata `json:"metadata"`
}

// ReportID returns the "{environment}_{timestamp}" key of a report.
func ReportID(env Environment, ts time.Time) string {
	return fmt.Sprintf("%s_%s", env, ts.UTC().Format(ReportTimestampLayout))
}
