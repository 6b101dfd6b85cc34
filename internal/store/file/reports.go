package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/utils"
)

// DefaultRecentReports is the number of reports listed when no limit is
// given.
const DefaultRecentReports = 5

var reportIDPattern = regexp.MustCompile(`^(production|non-production)_(\d{8}T\d{6}\.\d{3}Z)$`)

func (s *Store) reportPath(id string) string {
	return filepath.Join(s.dir, reportsDir, id+".json")
}

// SaveReport archives a sweep. Reports are write-once: a second report
// with the same id fails with domain.ErrReportExists.
func (s *Store) SaveReport(env domain.Environment, results []domain.HostResult, createdBy string, now time.Time) (domain.ReportMetadata, error) {
	now = now.UTC().Truncate(time.Millisecond)
	if results == nil {
		results = []domain.HostResult{}
	}

	meta := domain.ReportMetadata{
		ID:          domain.ReportID(env, now),
		Timestamp:   now,
		Environment: env,
		HostCount:   len(results),
		CreatedBy:   createdBy,
	}
	report := domain.Report{
		Results:   results,
		CreatedBy: createdBy,
		Timestamp: now,
		Metadata:  meta,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return domain.ReportMetadata{}, fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := writeOnce(s.reportPath(meta.ID), data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domain.ReportMetadata{}, fmt.Errorf("report %s: %w", meta.ID, domain.ErrReportExists)
		}
		return domain.ReportMetadata{}, err
	}

	s.logger.Info("report saved",
		logger.String("report_id", meta.ID),
		logger.Int("hosts", meta.HostCount),
		logger.String("created_by", createdBy))
	return meta, nil
}

// writeOnce writes data to a temp file and links it into place, so path
// either does not exist or holds the complete content. It fails with
// fs.ErrExist when path is already taken.
func writeOnce(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		utils.Close(tmp)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Link(tmpName, path); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

// ArchiveReport saves a report for a finished sweep. Callers that shared
// one sweep carry the same finish time, so the first one writes the report
// and the others get its metadata back.
func (s *Store) ArchiveReport(env domain.Environment, results []domain.HostResult, createdBy string, finishedAt time.Time) (domain.ReportMetadata, error) {
	meta, err := s.SaveReport(env, results, createdBy, finishedAt)
	if !errors.Is(err, domain.ErrReportExists) {
		return meta, err
	}

	id := domain.ReportID(env, finishedAt.UTC().Truncate(time.Millisecond))
	existing, err := s.GetReport(id)
	if err != nil {
		return domain.ReportMetadata{}, fmt.Errorf("failed to load archived report: %w", err)
	}
	s.logger.Debug("report already archived for this sweep",
		logger.String("report_id", id),
		logger.String("created_by", createdBy))
	return existing.Metadata, nil
}

// reportIDs returns ids of stored reports, newest first. An empty env
// matches every environment.
func (s *Store) reportIDs(env domain.Environment) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, reportsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		m := reportIDPattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		if env != "" && m[1] != env.String() {
			continue
		}
		ids = append(ids, id)
	}

	// Newest first; the timestamp layout sorts lexically.
	sort.Slice(ids, func(i, j int) bool {
		return reportTimestamp(ids[i]) > reportTimestamp(ids[j])
	})
	return ids, nil
}

func reportTimestamp(id string) string {
	if m := reportIDPattern.FindStringSubmatch(id); m != nil {
		return m[2]
	}
	return ""
}

// RecentReports returns the metadata of the newest reports of env.
// limit <= 0 uses DefaultRecentReports. Unreadable files are skipped.
func (s *Store) RecentReports(env domain.Environment, limit int) ([]domain.ReportMetadata, error) {
	if limit <= 0 {
		limit = DefaultRecentReports
	}

	ids, err := s.reportIDs(env)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ReportMetadata, 0, min(limit, len(ids)))
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		r, err := s.GetReport(id)
		if err != nil {
			s.logger.Warn("skipping unreadable report", logger.String("report_id", id), logger.Error(err))
			continue
		}
		out = append(out, r.Metadata)
	}
	return out, nil
}

// GetReport loads a report by id.
func (s *Store) GetReport(id string) (domain.Report, error) {
	if !reportIDPattern.MatchString(id) {
		return domain.Report{}, fmt.Errorf("report %q: %w", id, domain.ErrNotFound)
	}

	data, err := os.ReadFile(s.reportPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Report{}, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
		}
		return domain.Report{}, fmt.Errorf("failed to read report: %w", err)
	}

	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Report{}, fmt.Errorf("failed to parse report %s: %w", id, err)
	}
	if r.Metadata.ID == "" {
		r.Metadata.ID = id
	}
	return r, nil
}

// PruneReports deletes reports older than cutoff and returns how many were
// removed.
func (s *Store) PruneReports(cutoff time.Time) (int, error) {
	ids, err := s.reportIDs("")
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		ts, err := time.Parse(domain.ReportTimestampLayout, reportTimestamp(id))
		if err != nil || !ts.Before(cutoff) {
			continue
		}
		if err := os.Remove(s.reportPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("failed to delete report %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}
