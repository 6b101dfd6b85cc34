package file

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// BulkEntry is one parsed "hostname:port:instance" line.
type BulkEntry struct {
	Hostname string
	Port     int
	Instance string
}

// ParseBulkEntry parses "hostname:port:instance". Anything after the third
// colon is ignored.
func ParseBulkEntry(s string) (BulkEntry, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 {
		return BulkEntry{}, fmt.Errorf("%w: expected hostname:port:instance, got %q", domain.ErrValidation, s)
	}

	hostname := strings.TrimSpace(parts[0])
	name := strings.TrimSpace(parts[2])
	if hostname == "" || name == "" {
		return BulkEntry{}, fmt.Errorf("%w: empty hostname or instance in %q", domain.ErrValidation, s)
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return BulkEntry{}, fmt.Errorf("%w: invalid port in %q", domain.ErrValidation, s)
	}
	if err := validatePort(port); err != nil {
		return BulkEntry{}, err
	}

	return BulkEntry{Hostname: hostname, Port: port, Instance: name}, nil
}

// BulkResult lists the hosts created or extended by a bulk import and the
// entries that could not be parsed.
type BulkResult struct {
	Hosts   []domain.Host `json:"hosts"`
	Skipped []string      `json:"skipped"`
}

// BulkAdd imports entries in one transaction. Entries naming an existing
// hostname are attached to that host; combinations that already exist are
// left alone.
func (s *Store) BulkAdd(env domain.Environment, entries []string) (BulkResult, error) {
	res := BulkResult{Hosts: []domain.Host{}, Skipped: []string{}}

	var parsed []BulkEntry
	for _, raw := range entries {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		e, err := ParseBulkEntry(raw)
		if err != nil {
			s.logger.Warn("skipping bulk entry", logger.String("entry", raw), logger.Error(err))
			res.Skipped = append(res.Skipped, raw)
			continue
		}
		parsed = append(parsed, e)
	}

	err := s.Update(env, func(doc *Document) error {
		var touched []int
		seen := map[int]bool{}

		for _, e := range parsed {
			h := doc.hostByName(e.Hostname)
			if h == nil {
				h = doc.newHost(e.Hostname)
			} else if h.HasInstance(e.Instance, e.Port) {
				continue
			}
			doc.newInstance(h, e.Instance, e.Port)
			if !seen[h.ID] {
				seen[h.ID] = true
				touched = append(touched, h.ID)
			}
		}

		// newHost may have grown the slice, so resolve ids only now.
		for _, id := range touched {
			for _, h := range doc.Hosts {
				if h.ID == id {
					res.Hosts = append(res.Hosts, h.Clone())
				}
			}
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}

	s.logger.Info("bulk import finished",
		logger.String("environment", env.String()),
		logger.Int("entries", len(entries)),
		logger.Int("hosts", len(res.Hosts)),
		logger.Int("skipped", len(res.Skipped)))
	return res, nil
}
