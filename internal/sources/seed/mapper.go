package seed

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/store/file"
)

// Entries flattens an environment's seed into "hostname:port:instance"
// entries. Hosts without a hostname and instances without a name are
// dropped.
func (e EnvironmentSeed) Entries() []string {
	var out []string
	for _, h := range e.Hosts {
		hostname := strings.TrimSpace(h.Hostname)
		if hostname == "" {
			continue
		}
		for _, inst := range h.Instances {
			name := strings.TrimSpace(inst.Name)
			if name == "" {
				continue
			}
			port := inst.Port
			if port == 0 {
				port = domain.DefaultManagementPort
			}
			out = append(out, fmt.Sprintf("%s:%d:%s", hostname, port, name))
		}
	}
	return append(out, e.Lines...)
}

// For returns the seed of env.
func (f File) For(env domain.Environment) EnvironmentSeed {
	if env == domain.Production {
		return f.Production
	}
	return f.NonProduction
}

// BulkAdder imports bulk entries into an environment.
type BulkAdder interface {
	BulkAdd(env domain.Environment, entries []string) (file.BulkResult, error)
}

// Import loads path and merges it into the inventory. Importing the same
// file twice adds nothing the second time.
func Import(path string, store BulkAdder, log logger.Logger) error {
	f, err := NewLoader(path).Load()
	if err != nil {
		return err
	}

	for _, env := range domain.Environments() {
		entries := f.For(env).Entries()
		if len(entries) == 0 {
			continue
		}
		res, err := store.BulkAdd(env, entries)
		if err != nil {
			return fmt.Errorf("failed to import %s seed: %w", env, err)
		}
		log.Info("seed imported",
			logger.String("environment", env.String()),
			logger.Int("entries", len(entries)),
			logger.Int("hosts_touched", len(res.Hosts)),
			logger.Int("skipped", len(res.Skipped)))
	}
	return nil
}
