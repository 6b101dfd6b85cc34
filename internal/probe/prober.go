package probe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/jbosscli"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// Target is one instance's management endpoint.
type Target struct {
	Host        string
	Port        int
	Credentials domain.Credentials
}

// Prober queries a single instance.
//
// Implementations may return an error for unexpected failures; the
// aggregator turns those into "error" entries. Transport problems are
// expected and should be reported as data instead.
type Prober interface {
	Status(ctx context.Context, t Target) (domain.StatusResult, error)
	Datasources(ctx context.Context, t Target) ([]domain.DatasourceStatus, error)
	Deployments(ctx context.Context, t Target) ([]domain.DeploymentStatus, error)
}

// archiveSuffixes are the deployment names surfaced by Deployments.
var archiveSuffixes = []string{".war", ".ear"}

// CLIProber implements Prober on top of the management CLI.
type CLIProber struct {
	runner jbosscli.Runner
	logger logger.Logger
}

// NewCLIProber creates a prober using runner for every command.
func NewCLIProber(runner jbosscli.Runner, log logger.Logger) *CLIProber {
	return &CLIProber{runner: runner, logger: log}
}

func (p *CLIProber) run(ctx context.Context, t Target, command string) jbosscli.Result {
	return p.runner.Run(ctx, jbosscli.Request{
		Host:        t.Host,
		Port:        t.Port,
		Command:     command,
		Credentials: t.Credentials,
	})
}

// Status reads the server state. It never returns an error.
func (p *CLIProber) Status(ctx context.Context, t Target) (domain.StatusResult, error) {
	res := p.run(ctx, t, jbosscli.CmdServerState)

	if !res.OK {
		reason := domain.ReasonUnreachable
		if res.Kind == jbosscli.FailureTimeout {
			reason = domain.ReasonTimeout
		}
		return domain.StatusResult{
			Status:  domain.StatusOffline,
			Reason:  reason,
			Message: res.Message(),
		}, nil
	}

	if isRunning(res) {
		return domain.StatusResult{
			Status:  domain.StatusOnline,
			Reason:  domain.ReasonRunning,
			Message: "Server is running",
		}, nil
	}

	reason := domain.ReasonNotRunning
	if _, isObj := res.Object(); !isObj {
		if _, isText := res.Text(); !isText {
			reason = domain.ReasonMalformed
		}
	}
	return domain.StatusResult{
		Status:  domain.StatusOffline,
		Reason:  reason,
		Message: fmt.Sprintf("Unexpected response: %s", res.Raw),
	}, nil
}

func isRunning(res jbosscli.Result) bool {
	if obj, ok := res.Object(); ok {
		state, _ := obj["result"].(string)
		return state == "running"
	}
	if text, ok := res.Text(); ok {
		return strings.Contains(text, "running")
	}
	return false
}

// Datasources lists XA and non-XA datasources and tests each pool.
// A failed listing yields an empty slice; a failed test only marks that
// datasource as failed.
func (p *CLIProber) Datasources(ctx context.Context, t Target) ([]domain.DatasourceStatus, error) {
	res := p.run(ctx, t, jbosscli.CmdListDatasources)
	if !res.OK {
		p.logger.Error("failed to list datasources",
			logger.String("host", t.Host),
			logger.Int("port", t.Port),
			logger.String("error", res.Message()))
		return []domain.DatasourceStatus{}, nil
	}

	result, ok := resultObject(res)
	if !ok {
		p.logger.Warn("unexpected datasource listing payload",
			logger.String("host", t.Host),
			logger.Int("port", t.Port))
		return []domain.DatasourceStatus{}, nil
	}

	out := make([]domain.DatasourceStatus, 0)
	groups := []struct {
		resource string
		kind     string
	}{
		{jbosscli.ResourceDataSource, domain.DatasourceNonXA},
		{jbosscli.ResourceXADataSource, domain.DatasourceXA},
	}
	for _, g := range groups {
		entries, _ := result[g.resource].(map[string]any)
		for _, name := range sortedKeys(entries) {
			info, _ := entries[name].(map[string]any)
			ds := domain.DatasourceStatus{
				Name:     name,
				Kind:     g.kind,
				JNDIName: stringField(info, "jndi-name"),
				Driver:   stringField(info, "driver-name"),
				Enabled:  boolField(info, "enabled"),
			}

			test := p.run(ctx, t, jbosscli.CmdTestConnection(g.resource, name))
			ds.Connected = test.OK && test.Outcome() == "success"
			if ds.Connected {
				ds.Status = domain.DatasourceConnected
			} else {
				ds.Status = domain.DatasourceFailed
			}
			out = append(out, ds)
		}
	}
	return out, nil
}

// Deployments lists deployed archives. Only .war and .ear entries are
// reported; an entry is deployed when enabled with status "OK".
func (p *CLIProber) Deployments(ctx context.Context, t Target) ([]domain.DeploymentStatus, error) {
	res := p.run(ctx, t, jbosscli.CmdListDeployments)
	if !res.OK {
		p.logger.Error("failed to list deployments",
			logger.String("host", t.Host),
			logger.Int("port", t.Port),
			logger.String("error", res.Message()))
		return []domain.DeploymentStatus{}, nil
	}

	entries, ok := deploymentEntries(res)
	if !ok {
		p.logger.Warn("unexpected deployment listing payload",
			logger.String("host", t.Host),
			logger.Int("port", t.Port))
		return []domain.DeploymentStatus{}, nil
	}

	out := make([]domain.DeploymentStatus, 0, len(entries))
	for _, name := range sortedKeys(entries) {
		if !isArchive(name) {
			continue
		}
		info, _ := entries[name].(map[string]any)
		d := domain.DeploymentStatus{
			Name:        name,
			RuntimeName: stringField(info, "runtime-name"),
			Enabled:     boolField(info, "enabled"),
		}
		d.Deployed = d.Enabled && stringField(info, "status") == "OK"
		if d.Deployed {
			d.Status = domain.DeploymentDeployed
		} else {
			d.Status = domain.DeploymentFailed
		}
		out = append(out, d)
	}
	return out, nil
}

// deploymentEntries accepts both result shapes the CLI produces for a
// wildcard read: a map keyed by deployment name, or a list of
// {address, outcome, result} items.
func deploymentEntries(res jbosscli.Result) (map[string]any, bool) {
	obj, ok := res.Object()
	if !ok {
		return nil, false
	}
	switch v := obj["result"].(type) {
	case map[string]any:
		return v, true
	case []any:
		entries := make(map[string]any, len(v))
		for _, item := range v {
			step, _ := item.(map[string]any)
			info, _ := step["result"].(map[string]any)
			name := stringField(info, "name")
			if name == "" {
				continue
			}
			entries[name] = info
		}
		return entries, true
	default:
		return nil, false
	}
}

func resultObject(res jbosscli.Result) (map[string]any, bool) {
	obj, ok := res.Object()
	if !ok {
		return nil, false
	}
	result, ok := obj["result"].(map[string]any)
	return result, ok
}

func isArchive(name string) bool {
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
