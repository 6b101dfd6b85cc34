package probe

import (
	"context"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/jbosscli"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// scriptedRunner answers each command with a fixed result and records calls.
type scriptedRunner struct {
	mu        sync.Mutex
	responses map[string]jbosscli.Result
	calls     []jbosscli.Request
}

func (s *scriptedRunner) Run(_ context.Context, req jbosscli.Request) jbosscli.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if res, ok := s.responses[req.Command]; ok {
		return res
	}
	return jbosscli.Failure(jbosscli.FailureExit, "unknown command")
}

func newProber(responses map[string]jbosscli.Result) (*CLIProber, *scriptedRunner) {
	r := &scriptedRunner{responses: responses}
	return NewCLIProber(r, logger.New("error", false)), r
}

var target = Target{Host: "h1", Port: 9990, Credentials: domain.Credentials{Username: "u", Password: "p"}}

func TestStatus(t *testing.T) {
	tests := []struct {
		name           string
		result         jbosscli.Result
		expectedStatus domain.Status
		expectedReason domain.Reason
		expectedMsg    string
	}{
		{
			name:           "running json",
			result:         jbosscli.Success(`{"outcome":"success","result":"running"}`),
			expectedStatus: domain.StatusOnline,
			expectedReason: domain.ReasonRunning,
			expectedMsg:    "Server is running",
		},
		{
			name:           "running text",
			result:         jbosscli.Success(`{"outcome" => "success", "result" => "running"}`),
			expectedStatus: domain.StatusOnline,
			expectedReason: domain.ReasonRunning,
			expectedMsg:    "Server is running",
		},
		{
			name:           "reload required",
			result:         jbosscli.Success(`{"outcome":"success","result":"reload-required"}`),
			expectedStatus: domain.StatusOffline,
			expectedReason: domain.ReasonNotRunning,
			expectedMsg:    `Unexpected response: {"outcome":"success","result":"reload-required"}`,
		},
		{
			name:           "array payload",
			result:         jbosscli.Success(`[1,2,3]`),
			expectedStatus: domain.StatusOffline,
			expectedReason: domain.ReasonMalformed,
			expectedMsg:    "Unexpected response: [1,2,3]",
		},
		{
			name:           "connection refused",
			result:         jbosscli.Failure(jbosscli.FailureExit, "Failed to connect to the controller"),
			expectedStatus: domain.StatusOffline,
			expectedReason: domain.ReasonUnreachable,
			expectedMsg:    "Failed to connect to the controller",
		},
		{
			name:           "timeout",
			result:         jbosscli.Failure(jbosscli.FailureTimeout, "timeout after 30s"),
			expectedStatus: domain.StatusOffline,
			expectedReason: domain.ReasonTimeout,
			expectedMsg:    "timeout after 30s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newProber(map[string]jbosscli.Result{jbosscli.CmdServerState: tt.result})
			got, err := p.Status(context.Background(), target)
			if err != nil {
				t.Fatalf("Status() error = %v, want nil", err)
			}
			if got.Status != tt.expectedStatus || got.Reason != tt.expectedReason {
				t.Errorf("Status() = %s/%s, want %s/%s", got.Status, got.Reason, tt.expectedStatus, tt.expectedReason)
			}
			if got.Message != tt.expectedMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.expectedMsg)
			}
		})
	}
}

func TestStatusPassesCredentials(t *testing.T) {
	p, r := newProber(map[string]jbosscli.Result{
		jbosscli.CmdServerState: jbosscli.Success(`{"result":"running"}`),
	})
	_, _ = p.Status(context.Background(), target)

	if len(r.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(r.calls))
	}
	if r.calls[0].Credentials != target.Credentials || r.calls[0].Controller() != "h1:9990" {
		t.Errorf("request = %+v, want target credentials and controller", r.calls[0])
	}
}

const datasourceListing = `{
  "outcome": "success",
  "result": {
    "data-source": {
      "ReportingDS": {"jndi-name": "java:/ReportingDS", "driver-name": "oracle", "enabled": true},
      "MainDS": {"jndi-name": "java:/MainDS", "driver-name": "mysql", "enabled": false}
    },
    "xa-data-source": {
      "TxDS": {"jndi-name": "java:/TxDS", "driver-name": "postgresql", "enabled": true}
    }
  }
}`

func TestDatasources(t *testing.T) {
	p, r := newProber(map[string]jbosscli.Result{
		jbosscli.CmdListDatasources: jbosscli.Success(datasourceListing),
		jbosscli.CmdTestConnection(jbosscli.ResourceDataSource, "MainDS"):      jbosscli.Success(`{"outcome":"success"}`),
		jbosscli.CmdTestConnection(jbosscli.ResourceDataSource, "ReportingDS"): jbosscli.Failure(jbosscli.FailureExit, `{"outcome":"failed"}`),
		jbosscli.CmdTestConnection(jbosscli.ResourceXADataSource, "TxDS"):      jbosscli.Success(`{"outcome":"success"}`),
	})

	got, err := p.Datasources(context.Background(), target)
	if err != nil {
		t.Fatalf("Datasources() error = %v", err)
	}

	expected := []domain.DatasourceStatus{
		{Name: "MainDS", Kind: "non-xa", JNDIName: "java:/MainDS", Driver: "mysql", Enabled: false, Connected: true, Status: "connected"},
		{Name: "ReportingDS", Kind: "non-xa", JNDIName: "java:/ReportingDS", Driver: "oracle", Enabled: true, Connected: false, Status: "failed"},
		{Name: "TxDS", Kind: "xa", JNDIName: "java:/TxDS", Driver: "postgresql", Enabled: true, Connected: true, Status: "connected"},
	}
	if len(got) != len(expected) {
		t.Fatalf("Datasources() returned %d entries, want %d: %+v", len(got), len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], expected[i])
		}
	}

	// one listing + one test per datasource
	if len(r.calls) != 4 {
		t.Errorf("expected 4 cli calls, got %d", len(r.calls))
	}
}

func TestDatasourcesListingFailure(t *testing.T) {
	p, r := newProber(map[string]jbosscli.Result{
		jbosscli.CmdListDatasources: jbosscli.Failure(jbosscli.FailureExit, "boom"),
	})

	got, err := p.Datasources(context.Background(), target)
	if err != nil {
		t.Fatalf("Datasources() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Datasources() = %#v, want empty non-nil slice", got)
	}
	if len(r.calls) != 1 {
		t.Errorf("no connection tests expected after a failed listing, got %d calls", len(r.calls))
	}
}

func TestDatasourcesTextPayload(t *testing.T) {
	p, _ := newProber(map[string]jbosscli.Result{
		jbosscli.CmdListDatasources: jbosscli.Success("not json at all"),
	})
	got, _ := p.Datasources(context.Background(), target)
	if len(got) != 0 {
		t.Errorf("Datasources() = %+v, want empty for text payload", got)
	}
}

func TestDeployments(t *testing.T) {
	p, _ := newProber(map[string]jbosscli.Result{
		jbosscli.CmdListDeployments: jbosscli.Success(`{
  "outcome": "success",
  "result": {
    "app.war": {"runtime-name": "app.war", "enabled": true, "status": "OK"},
    "billing.ear": {"runtime-name": "billing.ear", "enabled": true, "status": "FAILED"},
    "api.war": {"runtime-name": "api-1.2.war", "enabled": false, "status": "OK"},
    "postgresql.jar": {"runtime-name": "postgresql.jar", "enabled": true, "status": "OK"}
  }
}`),
	})

	got, err := p.Deployments(context.Background(), target)
	if err != nil {
		t.Fatalf("Deployments() error = %v", err)
	}

	expected := []domain.DeploymentStatus{
		{Name: "api.war", RuntimeName: "api-1.2.war", Enabled: false, Deployed: false, Status: "failed"},
		{Name: "app.war", RuntimeName: "app.war", Enabled: true, Deployed: true, Status: "deployed"},
		{Name: "billing.ear", RuntimeName: "billing.ear", Enabled: true, Deployed: false, Status: "failed"},
	}
	if len(got) != len(expected) {
		t.Fatalf("Deployments() returned %d entries, want %d: %+v", len(got), len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], expected[i])
		}
	}
}

func TestDeploymentsListShape(t *testing.T) {
	p, _ := newProber(map[string]jbosscli.Result{
		jbosscli.CmdListDeployments: jbosscli.Success(`{
  "outcome": "success",
  "result": [
    {"address": [{"deployment": "app.war"}], "outcome": "success",
     "result": {"name": "app.war", "runtime-name": "app.war", "enabled": true, "status": "OK"}}
  ]
}`),
	})

	got, _ := p.Deployments(context.Background(), target)
	if len(got) != 1 || !got[0].Deployed {
		t.Errorf("Deployments() = %+v, want one deployed app.war", got)
	}
}

func TestDeploymentsListingFailure(t *testing.T) {
	p, _ := newProber(map[string]jbosscli.Result{
		jbosscli.CmdListDeployments: jbosscli.Failure(jbosscli.FailureTimeout, "timeout after 30s"),
	})
	got, err := p.Deployments(context.Background(), target)
	if err != nil {
		t.Fatalf("Deployments() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Deployments() = %#v, want empty non-nil slice", got)
	}
}

func TestCLIProberAgainstMockRunner(t *testing.T) {
	log := logger.New("error", false)
	p := NewCLIProber(jbosscli.NewMockRunner(log), log)
	ctx := context.Background()

	ds, _ := p.Datasources(ctx, target)
	if len(ds) != 3 {
		t.Errorf("mock datasources = %d entries, want 3", len(ds))
	}

	deps, _ := p.Deployments(ctx, target)
	if len(deps) != 3 {
		t.Errorf("mock deployments = %d entries, want 3", len(deps))
	}
}
