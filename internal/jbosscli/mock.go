package jbosscli

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// Canned documents, kept as JSON text so they go through the same decoding
// path as real tool output.
const (
	mockRunning = `{"outcome":"success","result":"running"}`

	mockDatasources = `{
  "outcome": "success",
  "result": {
    "data-source": {
      "MainDS": {"jndi-name": "java:jboss/datasources/MainDS", "driver-name": "mysql", "enabled": true},
      "ReportingDS": {"jndi-name": "java:jboss/datasources/ReportingDS", "driver-name": "oracle", "enabled": true}
    },
    "xa-data-source": {
      "TransactionDS": {"jndi-name": "java:jboss/datasources/TransactionDS", "driver-name": "postgresql", "enabled": true}
    }
  }
}`

	mockDeployments = `{
  "outcome": "success",
  "result": {
    "app.war": {"runtime-name": "app.war", "enabled": true, "status": "OK"},
    "admin.war": {"runtime-name": "admin.war", "enabled": true, "status": "OK"},
    "api.war": {"runtime-name": "api.war", "enabled": %t, "status": %q}
  }
}`

	mockConnectionOK = `{"outcome":"success"}`
	mockDefault      = `{"outcome":"success","result":"Command executed in mock mode"}`
)

// MockRunner answers commands with canned output so the service can run
// without the management tool installed. Answers vary per target but are
// stable for a given host, port and datasource.
type MockRunner struct {
	logger logger.Logger
}

// NewMockRunner creates an offline runner.
func NewMockRunner(log logger.Logger) *MockRunner {
	return &MockRunner{logger: log}
}

func (m *MockRunner) Run(_ context.Context, req Request) Result {
	m.logger.Debug("mock cli command",
		logger.String("controller", req.Controller()),
		logger.String("command", req.Command))

	switch KindOf(req.Command) {
	case KindServerState:
		// ~80% of targets are online.
		if bucket(req.Controller()) < 8 {
			return Success(mockRunning)
		}
		return Failure(FailureExit, "Failed to connect to the controller")

	case KindListDatasources:
		return Success(mockDatasources)

	case KindTestConnection:
		name := datasourceFromTestCommand(req.Command)
		if bucket(req.Controller()+"/"+name) >= 2 {
			return Success(mockConnectionOK)
		}
		return Failure(FailureExit, fmt.Sprintf(
			`{"outcome":"failed","failure-description":"Could not connect to %s"}`, name))

	case KindListDeployments:
		b := bucket(req.Controller() + "/api.war")
		status := "OK"
		if b%3 == 0 {
			status = "FAILED"
		}
		return Success(fmt.Sprintf(mockDeployments, b%4 != 0, status))

	default:
		return Success(mockDefault)
	}
}

// bucket hashes key into [0, 10).
func bucket(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % 10
}
