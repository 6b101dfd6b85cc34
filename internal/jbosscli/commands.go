package jbosscli

import (
	"fmt"
	"strings"
)

// Management model operations used by the prober. The CLI's command
// language is treated as opaque beyond these strings.
const (
	CmdServerState     = ":read-attribute(name=server-state)"
	CmdListDatasources = "/subsystem=datasources:read-resource(recursive=true)"
	CmdListDeployments = "/deployment=*:read-resource(include-runtime=true)"

	testConnectionOp = "test-connection-in-pool"
)

// Resource types under the datasources subsystem.
const (
	ResourceDataSource   = "data-source"
	ResourceXADataSource = "xa-data-source"
)

// CmdTestConnection builds the pool connection test for one datasource.
// resource is ResourceDataSource or ResourceXADataSource.
func CmdTestConnection(resource, name string) string {
	return fmt.Sprintf("/subsystem=datasources/%s=%s:%s", resource, name, testConnectionOp)
}

// Command kinds, used as low-cardinality metric labels.
const (
	KindServerState     = "server-state"
	KindListDatasources = "list-datasources"
	KindTestConnection  = "test-connection"
	KindListDeployments = "list-deployments"
	KindOther           = "other"
)

// KindOf classifies a command string.
func KindOf(command string) string {
	switch {
	case command == CmdServerState:
		return KindServerState
	case strings.Contains(command, testConnectionOp):
		return KindTestConnection
	case strings.Contains(command, "/subsystem=datasources:read-resource"):
		return KindListDatasources
	case strings.Contains(command, "/deployment=*:read-resource"):
		return KindListDeployments
	default:
		return KindOther
	}
}

// datasourceFromTestCommand extracts the datasource name from a command
// built by CmdTestConnection.
func datasourceFromTestCommand(command string) string {
	head, _, found := strings.Cut(command, ":"+testConnectionOp)
	if !found {
		return ""
	}
	if i := strings.LastIndexByte(head, '='); i >= 0 {
		return head[i+1:]
	}
	return ""
}
