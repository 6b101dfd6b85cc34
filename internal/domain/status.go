package domain

// Status is the externally visible health of an instance.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

// Reason refines Status without widening the public enumeration: an
// offline instance may be stopped, unreachable, or slow to answer.
type Reason string

const (
	ReasonRunning     Reason = "running"
	ReasonNotRunning  Reason = "not_running"
	ReasonUnreachable Reason = "unreachable"
	ReasonTimeout     Reason = "timeout"
	ReasonMalformed   Reason = "malformed"
	ReasonProbeError  Reason = "probe_error"
)

// StatusResult is the outcome of a single server-state probe.
type StatusResult struct {
	Status  Status `json:"status"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message"`
}

// Datasource kinds as reported by the datasources subsystem.
const (
	DatasourceNonXA = "non-xa"
	DatasourceXA    = "xa"
)

const (
	DatasourceConnected = "connected"
	DatasourceFailed    = "failed"

	DeploymentDeployed = "deployed"
	DeploymentFailed   = "failed"
)

// DatasourceStatus describes one configured datasource and the result of
// its pool connection test.
type DatasourceStatus struct {
	Name      string `json:"name"`
	Kind      string `json:"type"`
	JNDIName  string `json:"jndi_name"`
	Driver    string `json:"driver"`
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Status    string `json:"status"`
}

// DeploymentStatus describes one deployed archive.
type DeploymentStatus struct {
	Name        string `json:"name"`
	RuntimeName string `json:"runtime_name"`
	Enabled     bool   `json:"enabled"`
	Deployed    bool   `json:"deployed"`
	Status      string `json:"status"`
}

// InstanceResult is one instance's entry in a sweep tree.
type InstanceResult struct {
	ID            int                `json:"id"`
	Name          string             `json:"name"`
	Port          int                `json:"port"`
	Status        Status             `json:"status"`
	Reason        Reason             `json:"reason,omitempty"`
	StatusMessage string             `json:"statusMessage"`
	Datasources   []DatasourceStatus `json:"datasources"`
	WarFiles      []DeploymentStatus `json:"warFiles"`
}

// HostResult groups instance results for one host. Status is only set when
// the host itself could not be checked.
type HostResult struct {
	ID            int              `json:"id"`
	Hostname      string           `json:"hostname"`
	Status        Status           `json:"status,omitempty"`
	StatusMessage string           `json:"statusMessage,omitempty"`
	Instances     []InstanceResult `json:"instances"`
}

// HostRef and InstanceRef identify the target of a single-instance check.
type HostRef struct {
	ID       int    `json:"id"`
	Hostname string `json:"hostname"`
}

type InstanceRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Port int    `json:"port"`
}

// InstanceDetail is the response shape of a single-instance check.
type InstanceDetail struct {
	Host          HostRef            `json:"host"`
	Instance      InstanceRef        `json:"instance"`
	Status        Status             `json:"status"`
	Reason        Reason             `json:"reason,omitempty"`
	StatusMessage string             `json:"statusMessage"`
	Datasources   []DatasourceStatus `json:"datasources"`
	WarFiles      []DeploymentStatus `json:"warFiles"`
}

// Detail re-shapes an instance result for the single-instance endpoint.
func (r InstanceResult) Detail(h Host) InstanceDetail {
	return InstanceDetail{
		Host:          HostRef{ID: h.ID, Hostname: h.Hostname},
		Instance:      InstanceRef{ID: r.ID, Name: r.Name, Port: r.Port},
		Status:        r.Status,
		Reason:        r.Reason,
		StatusMessage: r.StatusMessage,
		Datasources:   r.Datasources,
		WarFiles:      r.WarFiles,
	}
}
