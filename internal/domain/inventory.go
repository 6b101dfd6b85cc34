package domain

// DefaultManagementPort is the application server's default management port.
const DefaultManagementPort = 9990

// Host is one machine in an environment partition.
//
// Host IDs are unique within the partition. Instance IDs are unique across
// every host of the partition, not just within their own host.
type Host struct {
	ID        int        `json:"id" yaml:"id"`
	Hostname  string     `json:"hostname" yaml:"hostname"`
	Instances []Instance `json:"instances" yaml:"instances"`
}

// Instance is one server process reachable at Host.Hostname:Port.
type Instance struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Port int    `json:"port" yaml:"port"`
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (h Host) Clone() Host {
	out := h
	out.Instances = make([]Instance, len(h.Instances))
	copy(out.Instances, h.Instances)
	return out
}

// HasInstance reports whether the host already runs an instance with the
// given name on the given port.
func (h Host) HasInstance(name string, port int) bool {
	for _, inst := range h.Instances {
		if inst.Name == name && inst.Port == port {
			return true
		}
	}
	return false
}

// Credentials are passed to the management CLI. Both fields must be set for
// them to be used.
type Credentials struct {
	Username string `json:"-"`
	Password string `json:"-"`
}

// IsSet reports whether both username and password are present.
func (c Credentials) IsSet() bool {
	return c.Username != "" && c.Password != ""
}

// Or returns c when set, otherwise fallback.
func (c Credentials) Or(fallback Credentials) Credentials {
	if c.IsSet() {
		return c
	}
	return fallback
}
