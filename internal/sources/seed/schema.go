package seed

// File is the top-level structure of the seed YAML. Each environment lists
// hosts in structured form, as "hostname:port:instance" entries, or both.
type File struct {
	Production    EnvironmentSeed `yaml:"production"`
	NonProduction EnvironmentSeed `yaml:"non-production"`
}

// EnvironmentSeed holds the hosts of one environment.
type EnvironmentSeed struct {
	Hosts   []HostSeed `yaml:"hosts"`
	Lines   []string   `yaml:"entries,omitempty"`
}

// HostSeed is one host with its instances.
type HostSeed struct {
	Hostname  string         `yaml:"hostname"`
	Instances []InstanceSeed `yaml:"instances"`
}

// InstanceSeed is one instance. A zero port means the default management
// port.
type InstanceSeed struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port,omitempty"`
}
