package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/utils"
)

const reportsDir = "reports"

// Document is the on-disk shape of one environment's inventory.
type Document struct {
	NextHostID     int           `json:"next_host_id"`
	NextInstanceID int           `json:"next_instance_id"`
	Hosts          []domain.Host `json:"hosts"`
}

// Store keeps each environment's inventory in its own JSON file.
type Store struct {
	dir    string
	logger logger.Logger
	locks  map[domain.Environment]*sync.Mutex
}

// NewStore creates the storage directory and any missing inventory files.
func NewStore(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, reportsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	s := &Store{
		dir:    dir,
		logger: log,
		locks:  make(map[domain.Environment]*sync.Mutex),
	}
	for _, env := range domain.Environments() {
		s.locks[env] = &sync.Mutex{}

		path := s.path(env)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := writeDocument(path, &Document{Hosts: []domain.Host{}}); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// Dir returns the storage root.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(env domain.Environment) string {
	return filepath.Join(s.dir, env.FileStem()+"_hosts.json")
}

// View runs fn against a read-only copy of env's hosts.
func (s *Store) View(env domain.Environment, fn func(hosts []domain.Host) error) error {
	mu, ok := s.locks[env]
	if !ok {
		return fmt.Errorf("%w: unknown environment %q", domain.ErrValidation, env)
	}
	mu.Lock()
	defer mu.Unlock()

	doc, err := readDocument(s.path(env))
	if err != nil {
		return err
	}
	return fn(doc.Hosts)
}

// Update runs fn against env's document and persists the result only when
// fn returns nil. Reads and writes for one environment are serialized.
func (s *Store) Update(env domain.Environment, fn func(doc *Document) error) error {
	mu, ok := s.locks[env]
	if !ok {
		return fmt.Errorf("%w: unknown environment %q", domain.ErrValidation, env)
	}
	mu.Lock()
	defer mu.Unlock()

	path := s.path(env)
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return writeDocument(path, doc)
}

func readDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Document{Hosts: []domain.Host{}}, nil
		}
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}

	doc := &Document{}
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "":
	case strings.HasPrefix(trimmed, "["):
		// Legacy layout: a bare array of hosts without counters.
		if err := json.Unmarshal(data, &doc.Hosts); err != nil {
			return nil, fmt.Errorf("failed to parse inventory file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to parse inventory file: %w", err)
		}
	}

	doc.normalize()
	return doc, nil
}

// normalize fills nil slices and makes sure the counters are ahead of every
// id already in use.
func (d *Document) normalize() {
	if d.Hosts == nil {
		d.Hosts = []domain.Host{}
	}
	maxHost, maxInst := 0, 0
	for i := range d.Hosts {
		if d.Hosts[i].Instances == nil {
			d.Hosts[i].Instances = []domain.Instance{}
		}
		maxHost = max(maxHost, d.Hosts[i].ID)
		for _, inst := range d.Hosts[i].Instances {
			maxInst = max(maxInst, inst.ID)
		}
	}
	d.NextHostID = max(d.NextHostID, maxHost+1)
	d.NextInstanceID = max(d.NextInstanceID, maxInst+1)
}

func writeDocument(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		utils.Close(tmp)
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace inventory file: %w", err)
	}
	return nil
}

func (d *Document) newHost(hostname string) *domain.Host {
	d.Hosts = append(d.Hosts, domain.Host{
		ID:        d.NextHostID,
		Hostname:  hostname,
		Instances: []domain.Instance{},
	})
	d.NextHostID++
	return &d.Hosts[len(d.Hosts)-1]
}

func (d *Document) newInstance(h *domain.Host, name string, port int) domain.Instance {
	inst := domain.Instance{ID: d.NextInstanceID, Name: name, Port: port}
	d.NextInstanceID++
	h.Instances = append(h.Instances, inst)
	return inst
}

func (d *Document) hostByName(hostname string) *domain.Host {
	for i := range d.Hosts {
		if d.Hosts[i].Hostname == hostname {
			return &d.Hosts[i]
		}
	}
	return nil
}

// ListHosts returns a copy of every host in env.
func (s *Store) ListHosts(env domain.Environment) ([]domain.Host, error) {
	var out []domain.Host
	err := s.View(env, func(hosts []domain.Host) error {
		out = make([]domain.Host, len(hosts))
		for i, h := range hosts {
			out[i] = h.Clone()
		}
		return nil
	})
	return out, err
}

// GetHost returns the host with the given id.
func (s *Store) GetHost(env domain.Environment, hostID int) (domain.Host, error) {
	var out domain.Host
	err := s.View(env, func(hosts []domain.Host) error {
		for _, h := range hosts {
			if h.ID == hostID {
				out = h.Clone()
				return nil
			}
		}
		return fmt.Errorf("host %d: %w", hostID, domain.ErrNotFound)
	})
	return out, err
}

// FindInstance returns the instance with the given id and the host that
// owns it.
func (s *Store) FindInstance(env domain.Environment, instanceID int) (domain.Host, domain.Instance, error) {
	var (
		host domain.Host
		inst domain.Instance
	)
	err := s.View(env, func(hosts []domain.Host) error {
		for _, h := range hosts {
			for _, candidate := range h.Instances {
				if candidate.ID == instanceID {
					host, inst = h.Clone(), candidate
					return nil
				}
			}
		}
		return fmt.Errorf("instance %d: %w", instanceID, domain.ErrNotFound)
	})
	return host, inst, err
}

// InstanceInput describes an instance to create.
type InstanceInput struct {
	Name string `json:"name"`
	Port int    `json:"port"`
}

// HostInput describes a host to create.
type HostInput struct {
	Hostname  string          `json:"hostname"`
	Instances []InstanceInput `json:"instances"`
}

// normalize expands the "hostname port instance name" shorthand and applies
// the default port.
func (in HostInput) normalize() (HostInput, error) {
	out := HostInput{Hostname: strings.TrimSpace(in.Hostname)}
	out.Instances = append(out.Instances, in.Instances...)

	if fields := strings.Fields(out.Hostname); len(fields) >= 3 {
		port, err := strconv.Atoi(fields[1])
		if err != nil {
			return HostInput{}, fmt.Errorf("%w: invalid port %q in %q", domain.ErrValidation, fields[1], in.Hostname)
		}
		out.Hostname = fields[0]
		out.Instances = append(out.Instances, InstanceInput{Name: strings.Join(fields[2:], " "), Port: port})
	}

	if out.Hostname == "" {
		return HostInput{}, fmt.Errorf("%w: hostname is required", domain.ErrValidation)
	}
	if strings.ContainsAny(out.Hostname, " \t") {
		return HostInput{}, fmt.Errorf("%w: invalid hostname %q", domain.ErrValidation, out.Hostname)
	}
	for i := range out.Instances {
		if out.Instances[i].Port == 0 {
			out.Instances[i].Port = domain.DefaultManagementPort
		}
		if err := validatePort(out.Instances[i].Port); err != nil {
			return HostInput{}, err
		}
	}
	return out, nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrValidation, port)
	}
	return nil
}

// AddHost creates a host with its instances. When a host with the same
// hostname already runs one of the requested name/port pairs, that host is
// returned unchanged with created set to false.
func (s *Store) AddHost(env domain.Environment, in HostInput) (domain.Host, bool, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Host{}, false, err
	}

	var (
		out     domain.Host
		created bool
	)
	errExisting := errors.New("existing")

	err = s.Update(env, func(doc *Document) error {
		for _, h := range doc.Hosts {
			if h.Hostname != in.Hostname {
				continue
			}
			for _, inst := range in.Instances {
				if h.HasInstance(inst.Name, inst.Port) {
					out = h.Clone()
					return errExisting
				}
			}
		}

		h := doc.newHost(in.Hostname)
		for _, inst := range in.Instances {
			doc.newInstance(h, inst.Name, inst.Port)
		}
		out, created = h.Clone(), true
		return nil
	})
	if errors.Is(err, errExisting) {
		s.logger.Info("duplicate host entry, returning existing host",
			logger.String("environment", env.String()),
			logger.String("hostname", in.Hostname),
			logger.Int("host_id", out.ID))
		return out, false, nil
	}
	if err != nil {
		return domain.Host{}, false, err
	}

	s.logger.Info("host added",
		logger.String("environment", env.String()),
		logger.String("hostname", out.Hostname),
		logger.Int("host_id", out.ID),
		logger.Int("instances", len(out.Instances)))
	return out, created, nil
}

// AddInstance appends an instance to an existing host.
func (s *Store) AddInstance(env domain.Environment, hostID int, in InstanceInput) (domain.Instance, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Instance{}, fmt.Errorf("%w: instance name is required", domain.ErrValidation)
	}
	if in.Port == 0 {
		in.Port = domain.DefaultManagementPort
	}
	if err := validatePort(in.Port); err != nil {
		return domain.Instance{}, err
	}

	var out domain.Instance
	err := s.Update(env, func(doc *Document) error {
		for i := range doc.Hosts {
			if doc.Hosts[i].ID == hostID {
				out = doc.newInstance(&doc.Hosts[i], in.Name, in.Port)
				return nil
			}
		}
		return fmt.Errorf("host %d: %w", hostID, domain.ErrNotFound)
	})
	if err != nil {
		return domain.Instance{}, err
	}

	s.logger.Info("instance added",
		logger.String("environment", env.String()),
		logger.Int("host_id", hostID),
		logger.Int("instance_id", out.ID),
		logger.String("name", out.Name),
		logger.Int("port", out.Port))
	return out, nil
}

// DeleteHost removes a host and all of its instances.
func (s *Store) DeleteHost(env domain.Environment, hostID int) error {
	return s.Update(env, func(doc *Document) error {
		for i, h := range doc.Hosts {
			if h.ID == hostID {
				doc.Hosts = append(doc.Hosts[:i], doc.Hosts[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("host %d: %w", hostID, domain.ErrNotFound)
	})
}

// DeleteInstance removes one instance from whichever host owns it.
func (s *Store) DeleteInstance(env domain.Environment, instanceID int) error {
	return s.Update(env, func(doc *Document) error {
		for i := range doc.Hosts {
			instances := doc.Hosts[i].Instances
			for j, inst := range instances {
				if inst.ID == instanceID {
					doc.Hosts[i].Instances = append(instances[:j], instances[j+1:]...)
					return nil
				}
			}
		}
		return fmt.Errorf("instance %d: %w", instanceID, domain.ErrNotFound)
	})
}

// IsDuplicate reports whether hostname already runs an instance named name
// on port.
func (s *Store) IsDuplicate(env domain.Environment, hostname string, port int, name string) (bool, error) {
	var dup bool
	err := s.View(env, func(hosts []domain.Host) error {
		for _, h := range hosts {
			if h.Hostname == hostname && h.HasInstance(name, port) {
				dup = true
				return nil
			}
		}
		return nil
	})
	return dup, err
}
