package file

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), logger.New("error", false))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestNewStoreCreatesFiles(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"production_hosts.json", "nonproduction_hosts.json"} {
		if _, err := os.Stat(filepath.Join(s.Dir(), name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
	if fi, err := os.Stat(filepath.Join(s.Dir(), "reports")); err != nil || !fi.IsDir() {
		t.Errorf("reports dir not created: %v", err)
	}

	hosts, err := s.ListHosts(domain.Production)
	if err != nil {
		t.Fatalf("ListHosts() error = %v", err)
	}
	if hosts == nil || len(hosts) != 0 {
		t.Errorf("ListHosts() = %#v, want empty slice", hosts)
	}
}

func TestAddHost(t *testing.T) {
	tests := []struct {
		name      string
		input     HostInput
		wantName  string
		wantInsts []domain.Instance
		wantErr   error
	}{
		{
			name:      "plain hostname",
			input:     HostInput{Hostname: "web01"},
			wantName:  "web01",
			wantInsts: []domain.Instance{},
		},
		{
			name:      "shorthand with multi word instance",
			input:     HostInput{Hostname: "web02 9991 order service"},
			wantName:  "web02",
			wantInsts: []domain.Instance{{ID: 1, Name: "order service", Port: 9991}},
		},
		{
			name:      "default port",
			input:     HostInput{Hostname: "web03", Instances: []InstanceInput{{Name: "app"}}},
			wantName:  "web03",
			wantInsts: []domain.Instance{{ID: 1, Name: "app", Port: 9990}},
		},
		{
			name:    "shorthand with bad port",
			input:   HostInput{Hostname: "web04 abc app"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "empty hostname",
			input:   HostInput{Hostname: "   "},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "port out of range",
			input:   HostInput{Hostname: "web05", Instances: []InstanceInput{{Name: "app", Port: 70000}}},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)

			h, created, err := s.AddHost(domain.NonProduction, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddHost() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddHost() error = %v", err)
			}
			if !created || h.ID != 1 || h.Hostname != tt.wantName {
				t.Errorf("AddHost() = %+v created=%v", h, created)
			}
			if len(h.Instances) != len(tt.wantInsts) {
				t.Fatalf("instances = %+v, want %+v", h.Instances, tt.wantInsts)
			}
			for i := range tt.wantInsts {
				if h.Instances[i] != tt.wantInsts[i] {
					t.Errorf("instance %d = %+v, want %+v", i, h.Instances[i], tt.wantInsts[i])
				}
			}
		})
	}
}

func TestAddHostDuplicateReturnsExisting(t *testing.T) {
	s := newTestStore(t)

	first, _, err := s.AddHost(domain.NonProduction, HostInput{Hostname: "web01 9990 app"})
	if err != nil {
		t.Fatalf("AddHost() error = %v", err)
	}
	second, created, err := s.AddHost(domain.NonProduction, HostInput{
		Hostname:  "web01",
		Instances: []InstanceInput{{Name: "app", Port: 9990}},
	})
	if err != nil {
		t.Fatalf("AddHost() error = %v", err)
	}
	if created || second.ID != first.ID {
		t.Errorf("duplicate AddHost() = %+v created=%v, want existing host %d", second, created, first.ID)
	}

	hosts, _ := s.ListHosts(domain.NonProduction)
	if len(hosts) != 1 {
		t.Errorf("store has %d hosts, want 1", len(hosts))
	}
}

func TestEnvironmentsArePartitioned(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.AddHost(domain.Production, HostInput{Hostname: "prod01"}); err != nil {
		t.Fatalf("AddHost() error = %v", err)
	}

	nonprod, _ := s.ListHosts(domain.NonProduction)
	if len(nonprod) != 0 {
		t.Errorf("non-production sees %d hosts, want 0", len(nonprod))
	}
	prod, _ := s.ListHosts(domain.Production)
	if len(prod) != 1 || prod[0].Hostname != "prod01" {
		t.Errorf("production hosts = %+v", prod)
	}
}

func TestInstanceIDsAreUniqueAcrossHosts(t *testing.T) {
	s := newTestStore(t)
	env := domain.NonProduction

	a, _, _ := s.AddHost(env, HostInput{Hostname: "a", Instances: []InstanceInput{{Name: "x"}, {Name: "y", Port: 9991}}})
	b, _, _ := s.AddHost(env, HostInput{Hostname: "b", Instances: []InstanceInput{{Name: "z"}}})
	extra, err := s.AddInstance(env, a.ID, InstanceInput{Name: "w", Port: 10090})
	if err != nil {
		t.Fatalf("AddInstance() error = %v", err)
	}

	ids := map[int]bool{}
	for _, inst := range append(append(a.Instances, b.Instances...), extra) {
		if ids[inst.ID] {
			t.Errorf("instance id %d reused", inst.ID)
		}
		ids[inst.ID] = true
	}
	if b.ID != a.ID+1 {
		t.Errorf("host ids = %d, %d, want consecutive", a.ID, b.ID)
	}
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)
	env := domain.Production

	h, _, _ := s.AddHost(env, HostInput{Hostname: "a", Instances: []InstanceInput{{Name: "x"}}})
	if err := s.DeleteHost(env, h.ID); err != nil {
		t.Fatalf("DeleteHost() error = %v", err)
	}
	h2, _, _ := s.AddHost(env, HostInput{Hostname: "b", Instances: []InstanceInput{{Name: "y"}}})

	if h2.ID == h.ID || h2.Instances[0].ID == h.Instances[0].ID {
		t.Errorf("ids reused after delete: %+v vs %+v", h, h2)
	}
}

func TestAddInstanceErrors(t *testing.T) {
	s := newTestStore(t)
	h, _, _ := s.AddHost(domain.NonProduction, HostInput{Hostname: "a"})

	if _, err := s.AddInstance(domain.NonProduction, 42, InstanceInput{Name: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AddInstance(missing host) error = %v, want ErrNotFound", err)
	}
	if _, err := s.AddInstance(domain.NonProduction, h.ID, InstanceInput{Name: " "}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("AddInstance(empty name) error = %v, want ErrValidation", err)
	}
}

func TestDeleteAndFind(t *testing.T) {
	s := newTestStore(t)
	env := domain.NonProduction
	h, _, _ := s.AddHost(env, HostInput{Hostname: "a", Instances: []InstanceInput{{Name: "x"}, {Name: "y", Port: 9991}}})

	host, inst, err := s.FindInstance(env, h.Instances[1].ID)
	if err != nil {
		t.Fatalf("FindInstance() error = %v", err)
	}
	if host.ID != h.ID || inst.Name != "y" {
		t.Errorf("FindInstance() = %+v %+v", host, inst)
	}

	if err := s.DeleteInstance(env, h.Instances[0].ID); err != nil {
		t.Fatalf("DeleteInstance() error = %v", err)
	}
	if err := s.DeleteInstance(env, h.Instances[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteInstance() error = %v, want ErrNotFound", err)
	}

	got, err := s.GetHost(env, h.ID)
	if err != nil {
		t.Fatalf("GetHost() error = %v", err)
	}
	if len(got.Instances) != 1 || got.Instances[0].Name != "y" {
		t.Errorf("GetHost() instances = %+v", got.Instances)
	}

	if err := s.DeleteHost(env, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteHost(999) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetHost(env, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetHost(999) error = %v, want ErrNotFound", err)
	}
}

func TestListHostsReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	_, _, _ = s.AddHost(domain.NonProduction, HostInput{Hostname: "a", Instances: []InstanceInput{{Name: "x"}}})

	hosts, _ := s.ListHosts(domain.NonProduction)
	hosts[0].Instances[0].Name = "mutated"

	again, _ := s.ListHosts(domain.NonProduction)
	if again[0].Instances[0].Name != "x" {
		t.Error("mutating a listed host changed the store")
	}
}

func TestIsDuplicate(t *testing.T) {
	s := newTestStore(t)
	_, _, _ = s.AddHost(domain.NonProduction, HostInput{Hostname: "a 9990 app"})

	tests := []struct {
		hostname string
		port     int
		name     string
		want     bool
	}{
		{"a", 9990, "app", true},
		{"a", 9991, "app", false},
		{"a", 9990, "other", false},
		{"b", 9990, "app", false},
	}
	for _, tt := range tests {
		got, err := s.IsDuplicate(domain.NonProduction, tt.hostname, tt.port, tt.name)
		if err != nil {
			t.Fatalf("IsDuplicate() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("IsDuplicate(%s, %d, %s) = %v, want %v", tt.hostname, tt.port, tt.name, got, tt.want)
		}
	}
}

func TestLegacyArrayFormat(t *testing.T) {
	dir := t.TempDir()
	legacy := `[{"id": 3, "hostname": "old", "instances": [{"id": 7, "name": "app", "port": 9990}]}]`
	if err := os.WriteFile(filepath.Join(dir, "production_hosts.json"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(dir, logger.New("error", false))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	h, _, err := s.AddHost(domain.Production, HostInput{Hostname: "new", Instances: []InstanceInput{{Name: "x"}}})
	if err != nil {
		t.Fatalf("AddHost() error = %v", err)
	}
	if h.ID != 4 || h.Instances[0].ID != 8 {
		t.Errorf("ids after legacy load = host %d instance %d, want 4/8", h.ID, h.Instances[0].ID)
	}

	hosts, _ := s.ListHosts(domain.Production)
	if len(hosts) != 2 || hosts[0].Hostname != "old" {
		t.Errorf("ListHosts() = %+v", hosts)
	}
}

func TestFailedUpdateDoesNotPersist(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.Update(domain.NonProduction, func(doc *Document) error {
		doc.newHost("ghost")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}

	hosts, _ := s.ListHosts(domain.NonProduction)
	if len(hosts) != 0 {
		t.Errorf("failed update persisted %d hosts", len(hosts))
	}
}

func TestConcurrentAddInstance(t *testing.T) {
	s := newTestStore(t)
	h, _, _ := s.AddHost(domain.NonProduction, HostInput{Hostname: "a"})

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.AddInstance(domain.NonProduction, h.ID, InstanceInput{Name: "x", Port: 10000 + i}); err != nil {
				t.Errorf("AddInstance() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := s.GetHost(domain.NonProduction, h.ID)
	if len(got.Instances) != n {
		t.Errorf("host has %d instances, want %d", len(got.Instances), n)
	}
}
