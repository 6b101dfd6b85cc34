package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/auth"
	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"jbmon.example.com", "jbmon.example.com", true},
		{"ops.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil-example.com", "*.example.com", false},
		{"other.org", "*.example.com", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"JBmon.example.com"}, logger.New("error", false))(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"jbmon.example.com", http.StatusNoContent},
		{"jbmon.example.com:8080", http.StatusNoContent},
		{"other.example.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/hosts", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("Host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	log := logger.New("error", false)

	tests := []struct {
		name       string
		allowed    []string
		remote     string
		xff        string
		trustProxy bool
		want       int
	}{
		{"empty list passes", nil, "203.0.113.9:1234", "", false, http.StatusNoContent},
		{"cidr match", []string{"10.0.0.0/8"}, "10.1.2.3:1234", "", false, http.StatusNoContent},
		{"exact ip", []string{"192.0.2.1"}, "192.0.2.1:1234", "", false, http.StatusNoContent},
		{"outside", []string{"10.0.0.0/8"}, "203.0.113.9:1234", "", false, http.StatusForbidden},
		{"xff ignored without trust", []string{"10.0.0.0/8"}, "203.0.113.9:1234", "10.0.0.1", false, http.StatusForbidden},
		{"xff used with trust", []string{"10.0.0.0/8"}, "127.0.0.1:1234", "10.0.0.1, 127.0.0.1", true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, tt.trustProxy, log)(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewService("0123456789abcdef0123456789abcdef", time.Hour, map[domain.Environment]domain.Credentials{
		domain.Production: {Username: "prod", Password: "pw"},
	})
	valid, err := tokens.Issue("prod", domain.Production)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var seen auth.Identity
	h := RequireAuth(tokens, logger.New("error", false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"tampered", "Bearer " + valid + "x", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/hosts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if seen.Username != "prod" || seen.Environment != domain.Production {
		t.Errorf("identity = %+v", seen)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 1})(okHandler)

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := call("192.0.2.1:1000"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := call("192.0.2.1:1001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("headers = %v", rec.Header())
	}

	// Buckets are per client.
	if rec := call("192.0.2.2:1000"); rec.Code != http.StatusNoContent {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	l := newIPLimiter(RateLimitConfig{Burst: 1, IdleTTL: time.Minute, SweepInterval: time.Second})
	start := time.Now()

	l.reserve("a", start)
	l.reserve("b", start.Add(90*time.Second))
	l.reserve("c", start.Add(2*time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.visitors["a"]; ok {
		t.Error("idle client a should have been evicted")
	}
	if len(l.visitors) != 2 {
		t.Errorf("visitors = %d, want 2", len(l.visitors))
	}
}
