package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request budget, must cover a full sweep (default: 5m)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StorageDir string // directory holding the inventory files and reports/
	SeedFile   string // optional YAML inventory imported at startup

	// Management CLI
	CLIPath     string        // path to jboss-cli.sh; mock mode when absent
	CLITimeout  time.Duration // per-command timeout (default: 30s)
	MockCLI     bool          // force mock mode even when the CLI exists
	CLIUser     string        // default management user
	CLIPassword string        // default management password

	// Sweeps
	SweepConcurrency int           // instances probed at once (default: 4)
	SweepInterval    time.Duration // 0 disables periodic sweeps
	ArchiveSweeps    bool          // store scheduled sweeps as reports
	GCInterval       time.Duration // interval to prune old reports (default: 24h)
	ReportRetention  time.Duration // reports older than this are deleted (default: 30 days)

	// Dashboard authentication
	JWTSecret          string
	TokenTTL           time.Duration // ex: 12h
	ProdUsername       string
	ProdPassword       string
	NonProdUsername    string
	NonProdPassword    string
	LoginRatePerMinute int
	LoginBurst         int

	// Redis (optional, empty address disables snapshot persistence)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict /api to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific networks
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// Load reads the configuration from the environment. Variables may also
// come from a dotenv file, see loadDotEnv.
func Load() *Config {
	envFile := loadDotEnv()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("JBMON_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("JBMON_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("JBMON_REQUEST_TIMEOUT", 5*time.Minute),

		// Logging
		LogLevel:  getenv("JBMON_LOG_LEVEL", "info"),
		PrettyLog: mustBool("JBMON_PRETTY_LOG", false),

		// Storage
		StorageDir: getenv("JBMON_STORAGE_DIR", "data"),
		SeedFile:   getenv("JBMON_SEED_FILE", ""),

		// Management CLI
		CLIPath:     getenv("JBMON_CLI_PATH", "/app/jboss/bin/jboss-cli.sh"),
		CLITimeout:  mustDuration("JBMON_CLI_TIMEOUT", 30*time.Second),
		MockCLI:     mustBool("JBMON_MOCK_CLI", false),
		CLIUser:     getenv("JBMON_CLI_USERNAME", ""),
		CLIPassword: getenv("JBMON_CLI_PASSWORD", ""),

		// Sweeps
		SweepConcurrency: getenvInt("JBMON_SWEEP_CONCURRENCY", 4),
		SweepInterval:    mustDuration("JBMON_SWEEP_INTERVAL", 0),
		ArchiveSweeps:    mustBool("JBMON_ARCHIVE_SWEEPS", false),
		GCInterval:       mustDuration("JBMON_GC_INTERVAL", 24*time.Hour),
		ReportRetention:  mustDuration("JBMON_REPORT_RETENTION", 30*24*time.Hour),

		// Authentication
		JWTSecret:          requireEnv("JBMON_JWT_SECRET"),
		TokenTTL:           mustDuration("JBMON_TOKEN_TTL", 12*time.Hour),
		ProdUsername:       requireEnv("JBMON_PROD_USERNAME"),
		ProdPassword:       requireEnv("JBMON_PROD_PASSWORD"),
		NonProdUsername:    requireEnv("JBMON_NONPROD_USERNAME"),
		NonProdPassword:    requireEnv("JBMON_NONPROD_PASSWORD"),
		LoginRatePerMinute: getenvInt("JBMON_LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:         getenvInt("JBMON_LOGIN_BURST", 5),

		// Redis settings
		RedisAddr:           getenv("JBMON_REDIS_ADDR", ""),
		RedisUser:           getenv("JBMON_REDIS_USERNAME", ""),
		RedisPassword:       getenv("JBMON_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("JBMON_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("JBMON_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("JBMON_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("JBMON_TRUST_PROXY", false),
	}

	if len(cfg.JWTSecret) < 32 {
		panic("❌ FATAL: JBMON_JWT_SECRET must be at least 32 characters")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		if envFile != "" {
			log.Printf("[DEBUG] loaded %s", envFile)
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	const mask = "***REDACTED***"
	cp := *c
	for _, f := range []*string{&cp.JWTSecret, &cp.ProdPassword, &cp.NonProdPassword, &cp.CLIPassword, &cp.RedisPassword} {
		if *f != "" {
			*f = mask
		}
	}
	if cp.RedisUser != "" {
		cp.RedisUser = mask
	}
	return cp
}

// loadDotEnv loads JBMON_ENV_FILE, or the first of .env and /app/.env that
// exists. Variables already present in the environment are not overridden.
// It returns the file used, if any.
func loadDotEnv() string {
	paths := []string{".env", "/app/.env"}
	if p := os.Getenv("JBMON_ENV_FILE"); p != "" {
		paths = []string{p}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
