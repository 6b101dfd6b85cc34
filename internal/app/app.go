package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jbmon/internal/auth"
	"github.com/MrSnakeDoc/jbmon/internal/config"
	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/index"
	"github.com/MrSnakeDoc/jbmon/internal/jbosscli"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/metrics"
	"github.com/MrSnakeDoc/jbmon/internal/monitor"
	"github.com/MrSnakeDoc/jbmon/internal/probe"
	"github.com/MrSnakeDoc/jbmon/internal/redis"
	"github.com/MrSnakeDoc/jbmon/internal/scheduler"
	"github.com/MrSnakeDoc/jbmon/internal/sources/seed"
	"github.com/MrSnakeDoc/jbmon/internal/store/file"
	redisstore "github.com/MrSnakeDoc/jbmon/internal/store/redis"
	"github.com/MrSnakeDoc/jbmon/internal/utils"
	"github.com/MrSnakeDoc/jbmon/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	sweeps      *scheduler.SweepScheduler
	gc          *scheduler.GarbageCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store, err := file.NewStore(cfg.StorageDir, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open storage at %s: %v", cfg.StorageDir, err)
		os.Exit(1)
	}

	if cfg.SeedFile != "" {
		if err := seed.Import(cfg.SeedFile, store, loggerClient); err != nil {
			loggerClient.Errorf("Failed to import seed file %s: %v", cfg.SeedFile, err)
			os.Exit(1)
		}
	}

	runner, cliMode := newRunner(cfg, loggerClient)
	prober := probe.NewCLIProber(jbosscli.Instrument(runner, m), loggerClient)
	aggregator := monitor.NewAggregator(prober, cfg.SweepConcurrency, loggerClient, m)
	sweeper := monitor.NewSweeper(store, aggregator, loggerClient, m)
	snapshots := index.NewSnapshotIndex()

	// Redis is optional: without it snapshots only live in memory.
	var (
		redisClient *goredis.Client
		saver       scheduler.SnapshotSaver
		history     deps.SnapshotHistory
	)
	if cfg.RedisAddr != "" {
		redisClient, err = redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("continuing without redis, snapshots will not survive restarts",
				logger.Error(err))
		} else {
			snapshotStore := redisstore.NewStore(redisClient)
			saver = snapshotStore
			history = snapshotStore

			syncer := scheduler.NewRedisSyncer(snapshotStore, snapshots, loggerClient)
			if err := syncer.Sync(context.Background()); err != nil {
				loggerClient.Warn("failed to restore snapshots from redis", logger.Error(err))
			}
		}
	} else {
		loggerClient.Info("redis not configured, snapshot persistence disabled")
	}

	cliCreds := domain.Credentials{Username: cfg.CLIUser, Password: cfg.CLIPassword}
	sweepCreds := map[domain.Environment]domain.Credentials{}
	for _, env := range domain.Environments() {
		sweepCreds[env] = cliCreds
	}

	var archive scheduler.ReportArchiver
	if cfg.ArchiveSweeps {
		archive = store
	}

	sweepTrigger := make(chan domain.Environment, 1)
	sweeps := scheduler.NewSweepScheduler(
		sweeper,
		snapshots,
		saver,
		archive,
		sweepCreds,
		loggerClient,
		cfg.SweepInterval,
		sweepTrigger,
	)

	var gc *scheduler.GarbageCollector
	if cfg.ReportRetention > 0 && cfg.GCInterval > 0 {
		gc = scheduler.NewGarbageCollector(store, loggerClient, cfg.GCInterval, cfg.ReportRetention)
	} else {
		loggerClient.Info("report retention disabled, reports are kept forever")
	}

	tokens := auth.NewService(cfg.JWTSecret, cfg.TokenTTL, map[domain.Environment]domain.Credentials{
		domain.Production:    {Username: cfg.ProdUsername, Password: cfg.ProdPassword},
		domain.NonProduction: {Username: cfg.NonProdUsername, Password: cfg.NonProdPassword},
	})

	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		Store:              store,
		Sweeper:            sweeper,
		Index:              snapshots,
		Publisher:          sweeps,
		Tokens:             tokens,
		Gatherer:           reg,
		Snapshots:          history,
		CLICredentials:     cliCreds,
		CLIMode:            cliMode,
		SweepTrigger:       sweepTrigger,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginBurst:         cfg.LoginBurst,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		sweeps:      sweeps,
		gc:          gc,
	}
}

// newRunner picks the subprocess runner, or the mock runner when asked to
// or when the CLI is not installed.
func newRunner(cfg *config.Config, log logger.Logger) (jbosscli.Runner, string) {
	if cfg.MockCLI || !jbosscli.Available(cfg.CLIPath) {
		log.Warn("management CLI not used, serving simulated results",
			logger.String("path", cfg.CLIPath),
			logger.Bool("forced", cfg.MockCLI))
		return jbosscli.NewMockRunner(log), "mock"
	}

	log.Info("using management CLI",
		logger.String("path", cfg.CLIPath),
		logger.Duration("timeout", cfg.CLITimeout))
	return jbosscli.NewExecRunner(jbosscli.ExecOptions{
		Path:    cfg.CLIPath,
		Timeout: cfg.CLITimeout,
	}, log), "exec"
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting jbmon %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("jbmon %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.sweeps.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sweep scheduler: %w", err)
	}
	a.logger.Info("sweep scheduler started",
		logger.Duration("interval", a.cfg.SweepInterval))

	if a.gc != nil {
		if err := a.gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start garbage collector: %w", err)
		}
		a.logger.Info("garbage collector started",
			logger.Duration("interval", a.cfg.GCInterval),
			logger.Duration("retention", a.cfg.ReportRetention))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.sweeps.Stop()
	if a.gc != nil {
		a.gc.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.MustClose(a.redisClient, a.logger, "redis")
	}

	a.logger.Info("✅ jbmon stopped cleanly")
	return nil
}
