// Command server runs the risk allocation and lifecycle engine.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	claimhandler "cedent/internal/claim/handler"
	claimservice "cedent/internal/claim/service"
	claimstore "cedent/internal/claim/store"
	"cedent/internal/platform/config"
	"cedent/internal/platform/httpserver"
	"cedent/internal/platform/logger"
	"cedent/internal/platform/metrics"
	"cedent/internal/platform/middleware"
	platformpg "cedent/internal/platform/postgres"
	platformredis "cedent/internal/platform/redis"
	policyhandler "cedent/internal/policy/handler"
	policyservice "cedent/internal/policy/service"
	policystore "cedent/internal/policy/store"
	reinsurancehandler "cedent/internal/reinsurance/handler"
	reinsuranceservice "cedent/internal/reinsurance/service"
	reinsurancestore "cedent/internal/reinsurance/store"
	reinsurerhandler "cedent/internal/reinsurer/handler"
	reinsurerservice "cedent/internal/reinsurer/service"
	reinsurerstore "cedent/internal/reinsurer/store"
	"cedent/internal/sequence"
	httptransport "cedent/internal/transport/http"
	treatyhandler "cedent/internal/treaty/handler"
	treatyservice "cedent/internal/treaty/service"
	treatystore "cedent/internal/treaty/store"
	audit "cedent/pkg/platform/audit"
	auditpublisher "cedent/pkg/platform/audit/publisher"
	auditkafka "cedent/pkg/platform/audit/sink/kafka"
	auditmemory "cedent/pkg/platform/audit/store/memory"
	auditpostgres "cedent/pkg/platform/audit/store/postgres"
	auditworker "cedent/pkg/platform/audit/worker"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New()

	// Store selection: a postgres DSN switches every store from the
	// in-memory implementations to the database-backed ones.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = platformpg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := platformpg.Migrate(db); err != nil {
			log.Error("postgres migrate failed", "error", err)
			os.Exit(1)
		}
	}

	var (
		reinsurers  reinsurerservice.Store
		treaties    treatystore.Store
		policies    policyservice.Store
		claims      claimservice.Store
		allocations reinsuranceservice.AllocationStore
		numbers     sequence.Allocator
		auditStore  audit.Store
	)
	if db != nil {
		reinsurers = reinsurerstore.NewPostgres(db)
		treaties = treatystore.NewPostgres(db)
		policies = policystore.NewPostgres(db)
		claims = claimstore.NewPostgres(db)
		allocations = reinsurancestore.NewPostgres(db)
		numbers = sequence.NewPostgresAllocator(db)
		auditStore = auditpostgres.New(db)
	} else {
		reinsurers = reinsurerstore.NewInMemory()
		treaties = treatystore.NewInMemory()
		policies = policystore.NewInMemory()
		claims = claimstore.NewInMemory()
		allocations = reinsurancestore.NewInMemory()
		numbers = sequence.NewInMemoryAllocator()
		auditStore = auditmemory.NewInMemoryStore()
	}

	healthChecks := map[string]func(context.Context) error{}
	if db != nil {
		healthChecks["postgres"] = db.PingContext
	}

	// Optional Redis cache on the treaty matching hot path.
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connect failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		treaties = treatystore.NewCached(treaties, redisClient.Client, cfg.Redis.TreatyTTL, log)
		healthChecks["redis"] = redisClient.Health
	}

	// Optional Kafka fan-out for audit events.
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.New(auditStore, cfg.Kafka.Brokers, log,
			auditkafka.WithTopic(cfg.Kafka.Topic))
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close(context.Background())
		auditStore = sink
	}

	recorder := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		auditpublisher.WithLogger(log))
	defer recorder.Close()

	m := metrics.New()

	reinsurerSvc := reinsurerservice.New(reinsurers, recorder)
	treatySvc := treatyservice.New(treaties, reinsurerSvc, recorder)
	engine := reinsuranceservice.New(allocations, treaties, policies, reinsurers, recorder, m, log)
	policySvc := policyservice.New(policies, numbers,
		reinsuranceservice.ActivationHook{Engine: engine}, recorder, m, log)
	claimSvc := claimservice.New(claims, policySvc, numbers, recorder, m)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        m,
		TokenValidator: middleware.NewHMACValidator(cfg.JWTSigningKey),
		RequestTimeout: cfg.HTTP.RequestTimeout,
		HealthChecks:   healthChecks,
		Handlers: []httptransport.Registrar{
			reinsurerhandler.New(reinsurerSvc, log),
			treatyhandler.New(treatySvc, log),
			policyhandler.New(policySvc, log),
			claimhandler.New(claimSvc, log),
			reinsurancehandler.New(engine, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router, httpserver.Timeouts{
		ReadHeader: cfg.HTTP.ReadHeaderTimeout,
		Read:       cfg.HTTP.ReadTimeout,
		Write:      cfg.HTTP.WriteTimeout,
		Idle:       cfg.HTTP.IdleTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if inbox := recorder.Inbox(); inbox != nil {
		w := auditworker.New(auditStore, inbox, log)
		g.Go(func() error {
			// Runs until the shutdown path closes the inbox, so events
			// emitted by in-flight requests still land in the store.
			return w.Run(context.Background())
		})
	}
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		recorder.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
