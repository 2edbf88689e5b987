package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"toolgate/internal/competency/adapters"
	competencyhandler "toolgate/internal/competency/handler"
	competencyports "toolgate/internal/competency/ports"
	competencyservice "toolgate/internal/competency/service"
	categorystore "toolgate/internal/competency/store/category"
	progressstore "toolgate/internal/competency/store/progress"
	projectstore "toolgate/internal/competency/store/project"
	enrollmentcache "toolgate/internal/enrollment/cache"
	enrollmentclient "toolgate/internal/enrollment/client"
	enrollmentports "toolgate/internal/enrollment/ports"
	entitlementhandler "toolgate/internal/entitlement/handler"
	entitlementmetrics "toolgate/internal/entitlement/metrics"
	entitlementports "toolgate/internal/entitlement/ports"
	entitlementservice "toolgate/internal/entitlement/service"
	allocationstore "toolgate/internal/entitlement/store/allocation"
	capabilitystore "toolgate/internal/entitlement/store/capability"
	evidencehandler "toolgate/internal/evidence/handler"
	evidenceports "toolgate/internal/evidence/ports"
	evidenceservice "toolgate/internal/evidence/service"
	evidencestore "toolgate/internal/evidence/store"
	jwttoken "toolgate/internal/jwt_token"
	"toolgate/internal/platform/config"
	"toolgate/internal/platform/httpserver"
	"toolgate/internal/platform/logger"
	platformmetrics "toolgate/internal/platform/metrics"
	"toolgate/internal/platform/postgres"
	platformredis "toolgate/internal/platform/redis"
	snapshothandler "toolgate/internal/snapshot/handler"
	snapshotports "toolgate/internal/snapshot/ports"
	snapshotservice "toolgate/internal/snapshot/service"
	snapshotstore "toolgate/internal/snapshot/store"
	"toolgate/pkg/platform/audit"
	auditpublisher "toolgate/pkg/platform/audit/publisher"
	adminmw "toolgate/pkg/platform/middleware/admin"
	authmw "toolgate/pkg/platform/middleware/auth"
	requestmw "toolgate/pkg/platform/middleware/request"
	requesttimemw "toolgate/pkg/platform/middleware/requesttime"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis())
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditor, closeAuditor, err := buildAuditor(cfg, log)
	if err != nil {
		return err
	}
	defer closeAuditor()

	stores := buildStores(db)
	enrollment, invalidator := buildEnrollment(cfg, redisClient, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	resolver, err := entitlementservice.NewResolver(stores.allocations, stores.capabilities, enrollment,
		entitlementservice.WithLogger(log),
		entitlementservice.WithAuditPublisher(auditor),
		entitlementservice.WithMetrics(entitlementmetrics.New()),
	)
	if err != nil {
		return err
	}
	entitlementCuration, err := entitlementservice.NewCuration(stores.allocations, stores.capabilities,
		entitlementservice.CurationWithLogger(log),
		entitlementservice.CurationWithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	collector, err := evidenceservice.New(stores.evidence,
		evidenceservice.WithLogger(log),
		evidenceservice.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	aggregator, err := competencyservice.NewAggregator(stores.categories, stores.progress, stores.projects,
		competencyservice.WithLogger(log),
		competencyservice.WithAuditPublisher(auditor),
		competencyservice.WithCapabilityCatalog(adapters.NewCapabilityCatalog(stores.capabilities)),
	)
	if err != nil {
		return err
	}
	competencyCuration, err := competencyservice.NewCuration(stores.categories,
		competencyservice.CurationWithLogger(log),
		competencyservice.CurationWithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	snapshots, err := snapshotservice.New(stores.snapshots, aggregator,
		snapshotservice.WithLogger(log),
		snapshotservice.WithAuditPublisher(auditor),
		snapshotservice.WithDefaultExpiry(cfg.SnapshotExpiry),
	)
	if err != nil {
		return err
	}

	competencyOpts := []competencyhandler.Option{
		competencyhandler.WithEvidenceRecorder(collector),
	}
	if invalidator != nil {
		competencyOpts = append(competencyOpts, competencyhandler.WithEnrollmentInvalidator(invalidator))
	}

	router := buildRouter(log, jwtService, handlers{
		entitlement: entitlementhandler.New(resolver, entitlementCuration, log),
		evidence:    evidencehandler.New(collector, log),
		competency:  competencyhandler.New(aggregator, competencyCuration, log, competencyOpts...),
		snapshot:    snapshothandler.New(snapshots, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting toolgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

type storeSet struct {
	allocations  entitlementports.AllocationStore
	capabilities entitlementports.CapabilityStore
	evidence     evidenceports.EvidenceStore
	categories   competencyports.CategoryStore
	progress     competencyports.ProgressStore
	projects     competencyports.ProjectStore
	snapshots    snapshotports.SnapshotStore
}

func buildStores(db *sql.DB) storeSet {
	if db == nil {
		return storeSet{
			allocations:  allocationstore.NewMemory(),
			capabilities: capabilitystore.NewMemory(),
			evidence:     evidencestore.NewMemory(),
			categories:   categorystore.NewMemory(),
			progress:     progressstore.NewMemory(),
			projects:     projectstore.NewMemory(),
			snapshots:    snapshotstore.NewMemory(),
		}
	}
	return storeSet{
		allocations:  allocationstore.NewPostgres(db),
		capabilities: capabilitystore.NewPostgres(db),
		evidence:     evidencestore.NewPostgres(db),
		categories:   categorystore.NewPostgres(db),
		progress:     progressstore.NewPostgres(db),
		projects:     projectstore.NewPostgres(db),
		snapshots:    snapshotstore.NewPostgres(db),
	}
}

// buildEnrollment picks the learning platform provider and, when Redis is
// available, wraps it in the short-TTL accessible-set cache. The invalidator
// is nil when no cache is in play.
func buildEnrollment(cfg config.Server, redisClient *platformredis.Client, log *slog.Logger) (enrollmentports.Provider, *enrollmentcache.Redis) {
	var provider enrollmentports.Provider
	if cfg.EnrollmentBaseURL != "" {
		httpProvider, err := enrollmentclient.NewHTTP(cfg.EnrollmentBaseURL, cfg.EnrollmentAPIKey,
			enrollmentclient.WithTimeout(cfg.EnrollmentTimeout),
			enrollmentclient.WithLogger(log),
		)
		if err != nil {
			log.Warn("enrollment client misconfigured, falling back to empty static provider", "error", err)
			provider = &enrollmentclient.Static{}
		} else {
			provider = httpProvider
		}
	} else {
		log.Warn("ENROLLMENT_BASE_URL not set, enrollment checks will see no courses")
		provider = &enrollmentclient.Static{}
	}

	if redisClient == nil {
		return provider, nil
	}
	cached := enrollmentcache.NewRedis(provider, redisClient.Client, cfg.EnrollmentCacheTTL, log)
	return cached, cached
}

func buildAuditor(cfg config.Server, log *slog.Logger) (audit.Emitter, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, audit events are discarded")
		return audit.NopEmitter{}, func() {}, nil
	}
	kafka, err := auditpublisher.NewKafka(cfg.KafkaBrokers, cfg.AuditTopic, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := kafka.Close(ctx); err != nil {
			log.Warn("audit publisher close failed", "error", err)
		}
	}
	return kafka, closeFn, nil
}

type handlers struct {
	entitlement *entitlementhandler.Handler
	evidence    *evidencehandler.Handler
	competency  *competencyhandler.Handler
	snapshot    *snapshothandler.Handler
}

func buildRouter(log *slog.Logger, validator authmw.TokenValidator, h handlers) chi.Router {
	router := chi.NewRouter()
	router.Use(requestmw.Middleware)
	router.Use(requesttimemw.Middleware)
	router.Use(platformmetrics.New().Middleware)

	// Public surface: health, metrics, and the verification read path.
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	h.snapshot.RegisterPublic(router)

	router.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(validator, log))
		h.entitlement.Register(r)
		h.evidence.Register(r)
		h.competency.Register(r)
		h.snapshot.Register(r)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authmw.RequireAuth(validator, log))
		r.Use(adminmw.RequireAdmin(log))
		h.entitlement.RegisterAdmin(r)
		h.competency.RegisterAdmin(r)
	})

	return router
}
