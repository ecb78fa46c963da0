package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certguard/internal/audit"
	"certguard/internal/communication"
	"certguard/internal/compliance"
	compliancehandler "certguard/internal/compliance/handler"
	compliancemetrics "certguard/internal/compliance/metrics"
	compliancestore "certguard/internal/compliance/store"
	httpapi "certguard/internal/http"
	"certguard/internal/platform/config"
	"certguard/internal/platform/httpserver"
	"certguard/internal/platform/logger"
	"certguard/internal/platform/postgres"
	platformredis "certguard/internal/platform/redis"
	"certguard/internal/requirements"
	requirementshandler "certguard/internal/requirements/handler"
	requirementsstore "certguard/internal/requirements/store"
	"certguard/internal/verification"
	"certguard/internal/verification/extractor"
	verificationhandler "certguard/internal/verification/handler"
	verificationmetrics "certguard/internal/verification/metrics"
	verificationstore "certguard/internal/verification/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Stores fall back to memory when postgres is not configured, which
	// keeps local development dependency-free.
	var verStore verification.Store
	var reqStore requirements.Store
	var excStore compliance.ExceptionStore
	var regStore compliance.ProjectSubcontractorStore
	if db != nil {
		verStore = verificationstore.NewPostgres(db)
		reqStore = requirementsstore.NewPostgres(db)
		excStore = compliancestore.NewPostgresExceptions(db)
		regStore = compliancestore.NewPostgresProjectSubcontractors(db)
	} else {
		log.Warn("postgres not configured, using in-memory stores")
		verStore = verificationstore.NewMemory()
		reqStore = requirementsstore.NewMemory()
		excStore = compliancestore.NewMemoryExceptions()
		regStore = compliancestore.NewMemoryProjectSubcontractors()
	}
	if redisClient != nil {
		reqStore = requirementsstore.NewCached(reqStore, redisClient.Client,
			requirementsstore.WithTTL(cfg.RequirementsCacheTTL),
			requirementsstore.WithCacheLogger(log),
		)
	}

	auditOpts := []audit.PublisherOption{audit.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, audit.WithSink(sink))
	}
	auditPublisher := audit.NewPublisher(audit.NewMemoryStore(), auditOpts...)

	var dispatcher communication.Dispatcher
	if cfg.SESSender != "" {
		sesDispatcher, err := communication.NewSES(ctx, cfg.SESRegion, cfg.SESSender, log)
		if err != nil {
			log.Error("SES setup failed", "error", err)
			os.Exit(1)
		}
		dispatcher = sesDispatcher
	} else {
		log.Warn("SES sender not configured, communications will only be recorded")
		dispatcher = communication.NewRecorder()
	}

	complianceService, err := compliance.New(excStore, regStore,
		compliance.WithDispatcher(dispatcher),
		compliance.WithAuditPublisher(auditPublisher),
		compliance.WithMetrics(compliancemetrics.New()),
		compliance.WithLogger(log),
	)
	if err != nil {
		log.Error("compliance service setup failed", "error", err)
		os.Exit(1)
	}

	requirementsService, err := requirements.New(reqStore, requirements.WithLogger(log))
	if err != nil {
		log.Error("requirements service setup failed", "error", err)
		os.Exit(1)
	}

	verificationOpts := []verification.Option{
		verification.WithLogger(log),
		verification.WithMetrics(verificationmetrics.New()),
		verification.WithRequirementsSource(requirementsService),
		verification.WithProjectSource(compliance.NewProjectSource(regStore)),
		verification.WithOutcomeApplier(compliance.NewOutcomeApplier(complianceService)),
		verification.WithMinConfidence(cfg.MinConfidence),
	}
	if cfg.ExtractorURL != "" {
		verificationOpts = append(verificationOpts, verification.WithExtractor(extractor.NewHTTP(cfg.ExtractorURL)))
	} else {
		log.Warn("extractor not configured, document processing is disabled")
	}
	verificationService, err := verification.New(verStore, verificationOpts...)
	if err != nil {
		log.Error("verification service setup failed", "error", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(
		verificationhandler.New(verificationService, log),
		requirementshandler.New(requirementsService, log),
		compliancehandler.New(complianceService, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		worker := compliance.NewExpiryWorker(complianceService, cfg.ExceptionSweepInterval, log)
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("expiry worker stopped", "error", err)
		}
	}()

	go func() {
		log.Info("starting certguard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("certguard stopped")
}
