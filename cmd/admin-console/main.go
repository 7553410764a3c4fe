package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicdesk/admin-console/pkg/audit"
	"github.com/clinicdesk/admin-console/pkg/catalog"
	"github.com/clinicdesk/admin-console/pkg/clinic"
	"github.com/clinicdesk/admin-console/pkg/clinicapi"
	"github.com/clinicdesk/admin-console/pkg/common/config"
	"github.com/clinicdesk/admin-console/pkg/common/database"
	"github.com/clinicdesk/admin-console/pkg/common/kafka"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/console"
	"github.com/clinicdesk/admin-console/pkg/crud"
	"github.com/clinicdesk/admin-console/pkg/enrichment"
	"github.com/clinicdesk/admin-console/pkg/gateway/httpclient"
	"github.com/clinicdesk/admin-console/pkg/gateway/middleware"
	"github.com/clinicdesk/admin-console/pkg/session"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2/clientcredentials"
)

func main() {
	logger.Init()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load message catalog")
	}

	var clientOpts []httpclient.Option
	if cfg.ClientCredentialsEnabled() {
		clientOpts = append(clientOpts, httpclient.WithClientCredentials(&clientcredentials.Config{
			ClientID:     cfg.ClinicAPIClientID,
			ClientSecret: cfg.ClinicAPIClientSecret,
			TokenURL:     cfg.ClinicAPITokenURL,
			Scopes:       cfg.ClinicAPIScopes,
		}))
	} else {
		logger.Log.Warn("Clinic API client credentials not configured, calling without a token")
	}
	api := clinicapi.New(cfg.ClinicAPIBaseURL, httpclient.New(cfg.ClinicAPITimeout, clientOpts...))

	var auditor crud.Auditor = audit.Discard{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.AuditTopic)
		defer producer.Close()
		auditor = audit.NewPublisher(producer)
	} else {
		logger.Log.Warn("Kafka brokers not configured, audit events are dropped")
	}

	registry, err := clinic.NewRegistry(api, crud.WithTranslator(cat.T), crud.WithAuditor(auditor))
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid resource descriptors")
	}

	examinations := enrichment.NewService(
		clinicapi.NewResource[models.Examination](api, clinicapi.Examinations),
		clinicapi.NewResource[models.Doctor](api, clinicapi.Doctors),
		cfg.EnrichmentConcurrency,
	)

	deps := console.Deps{
		Registry:     registry,
		Examinations: examinations,
		Catalog:      cat,
		SessionTTL:   cfg.SessionTTL,
		SecureCookie: cfg.SecureCookies,
	}

	switch cfg.SessionStore {
	case "redis":
		rdb, err := database.NewRedis(ctx, cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer rdb.Close()
		deps.Store = session.NewRedisStore(rdb, cfg.SessionTTL)
		deps.Locker = session.NewRedisLocker(rdb, cfg.SessionLockTTL)
		deps.ReadyChecks = append(deps.ReadyChecks, console.Check{
			Name: "redis",
			Run:  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	case "memory":
		deps.Store = session.NewMemoryStore(cfg.SessionTTL)
		deps.Locker = session.NewMemoryLocker(cfg.SessionLockTTL)
	default:
		logger.Log.WithField("session_store", cfg.SessionStore).Fatal("Unknown session store")
	}

	handler, err := console.New(deps)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to build console")
	}

	// Setup router
	router := mux.NewRouter()

	// Middleware
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	handler.Register(router)

	// Server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":      cfg.ServerHost,
			"port":      cfg.ServerPort,
			"clinicApi": cfg.ClinicAPIBaseURL,
			"locale":    cat.Locale(),
			"sessions":  cfg.SessionStore,
		}).Info("Admin console started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down admin console...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Admin console stopped")
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		return catalog.Load(cfg.CatalogPath, cfg.Locale)
	}
	return catalog.Default(cfg.Locale)
}
