package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicdesk/admin-console/pkg/clinicstub"
	"github.com/clinicdesk/admin-console/pkg/common/config"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/gateway/middleware"
	"github.com/gorilla/mux"
)

// The stub serves an in-memory clinic backend with fake data so the console
// can be run without the real API.
func main() {
	logger.Init()
	cfg := config.Load()

	stub := clinicstub.New()
	stub.Seed(uint64(cfg.StubSeed), clinicstub.SeedCounts{Doctors: 12, Patients: 40, Examinations: 120})

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods("GET")
	stub.Register(router.PathPrefix("/api").Subrouter())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.StubPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.StubPort,
			"seed": cfg.StubSeed,
		}).Info("Clinic API stub started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	logger.Log.Info("Clinic API stub stopped")
}
