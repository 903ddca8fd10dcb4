package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"hrcore/internal/audit"
	audithandler "hrcore/internal/audit/handler"
	auditpg "hrcore/internal/audit/store/postgres"
	"hrcore/internal/dispatch"
	"hrcore/internal/document"
	dochandler "hrcore/internal/document/handler"
	docpg "hrcore/internal/document/store/postgres"
	"hrcore/internal/employee/bank"
	bankhandler "hrcore/internal/employee/bank/handler"
	bankpg "hrcore/internal/employee/bank/store/postgres"
	httpapi "hrcore/internal/http"
	"hrcore/internal/platform/config"
	"hrcore/internal/platform/database"
	"hrcore/internal/platform/httpserver"
	"hrcore/internal/platform/logger"
	platformredis "hrcore/internal/platform/redis"
	"hrcore/internal/snapshot"
	"hrcore/internal/tenant/settings"
	"hrcore/pkg/platform/middleware/auth"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	tenantSettings := settings.NewService(db, redisClient, log)
	registry := snapshot.NewPostgresRegistry(db, tenantSettings)

	dispatcher := dispatch.New(cfg.DispatchQueueSize, log, dispatch.NewMetrics())

	auditStore := auditpg.New(db)
	audit.NewWriter(auditStore, registry, log, audit.NewMetrics()).Register(dispatcher)
	auditReader := audit.NewReader(auditStore, audit.NewResolver(db, log), cfg.DefaultPageSize)

	documents := document.NewService(afero.NewOsFs(), docpg.New(db), dispatcher,
		cfg.DocumentRoot, cfg.DocumentURLBase, log)
	accounts := bank.NewService(db, bankpg.New(db), registry, documents, dispatcher, log)

	validator := auth.NewJWTValidator([]byte(cfg.JWTSigningKey))
	router := httpapi.NewRouter(db, redisClient, validator, log,
		audithandler.New(auditReader, log),
		dochandler.New(documents, log),
		bankhandler.New(accounts, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	// The dispatcher gets its own context so it keeps draining accepted
	// events while the server shuts down.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	g.Go(func() error {
		err := dispatcher.Run(dispatchCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		log.Info("starting hrcore", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}

		// No more publishers; let the dispatcher drain and exit.
		stopDispatch()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
