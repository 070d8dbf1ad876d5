package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entgo.io/ent/dialect"
	"github.com/spf13/pflag"

	"github.com/joseph-ayodele/forms-intake/internal/api"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
	"github.com/joseph-ayodele/forms-intake/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	fs := pflag.NewFlagSet("forms-intake", pflag.ExitOnError)
	common.RegisterFlags(fs)
	migrate := fs.Bool("migrate", false, "create or update the schema before serving")
	_ = fs.Parse(os.Args[1:])

	cfg, err := common.LoadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forms-intake: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)

	if err := server.PingDB(ctx, db, logger, 5*time.Second); err != nil {
		os.Exit(1)
	}
	// SQLite databases are local files; create the schema on first use
	if *migrate || db.Dialect == dialect.SQLite {
		if err := repository.Migrate(ctx, db); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("schema migrated", "dialect", db.Dialect)
	}

	svc, err := server.NewServices(ctx, cfg, db, logger)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	handler := api.NewHandler(svc.Processor, svc.Exporter, cfg.Storage.MaxFileSize, logger)
	httpServer := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           api.NewRouter(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
		// uploads run the whole workflow inline
		WriteTimeout: 5 * time.Minute,
	}

	var health *server.HealthServer
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		health = server.NewHealthServer(logger)
		health.SetServing(true)
		go func() {
			if err := health.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("forms-intake listening", "addr", httpServer.Addr, "env", cfg.App.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("http serve error", "error", err)
		}
	}

	if health != nil {
		health.SetServing(false)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if health != nil {
		health.Stop()
	}
	logger.Info("stopped")
}
