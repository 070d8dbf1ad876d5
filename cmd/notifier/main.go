package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/pflag"

	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/notify"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
	"github.com/joseph-ayodele/forms-intake/internal/server"
)

func main() {
	fs := pflag.NewFlagSet("notifier", pflag.ExitOnError)
	common.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := common.LoadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "notifier: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.App).With("component", "notifier")

	if cfg.Queue.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required")
		os.Exit(2)
	}
	mailer, err := notify.NewSMTPMailer(cfg.Mail, logger)
	if err != nil {
		logger.Error("invalid mail configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)
	if err := server.PingDB(ctx, db, logger, 5*time.Second); err != nil {
		os.Exit(1)
	}

	worker := notify.NewWorker(mailer, repository.NewEmailLogRepository(db, logger), logger)

	concurrency := cfg.Queue.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	srv := asynq.NewServer(server.RedisOpt(cfg.Queue), asynq.Config{
		Concurrency: concurrency,
		Logger:      notify.AsynqLogger(logger.With("source", "asynq")),
	})
	if err := srv.Start(worker.Mux()); err != nil {
		logger.Error("worker start failed", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier running", "redis", cfg.Queue.RedisAddr, "concurrency", concurrency)

	<-ctx.Done()
	logger.Info("shutting down")
	srv.Shutdown()
}
