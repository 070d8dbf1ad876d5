package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/export"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/llm/openai"
	"github.com/joseph-ayodele/forms-intake/internal/notify"
	"github.com/joseph-ayodele/forms-intake/internal/ocr"
	"github.com/joseph-ayodele/forms-intake/internal/pipeline"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
	"github.com/joseph-ayodele/forms-intake/internal/storage"
)

// Services is the assembled application graph shared by the server and formsctl.
type Services struct {
	Submissions repository.FormSubmissionRepository
	EmailLogs   repository.EmailLogRepository
	Store       storage.Store
	Processor   *pipeline.Processor
	Exporter    *export.Service

	enqueuer *notify.Enqueuer
	logger   *slog.Logger
}

// NewServices builds repositories, storage, the inference client and the workflow from cfg.
// Notifications are wired only when cfg.Queue.RedisAddr is set.
func NewServices(ctx context.Context, cfg *common.Config, db *repository.DB, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	subs := repository.NewFormSubmissionRepository(db, logger)
	logs := repository.NewEmailLogRepository(db, logger)

	store, err := NewStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	client := openai.NewClient(openai.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)
	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; uploads will fail at classification")
	}

	var extractor llm.TextExtractor = client
	if cfg.OCR.Engine == common.OCREngineTesseract {
		extractor = ocr.NewTesseract(ocr.Config{
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
			TessdataDir:   cfg.OCR.TessdataDir,
		}, nil, logger)
	}

	s := &Services{
		Submissions: subs,
		EmailLogs:   logs,
		Store:       store,
		Exporter:    export.NewService(subs, logger),
		logger:      logger,
	}

	deps := pipeline.Deps{
		Classifier:  client,
		Extractor:   extractor,
		Parser:      client,
		Store:       store,
		Submissions: subs,
	}
	if cfg.Queue.RedisAddr != "" {
		s.enqueuer = notify.NewEnqueuer(RedisOpt(cfg.Queue), logger)
		deps.Notifier = s.enqueuer
	} else {
		logger.Info("REDIS_ADDR is not set; customer emails are disabled")
	}
	s.Processor = pipeline.NewProcessor(deps, logger)

	logger.Info("services ready",
		"ocr_engine", cfg.OCR.Engine,
		"storage", cfg.Storage.Backend,
		"model", cfg.LLM.Model,
		"notifications", s.enqueuer != nil,
	)
	return s, nil
}

func (s *Services) Close() {
	if s.enqueuer != nil {
		if err := s.enqueuer.Close(); err != nil {
			s.logger.Warn("failed to close queue client", "error", err)
		}
	}
}

// NewStore picks the upload backend.
func NewStore(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case common.StorageS3:
		s3, err := storage.NewS3(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return s3, nil
	case common.StorageLocal, "":
		local, err := storage.NewLocal(cfg.UploadFolder, logger)
		if err != nil {
			return nil, err
		}
		return local, nil
	default:
		return nil, common.ConfigError(fmt.Sprintf("unknown storage backend %q", cfg.Backend))
	}
}

// RedisOpt maps queue settings onto asynq's connection options.
func RedisOpt(cfg common.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
