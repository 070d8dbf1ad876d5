package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/forms-intake/constants"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	OCR      OCRConfig
	Storage  StorageConfig
	Queue    QueueConfig
	Mail     MailConfig
}

// AppConfig holds runtime settings of the HTTP process
type AppConfig struct {
	Env      string
	Host     string
	Port     int
	LogLevel string
}

// Addr is the HTTP listen address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds optional listener configuration
type ServerConfig struct {
	GRPCAddr string // empty disables the gRPC health listener
}

// LLMConfig holds inference-service configuration
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OCRConfig selects the text extraction engine for images
type OCRConfig struct {
	Engine        string // "openai" | "tesseract"
	Tesseract     string
	TesseractLang string
	TessdataDir   string
}

// StorageConfig holds upload storage configuration
type StorageConfig struct {
	Backend      string // "local" | "s3"
	UploadFolder string
	MaxFileSize  int64
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Bucket     string
	S3Region     string
	S3UseSSL     bool
}

// QueueConfig holds the notification queue connection
type QueueConfig struct {
	RedisAddr     string // empty disables notifications
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// MailConfig holds the SMTP relay used by the notifier
type MailConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	OCREngineOpenAI    = "openai"
	OCREngineTesseract = "tesseract"

	StorageLocal = "local"
	StorageS3    = "s3"
)

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"host":          "app_host",
	"port":          "app_port",
	"log-level":     "log_level",
	"database-url":  "database_url",
	"upload-folder": "upload_folder",
	"grpc-addr":     "grpc_addr",
}

// RegisterFlags defines the command line overrides understood by LoadConfig.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("host", "0.0.0.0", "HTTP listen host")
	fs.Int("port", 8000, "HTTP listen port")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("database-url", "", "Database connection string (postgres:// or sqlite file:)")
	fs.String("upload-folder", "./uploads", "Directory for stored uploads (local backend)")
	fs.String("grpc-addr", "", "gRPC health listen address; empty disables it")
}

// LoadConfig builds the configuration from .env, the environment and (optionally) flags.
// A missing .env file is not an error.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "DATABASE_URL", "DB_URL"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvDevelopment)
	v.SetDefault("app_host", "0.0.0.0")
	v.SetDefault("app_port", 8000)
	v.SetDefault("log_level", "info")

	v.SetDefault("db_max_conns", 20)
	v.SetDefault("db_min_conns", 2)
	v.SetDefault("db_max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db_max_conn_idle_time", 5*time.Minute)
	v.SetDefault("db_dial_timeout", 3*time.Second)
	v.SetDefault("db_statement_timeout", time.Duration(0))

	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_timeout", 60*time.Second)

	v.SetDefault("ocr_engine", OCREngineOpenAI)
	v.SetDefault("tesseract_bin", "tesseract")
	v.SetDefault("tesseract_lang", "eng")

	v.SetDefault("storage_backend", StorageLocal)
	v.SetDefault("upload_folder", "./uploads")
	v.SetDefault("max_file_size", constants.DefaultMaxFileSize)
	v.SetDefault("s3_bucket", "forms-uploads")
	v.SetDefault("s3_region", "us-east-1")

	v.SetDefault("redis_db", 0)
	v.SetDefault("notifier_concurrency", 4)

	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_from", "no-reply@forms-intake.local")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:      strings.ToLower(v.GetString("app_env")),
			Host:     v.GetString("app_host"),
			Port:     v.GetInt("app_port"),
			LogLevel: strings.ToLower(v.GetString("log_level")),
		},
		Database: DatabaseConfig{
			DSN:              v.GetString("database_url"),
			MaxConns:         v.GetInt32("db_max_conns"),
			MinConns:         v.GetInt32("db_min_conns"),
			MaxConnLifetime:  v.GetDuration("db_max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db_max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db_dial_timeout"),
			StatementTimeout: v.GetDuration("db_statement_timeout"),
		},
		Server: ServerConfig{
			GRPCAddr: v.GetString("grpc_addr"),
		},
		LLM: LLMConfig{
			APIKey:  v.GetString("openai_api_key"),
			BaseURL: v.GetString("openai_base_url"),
			Model:   v.GetString("openai_model"),
			Timeout: v.GetDuration("openai_timeout"),
		},
		OCR: OCRConfig{
			Engine:        strings.ToLower(v.GetString("ocr_engine")),
			Tesseract:     v.GetString("tesseract_bin"),
			TesseractLang: v.GetString("tesseract_lang"),
			TessdataDir:   v.GetString("tessdata_prefix"),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(v.GetString("storage_backend")),
			UploadFolder: v.GetString("upload_folder"),
			MaxFileSize:  v.GetInt64("max_file_size"),
			S3Endpoint:   v.GetString("s3_endpoint"),
			S3AccessKey:  v.GetString("s3_access_key"),
			S3SecretKey:  v.GetString("s3_secret_key"),
			S3Bucket:     v.GetString("s3_bucket"),
			S3Region:     v.GetString("s3_region"),
			S3UseSSL:     v.GetBool("s3_use_ssl"),
		},
		Queue: QueueConfig{
			RedisAddr:     v.GetString("redis_addr"),
			RedisPassword: v.GetString("redis_password"),
			RedisDB:       v.GetInt("redis_db"),
			Concurrency:   v.GetInt("notifier_concurrency"),
		},
		Mail: MailConfig{
			Server:   v.GetString("smtp_server"),
			Port:     v.GetInt("smtp_port"),
			Username: v.GetString("smtp_username"),
			Password: v.GetString("smtp_password"),
			From:     v.GetString("smtp_from"),
		},
	}
}

// Validate checks presence and enumerations only; credentials are checked where they are used.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("DATABASE_URL", c.Database.DSN, Required)
	v.Field("APP_ENV", c.App.Env, OneOf(EnvDevelopment, EnvProduction, EnvTest))
	v.Field("APP_PORT", c.App.Port, IntRange(1, 65535))
	v.Field("LOG_LEVEL", c.App.LogLevel, OneOf("debug", "info", "warn", "warning", "error"))
	v.Field("OCR_ENGINE", c.OCR.Engine, OneOf(OCREngineOpenAI, OCREngineTesseract))
	v.Field("STORAGE_BACKEND", c.Storage.Backend, OneOf(StorageLocal, StorageS3))
	v.Field("MAX_FILE_SIZE", c.Storage.MaxFileSize, Int64Min(1))
	if c.Storage.Backend == StorageLocal {
		v.Field("UPLOAD_FOLDER", c.Storage.UploadFolder, Required)
	}
	if c.Storage.Backend == StorageS3 {
		v.Field("S3_ENDPOINT", c.Storage.S3Endpoint, Required)
		v.Field("S3_BUCKET", c.Storage.S3Bucket, Required)
	}
	return ValidateAndReturnError(v)
}
