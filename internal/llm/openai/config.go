package openai

import (
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	classifyMaxTokens = 50
	ocrMaxTokens      = 2000
	parseTemperature  = 0.1

	// reported when the classifier answers with a bare label
	defaultConfidence = 0.9
)

// Config for the OpenAI client.
type Config struct {
	APIKey  string        // empty makes every call fail with a configuration error
	BaseURL string        // default https://api.openai.com/v1
	Model   string        // e.g., "gpt-4o-mini"
	Timeout time.Duration // per call; 0 disables
}

// Client implements llm.Classifier, llm.TextExtractor and llm.StructuredParser on the Responses API.
type Client struct {
	cfg    Config
	api    openai.Client
	model  shared.ResponsesModel
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		// inference failures are terminal for a submission
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Client{
		cfg:    cfg,
		api:    openai.NewClient(opts...),
		model:  shared.ResponsesModel(cfg.Model),
		logger: logger,
	}
}
