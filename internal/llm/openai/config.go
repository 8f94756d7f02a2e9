package openai

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/docupay/invoice-capture/internal/llm"
)

// Config for the OpenAI-backed field extractor.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // per-request timeout
}

type Client struct {
	cfg    Config
	api    openai.Client
	logger *slog.Logger

	// response contract, compiled on first use; the category set does not
	// change within a process
	schemaOnce sync.Once
	schema     *llm.RecordSchema
	schemaErr  error
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	api := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	return &Client{cfg: cfg, api: api, logger: logger}
}
