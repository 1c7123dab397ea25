package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration. The client binaries
// (pagedrop, pagedrop-mcp) and the backend read the same struct; each uses
// only the sections it needs.
type Config struct {
	Submit    SubmitConfig
	Capture   CaptureConfig
	Browser   BrowserConfig
	Engine    EngineConfig
	Popup     PopupConfig
	Server    ServerConfig
	Extract   ExtractConfig
	Store     StoreConfig
	Webhook   WebhookConfig
	LLM       LLMConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// SubmitConfig controls where captured markup is sent.
type SubmitConfig struct {
	// Endpoint is the single backend URL every submission is POSTed to.
	Endpoint string `env:"PAGEDROP_ENDPOINT" envDefault:"http://localhost:8000/"`

	// Timeout bounds one submission. Zero leaves the call to the transport.
	Timeout time.Duration `env:"PAGEDROP_SUBMIT_TIMEOUT" envDefault:"0s"`
}

// CaptureConfig controls how pages are captured.
type CaptureConfig struct {
	// CDPURL is the DevTools endpoint of the user's running browser, used
	// for active-tab capture. Example: "ws://127.0.0.1:9222/devtools/browser/<id>"
	// or "http://127.0.0.1:9222".
	CDPURL string `env:"PAGEDROP_CDP_URL"`

	// Timeout is the deadline for rendering a URL target.
	Timeout time.Duration `env:"PAGEDROP_CAPTURE_TIMEOUT" envDefault:"30s"`

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration `env:"PAGEDROP_NAV_TIMEOUT" envDefault:"15s"`

	// BlockedResourceTypes lists resource types dropped while rendering.
	BlockedResourceTypes []string `env:"PAGEDROP_BLOCKED_RESOURCES" envSeparator:"," envDefault:"Image,Stylesheet,Font,Media"`

	// MaxBytes caps markup read from files, stdin or plain HTTP.
	MaxBytes int64 `env:"PAGEDROP_CAPTURE_MAX_BYTES" envDefault:"10485760"`
}

// BrowserConfig controls the headless browser used for URL targets.
type BrowserConfig struct {
	Headless   bool   `env:"PAGEDROP_HEADLESS" envDefault:"true"`
	MaxPages   int    `env:"PAGEDROP_MAX_PAGES" envDefault:"2"`
	Proxy      string `env:"PAGEDROP_PROXY"`
	NoSandbox  bool   `env:"PAGEDROP_NO_SANDBOX" envDefault:"false"`
	BrowserBin string `env:"PAGEDROP_BROWSER_BIN"`
}

// EngineConfig controls the staged engine escalation for URL targets.
type EngineConfig struct {
	// EscalationDelays is the start delay of each engine tier
	// (http, rod, rod-stealth).
	EscalationDelays []time.Duration `env:"PAGEDROP_ESCALATION_DELAYS" envSeparator:"," envDefault:"0s,2s,5s"`

	// MemoryTTL is how long the winning engine is remembered per domain.
	MemoryTTL time.Duration `env:"PAGEDROP_ENGINE_MEMORY_TTL" envDefault:"24h"`
}

// PopupConfig controls the local popup page.
type PopupConfig struct {
	Addr string `env:"PAGEDROP_POPUP_ADDR" envDefault:"127.0.0.1:8765"`
}

// ServerConfig controls the backend HTTP server.
type ServerConfig struct {
	Host string `env:"PAGEDROP_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PAGEDROP_PORT" envDefault:"8000"`
	// Mode is the gin mode: "debug", "release" or "test".
	Mode string `env:"PAGEDROP_MODE" envDefault:"release"`
	// MaxBodyBytes caps the accepted markup size.
	MaxBodyBytes int64 `env:"PAGEDROP_MAX_BODY_BYTES" envDefault:"20971520"`
}

// ExtractConfig controls how the backend turns markup into data.
type ExtractConfig struct {
	// Profile is the default extraction profile: "product", "page" or "llm".
	Profile string `env:"PAGEDROP_EXTRACT_PROFILE" envDefault:"product"`

	TitleSelector       string `env:"PAGEDROP_SEL_TITLE" envDefault:"h1.product-title"`
	PriceSelector       string `env:"PAGEDROP_SEL_PRICE" envDefault:"p.actual-price"`
	ImageSelector       string `env:"PAGEDROP_SEL_IMAGE" envDefault:"div.product-image-wrapper.product-wrapper-inline picture source"`
	DescriptionSelector string `env:"PAGEDROP_SEL_DESCRIPTION" envDefault:"div.product-description-list li"`
}

// StoreConfig controls the product sheet and image bucket.
type StoreConfig struct {
	// SheetPath is the sqlite file holding product rows. Empty disables it.
	SheetPath string `env:"PAGEDROP_SHEET_PATH" envDefault:"pagedrop.db"`

	// PriceMultiplier converts the scraped price into the sheet currency.
	PriceMultiplier float64 `env:"PAGEDROP_PRICE_MULTIPLIER" envDefault:"1500"`

	// DefaultRating is written to new rows.
	DefaultRating float64 `env:"PAGEDROP_DEFAULT_RATING" envDefault:"4.7"`

	// BucketDir receives downloaded product images. Empty disables uploads.
	BucketDir string `env:"PAGEDROP_BUCKET_DIR"`
}

// WebhookConfig controls product notifications.
type WebhookConfig struct {
	URL    string `env:"PAGEDROP_WEBHOOK_URL"`
	Secret string `env:"PAGEDROP_WEBHOOK_SECRET"`
}

// LLMConfig controls the "llm" extraction profile.
type LLMConfig struct {
	APIKey  string        `env:"PAGEDROP_LLM_API_KEY"`
	Model   string        `env:"PAGEDROP_LLM_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string        `env:"PAGEDROP_LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Timeout time.Duration `env:"PAGEDROP_LLM_TIMEOUT" envDefault:"60s"`
}

// AuthConfig controls API key authentication on the backend.
type AuthConfig struct {
	Enabled bool     `env:"PAGEDROP_AUTH_ENABLED" envDefault:"false"`
	APIKeys []string `env:"PAGEDROP_API_KEYS" envSeparator:","`
}

// RateLimitConfig controls per-identity rate limiting on the backend.
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"PAGEDROP_RATE_RPS" envDefault:"5"`
	Burst             int     `env:"PAGEDROP_RATE_BURST" envDefault:"10"`
}

// CacheConfig controls the backend response cache.
type CacheConfig struct {
	MaxEntries int           `env:"PAGEDROP_CACHE_MAX_ENTRIES" envDefault:"1000"`
	TTL        time.Duration `env:"PAGEDROP_CACHE_TTL" envDefault:"10m"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `env:"PAGEDROP_LOG_LEVEL" envDefault:"info"`
	Format string `env:"PAGEDROP_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from environment variables, falling back to the
// envDefault tags for anything unset.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Browser.MaxPages < 1 {
		cfg.Browser.MaxPages = 1
	}
	return &cfg, nil
}
