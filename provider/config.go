package provider

import (
	"fmt"
	"net/http"
	"strings"
)

// Config selects and configures a Provider by model name, mirroring
// the teacher's llm.Config + llm.NewClient model-name-prefix dispatch.
type Config struct {
	Model        string
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	ExtraHeaders map[string]string
	Generation   GenerationOptions
}

// ModelFamily identifies which wire API a model name dispatches to.
type ModelFamily int

const (
	FamilyUnknown ModelFamily = iota
	FamilyOpenAIChatCompletions
	FamilyOpenAIResponses
	FamilyAnthropic
	FamilyGemini
	FamilyKimi
)

// DetectFamily maps a model name to a ModelFamily by prefix, the same
// style as the teacher's detectProvider/isResponsesModel.
func DetectFamily(model string) ModelFamily {
	m := strings.ToLower(model)

	switch {
	case strings.HasPrefix(m, "kimi-"), strings.HasPrefix(m, "moonshot-"):
		return FamilyKimi
	case strings.HasPrefix(m, "claude-"):
		return FamilyAnthropic
	case strings.HasPrefix(m, "gemini-"):
		return FamilyGemini
	case strings.HasPrefix(m, "gpt-5"), strings.HasPrefix(m, "o1-"), strings.HasPrefix(m, "o3"):
		return FamilyOpenAIResponses
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"):
		return FamilyOpenAIChatCompletions
	default:
		return FamilyUnknown
	}
}

// Option configures a Config.
type Option func(*Config)

// WithHTTPClient overrides the HTTP client every adapter constructor
// uses, defaulting to http.DefaultClient; the seam a request-preview
// RoundTripper hooks into.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *Config) { cfg.HTTPClient = c }
}

// WithBaseURL overrides the provider's default API base URL.
func WithBaseURL(url string) Option {
	return func(cfg *Config) { cfg.BaseURL = url }
}

// WithExtraHeaders sets Config.ExtraHeaders. No adapter constructor in
// this module reads that field, so the headers are not sent.
func WithExtraHeaders(headers map[string]string) Option {
	return func(cfg *Config) { cfg.ExtraHeaders = headers }
}

// WithGenerationOptions sets the initial GenerationOptions.
func WithGenerationOptions(opts GenerationOptions) Option {
	return func(cfg *Config) { cfg.Generation = opts }
}

// NewConfig builds a Config for model, applying opts.
func NewConfig(model, apiKey string, opts ...Option) Config {
	cfg := Config{Model: model, APIKey: apiKey}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return cfg
}

// ErrUnknownModel is returned by a constructor that can't map a model
// name to a known family.
func ErrUnknownModel(model string) error {
	return fmt.Errorf("provider: unknown model family for %q", model)
}

// Constructor builds a Provider from a Config. Each adapter package
// registers its Constructor from an init() func, the same init()-registration
// idiom database/sql uses for drivers — this lets package
// provider host NewClient without importing provider/openai,
// provider/anthropic, provider/gemini, or provider/kimi, which in turn
// avoids an import cycle (those packages import provider for the
// Provider/StreamedMessage interface types their methods return).
type Constructor func(cfg Config) (Provider, error)

var registry = map[ModelFamily]Constructor{}

// Register installs the Constructor for family. Adapter packages call
// this from init(); a caller must import the adapter package (even
// with a blank import) for NewClient to find it.
func Register(family ModelFamily, ctor Constructor) {
	registry[family] = ctor
}

// NewClient builds a Provider for cfg.Model, dispatching to whichever
// adapter package registered itself for that model's family. Callers
// must import the adapter packages they intend to use.
func NewClient(cfg Config) (Provider, error) {
	family := DetectFamily(cfg.Model)
	ctor, ok := registry[family]
	if !ok {
		return nil, ErrUnknownModel(cfg.Model)
	}
	return ctor(cfg)
}
