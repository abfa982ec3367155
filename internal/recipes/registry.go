package recipes

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	OpenAIProvider     ProviderType = "openai"
	OpenRouterProvider ProviderType = "openrouter"
	GitHubProvider     ProviderType = "github"
	AzureProvider      ProviderType = "azure"
)

// ModelProvider describes a supported provider and its defaults
type ModelProvider struct {
	Type         ProviderType
	BaseURL      string
	DefaultModel string
	Headers      map[string]string
}

// ModelConfig selects and configures a provider
type ModelConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Deployment  string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ModelRegistry builds completers for the configured provider and caches them
type ModelRegistry struct {
	providers map[ProviderType]*ModelProvider
	instances map[string]Completer
	mu        sync.Mutex
}

// NewModelRegistry creates a new model registry
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		providers: map[ProviderType]*ModelProvider{
			OpenAIProvider: {
				Type:         OpenAIProvider,
				BaseURL:      "https://api.openai.com/v1",
				DefaultModel: "gpt-4o-mini",
			},
			OpenRouterProvider: {
				Type:         OpenRouterProvider,
				BaseURL:      "https://openrouter.ai/api/v1",
				DefaultModel: "anthropic/claude-3-haiku",
				Headers: map[string]string{
					"HTTP-Referer": "https://smartpantry.app",
					"X-Title":      "SmartPantry",
				},
			},
			// GitHub Models uses an OpenAI-compatible API
			GitHubProvider: {
				Type:         GitHubProvider,
				BaseURL:      "https://models.inference.ai.azure.com",
				DefaultModel: "gpt-4o-mini",
			},
			AzureProvider: {
				Type: AzureProvider,
			},
		},
		instances: make(map[string]Completer),
	}
}

// Providers lists the supported provider types
func (r *ModelRegistry) Providers() []ProviderType {
	return []ProviderType{OpenAIProvider, OpenRouterProvider, GitHubProvider, AzureProvider}
}

// GetCompleter returns a completer for cfg, reusing one built earlier for the same settings
func (r *ModelRegistry) GetCompleter(cfg ModelConfig) (Completer, error) {
	provider, exists := r.providers[ProviderType(cfg.Provider)]
	if !exists {
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s provider requires an API key", provider.Type)
	}

	key := fmt.Sprintf("%s|%s|%s|%s", cfg.Provider, cfg.Model, cfg.BaseURL, cfg.Deployment)

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, exists := r.instances[key]; exists {
		return c, nil
	}

	c, err := r.initialize(provider, cfg)
	if err != nil {
		return nil, err
	}
	r.instances[key] = c
	return c, nil
}

func (r *ModelRegistry) initialize(provider *ModelProvider, cfg ModelConfig) (Completer, error) {
	if provider.Type == AzureProvider {
		deployment := cfg.Deployment
		if deployment == "" {
			deployment = cfg.Model
		}
		return NewAzureCompleter(cfg.BaseURL, cfg.APIKey, deployment, cfg.Temperature, cfg.MaxTokens)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = provider.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = provider.DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{headers: provider.Headers, base: http.DefaultTransport},
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s model: %w", provider.Type, err)
	}
	return NewLLMCompleter(llm, cfg.Temperature, cfg.MaxTokens), nil
}

// TestModel tests if the model is working by sending a simple query
func (r *ModelRegistry) TestModel(ctx context.Context, cfg ModelConfig) (bool, error) {
	c, err := r.GetCompleter(cfg)
	if err != nil {
		return false, err
	}
	if _, err := c.Complete(ctx, `Reply with {"ok": true}`); err != nil {
		return false, err
	}
	return true, nil
}

// headerTransport adds fixed headers to every request
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
