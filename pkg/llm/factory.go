package llm

import (
	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/config"
)

// NewProvider builds the configured provider, or nil when AI assistance
// is disabled. Callers treat a nil provider as "heuristics only".
func NewProvider(cfg config.AIConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
	case "anthropic":
		return NewAnthropicProvider(cfg.Model, cfg.APIKey, logger)
	}
	return nil, NewError(ErrorTypeUnknown, "unknown provider "+cfg.Provider, false, nil)
}
