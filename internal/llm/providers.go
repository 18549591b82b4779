package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingKey is returned by the provider factory when no API key is set.
var ErrMissingKey = errors.New("llm: API key not set")

// KeyEnv lists the environment variables holding each provider's API key,
// in lookup order.
var KeyEnv = map[string][]string{
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"google":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

var constructors = map[string]func(apiKey, model string) Provider{
	"anthropic": newAnthropicProvider,
	"openai":    newOpenAIProvider,
	"google":    newGoogleProvider,
}

// Known reports whether name is a supported provider.
func Known(name string) bool {
	_, ok := constructors[strings.ToLower(name)]
	return ok
}

func defaultNewProvider(providerName, model string) (Provider, error) {
	name := strings.ToLower(providerName)
	if name == "" {
		name = "anthropic"
	}
	construct, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
	key, err := apiKey(name)
	if err != nil {
		return nil, err
	}
	return construct(key, model), nil
}

func apiKey(provider string) (string, error) {
	names := KeyEnv[provider]
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set %s", ErrMissingKey, strings.Join(names, " or "))
}
