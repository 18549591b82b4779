// Package llm handles judge provider communication. A Judge wraps a
// Provider and returns the model's free-text answer to one check prompt.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/sowaudit/internal/logging"
)

// ErrEmptyResponse is returned when a provider answers with only whitespace.
var ErrEmptyResponse = errors.New("llm: empty response")

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call site.
// Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// DefaultModels maps provider names to the model used when none is configured.
var DefaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-5",
	"openai":    "gpt-4o",
	"google":    "gemini-2.5-flash",
}

// Options configures a Judge.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Debug       bool
}

// SystemPrompt frames every check evaluation.
const SystemPrompt = "You are a meticulous reviewer of Statements of Work. " +
	"Evaluate the document strictly against the single check you are given. " +
	"Answer in exactly the output format the check asks for, in plain text, " +
	"without preamble and without repeating the question."

// Judge evaluates check prompts with one provider.
type Judge struct {
	provider Provider
	opts     Options
	logger   *log.Logger
}

// NewJudge creates the configured provider through NewProvider. An empty
// model selects the provider's default.
func NewJudge(opts Options, logger *log.Logger) (*Judge, error) {
	name := strings.ToLower(opts.Provider)
	if name == "" {
		name = "anthropic"
	}
	if opts.Model == "" {
		opts.Model = DefaultModels[name]
	}
	opts.Provider = name
	p, err := NewProvider(name, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("llm: create provider: %w", err)
	}
	return &Judge{provider: p, opts: opts, logger: logging.OrDefault(logger)}, nil
}

// Model returns the model the judge sends prompts to.
func (j *Judge) Model() string { return j.opts.Model }

// Evaluate sends prompt to the provider and returns its trimmed answer.
func (j *Judge) Evaluate(ctx context.Context, prompt string) (string, error) {
	if j.opts.Debug {
		j.logger.Debug("judge prompt", "provider", j.opts.Provider, "model", j.opts.Model, "prompt", prompt)
	}
	raw, err := j.provider.Complete(ctx, SystemPrompt, prompt, j.opts.MaxTokens, j.opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("llm: complete: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyResponse
	}
	if j.opts.Debug {
		j.logger.Debug("judge answer", "model", j.opts.Model, "answer", raw)
	}
	return raw, nil
}
