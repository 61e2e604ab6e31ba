package normalizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devclub/formsheets/pkg/logger"
	"github.com/tmc/langchaingo/llms"
)

const promptTemplate = "Formate este nome próprio corretamente: \"%s\". Apenas o nome formatado, sem aspas."

const (
	defaultTimeout     = 5 * time.Second
	defaultTemperature = 0.3
	defaultMaxTokens   = 100
)

// Options tune a normalization call.
type Options struct {
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Outcome classifies a Normalize call for metrics.
type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped"
	OutcomeNormalized Outcome = "normalized"
	OutcomeFallback   Outcome = "fallback"
)

// Observer receives the outcome of each call.
type Observer func(ctx context.Context, outcome Outcome, elapsed time.Duration)

// Normalizer asks a language model to fix the capitalization and spacing
// of a personal name. It never fails: every error path returns the input.
type Normalizer struct {
	model    llms.Model
	opts     Options
	observer Observer
}

// New returns a Normalizer. A nil model yields an unconfigured normalizer
// that returns names unchanged without calling anything.
func New(model llms.Model, opts Options) *Normalizer {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature < 0 {
		opts.Temperature = defaultTemperature
	}
	return &Normalizer{model: model, opts: opts}
}

// WithObserver installs an outcome observer.
func (n *Normalizer) WithObserver(o Observer) *Normalizer {
	n.observer = o
	return n
}

// Configured reports whether a model is available.
func (n *Normalizer) Configured() bool {
	return n != nil && n.model != nil
}

// Normalize returns the model's formatting of raw, or raw itself when the
// normalizer is unconfigured, raw is empty, or the call fails.
func (n *Normalizer) Normalize(ctx context.Context, raw string) string {
	if !n.Configured() || raw == "" {
		n.observe(ctx, OutcomeSkipped, 0)
		return raw
	}
	start := time.Now()
	out, err := n.complete(ctx, raw)
	elapsed := time.Since(start)
	if err != nil {
		logger.FromContext(ctx).Warn("name normalization failed, keeping original", "error", err)
		n.observe(ctx, OutcomeFallback, elapsed)
		return raw
	}
	n.observe(ctx, OutcomeNormalized, elapsed)
	return out
}

func (n *Normalizer) complete(ctx context.Context, raw string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
	defer cancel()
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, Prompt(raw)),
	}
	resp, err := n.model.GenerateContent(
		callCtx,
		messages,
		llms.WithTemperature(n.opts.Temperature),
		llms.WithMaxTokens(n.opts.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", fmt.Errorf("empty response")
	}
	out := strings.TrimSpace(resp.Choices[0].Content)
	if out == "" {
		return "", fmt.Errorf("blank completion")
	}
	return out, nil
}

func (n *Normalizer) observe(ctx context.Context, outcome Outcome, elapsed time.Duration) {
	if n == nil || n.observer == nil {
		return
	}
	n.observer(ctx, outcome, elapsed)
}

// Prompt builds the instruction sent for raw.
func Prompt(raw string) string {
	return fmt.Sprintf(promptTemplate, raw)
}
