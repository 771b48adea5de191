// Package deepeval runs the second-pass deep evaluation of a CV, either
// through the processor service or directly against the Anthropic API.
package deepeval

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/reclutahub/recluta-cli/internal/config"
	"github.com/reclutahub/recluta-cli/pkg/anthropic"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// Request is one deep-evaluation job.
type Request struct {
	CandidateID string
	File        processor.FileUpload
	RawText     string
	Vacancy     processor.Vacancy
	Model       string
}

// Evaluator runs a deep evaluation for one candidate.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (*processor.DeepAnalysis, error)
}

// New creates an evaluator for the configured provider.
func New(cfg config.DeepConfig, acfg config.AnthropicConfig, proc processor.Client) (Evaluator, error) {
	switch cfg.Provider {
	case "", "processor":
		return NewProcessorEvaluator(proc), nil
	case "anthropic":
		if acfg.Key == "" {
			return nil, eris.New("deepeval: anthropic provider requires an API key")
		}
		return NewAnthropicEvaluator(anthropic.NewClient(acfg.Key), resolveModel(cfg.Model, acfg)), nil
	default:
		return nil, eris.Errorf("deepeval: unknown provider %q", cfg.Provider)
	}
}

// resolveModel maps the short model aliases used in config to full
// Anthropic model identifiers.
func resolveModel(alias string, acfg config.AnthropicConfig) string {
	switch alias {
	case "", "haiku":
		return acfg.HaikuModel
	case "sonnet":
		return acfg.SonnetModel
	default:
		return alias
	}
}
