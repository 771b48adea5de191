package deepeval

import (
	"context"

	"github.com/reclutahub/recluta-cli/pkg/processor"
)

type processorEvaluator struct {
	proc processor.Client
}

// NewProcessorEvaluator evaluates through the processor service's deep
// analysis endpoint.
func NewProcessorEvaluator(proc processor.Client) Evaluator {
	return &processorEvaluator{proc: proc}
}

func (e *processorEvaluator) Evaluate(ctx context.Context, req Request) (*processor.DeepAnalysis, error) {
	return e.proc.AnalyzeDeep(ctx, req.File, req.CandidateID, req.Vacancy, req.Model)
}
