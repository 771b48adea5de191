package batch

import (
	"context"

	"go.uber.org/zap"

	"github.com/reclutahub/recluta-cli/internal/deepeval"
	"github.com/reclutahub/recluta-cli/internal/model"
)

// DeepScheduler runs the deep-analysis second pass over a finished batch.
// Only items that completed the main pass and were flagged by the matcher
// qualify. The pass is sequential and non-fatal: a failed evaluation logs
// a warning and leaves the item completed without deep data.
type DeepScheduler struct {
	eval  deepeval.Evaluator
	model string
}

// NewDeepScheduler creates a deep scheduler. model is the evaluator's
// model alias (e.g. "haiku").
func NewDeepScheduler(eval deepeval.Evaluator, model string) *DeepScheduler {
	return &DeepScheduler{eval: eval, model: model}
}

// Run scans the registry for qualifying items and evaluates them one at a
// time. work maps item ids back to their file and vacancy snapshot.
func (d *DeepScheduler) Run(ctx context.Context, reg *Registry, work map[string]WorkItem) {
	if d.eval == nil {
		return
	}

	for _, item := range reg.Items() {
		if item.Status != model.StatusCompleted || item.Analysis == nil || !item.Analysis.ShouldSendToLLM {
			continue
		}
		w, ok := work[item.ID]
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		reg.Update(item.ID, func(i *model.CVItem) {
			i.Status = model.StatusDeepAnalyzing
		})

		result, err := d.eval.Evaluate(ctx, deepeval.Request{
			CandidateID: item.ID,
			File:        w.File,
			RawText:     item.RawText,
			Vacancy:     w.Vacancy,
			Model:       d.model,
		})
		if err != nil {
			zap.L().Warn("deep analysis failed",
				zap.String("item_id", item.ID),
				zap.String("file", item.FileName),
				zap.Error(err),
			)
			reg.Update(item.ID, func(i *model.CVItem) {
				i.Status = model.StatusCompleted
			})
			continue
		}

		reg.Update(item.ID, func(i *model.CVItem) {
			i.Deep = model.FlattenDeep(result)
			i.Status = model.StatusCompleted
		})

		zap.L().Info("deep analysis merged",
			zap.String("item_id", item.ID),
			zap.Float64("deep_score", result.Overall.Score),
		)
	}
}
