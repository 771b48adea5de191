package batch

import (
	"context"

	"go.uber.org/zap"

	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/internal/resilience"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// Fallback messages when a stage fails without a usable message of its own.
const (
	errExtractFallback = "Error extrayendo texto"
	errMatchFallback   = "Error al analizar CV"
)

// WorkItem is one unit of pipeline work: an item id, its file, and the
// vacancy snapshot it is scored against.
type WorkItem struct {
	ID      string
	File    processor.FileUpload
	Vacancy processor.Vacancy
}

// Pipeline runs the per-item analysis sequence: extract text, parse
// contact data, match against the vacancy. Each external call is retried;
// any stage failure after retries marks the item failed with the last
// error verbatim.
type Pipeline struct {
	proc   processor.Client
	retry  resilience.RetryConfig
	report ProgressFunc
}

// NewPipeline creates a pipeline. report must not be nil.
func NewPipeline(proc processor.Client, retry resilience.RetryConfig, report ProgressFunc) *Pipeline {
	return &Pipeline{proc: proc, retry: retry, report: report}
}

// Process runs the full sequence for one item. Errors are reported through
// the progress callback; Process itself never fails the batch.
func (p *Pipeline) Process(ctx context.Context, w WorkItem) {
	p.report(w.ID, Update{Status: model.StatusExtracting, Progress: 10})

	extractRetry := p.retry
	extractRetry.OnRetry = resilience.RetryLogger("processor", "extract-text")
	extract, err := resilience.DoVal(ctx, extractRetry, func(ctx context.Context) (*processor.ExtractResult, error) {
		return p.proc.ExtractText(ctx, w.File)
	})
	if err != nil {
		p.fail(w, "extract", err, errExtractFallback)
		return
	}

	p.report(w.ID, Update{Status: model.StatusExtracting, Progress: 25})
	contact := ExtractContact(extract.Text)

	p.report(w.ID, Update{Status: model.StatusAnalyzing, Progress: 40})

	matchRetry := p.retry
	matchRetry.OnRetry = resilience.RetryLogger("processor", "match-vacancy")
	analysis, err := resilience.DoVal(ctx, matchRetry, func(ctx context.Context) (*processor.MatchAnalysis, error) {
		return p.proc.MatchVacancy(ctx, w.File, w.ID, w.Vacancy)
	})
	if err != nil {
		p.fail(w, "match", err, errMatchFallback)
		return
	}

	p.report(w.ID, Update{Status: model.StatusAnalyzing, Progress: 90})
	p.report(w.ID, Update{
		Status:   model.StatusCompleted,
		Progress: 100,
		Data: &StageResult{
			Contact:  contact,
			RawText:  extract.Text,
			Analysis: analysis,
		},
	})

	zap.L().Info("cv processed",
		zap.String("item_id", w.ID),
		zap.String("file", w.File.Name),
		zap.Int("score", ScoreFromAnalysis(analysis)),
	)
}

func (p *Pipeline) fail(w WorkItem, stage string, err error, fallback string) {
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}

	zap.L().Error("cv processing failed",
		zap.String("item_id", w.ID),
		zap.String("file", w.File.Name),
		zap.String("stage", stage),
		zap.String("class", resilience.ClassifyError(err)),
		zap.Error(err),
	)

	p.report(w.ID, Update{Status: model.StatusError, Progress: 0, Err: msg})
}
