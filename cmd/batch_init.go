package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/reclutahub/recluta-cli/internal/batch"
	"github.com/reclutahub/recluta-cli/internal/deepeval"
	"github.com/reclutahub/recluta-cli/internal/resilience"
	"github.com/reclutahub/recluta-cli/internal/store"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// batchEnv holds the initialized clients and stores shared by the analyze
// and serve commands.
type batchEnv struct {
	Proc  processor.Client
	Deep  *batch.DeepScheduler
	Store store.Store
}

// Close releases resources held by the environment.
func (e *batchEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initBatch sets up the processor client, the deep evaluator and the
// candidate store. Callers should defer env.Close().
func initBatch(ctx context.Context, needStore bool) (*batchEnv, error) {
	opts := []processor.Option{
		processor.WithTimeout(time.Duration(cfg.Processor.TimeoutSecs) * time.Second),
	}
	if cfg.Processor.RateLimitRPS > 0 {
		opts = append(opts, processor.WithRateLimit(cfg.Processor.RateLimitRPS))
	}
	proc := processor.NewClient(cfg.Processor.BaseURL, cfg.Processor.APIKey, opts...)

	eval, err := deepeval.New(cfg.Deep, cfg.Anthropic, proc)
	if err != nil {
		return nil, err
	}

	env := &batchEnv{
		Proc: proc,
		Deep: batch.NewDeepScheduler(eval, cfg.Deep.Model),
	}

	if needStore {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
	}

	return env, nil
}

// newSession builds a session wired to the environment with the configured
// limits and retry policy.
func (e *batchEnv) newSession(concurrency int) *batch.Session {
	if concurrency <= 0 {
		concurrency = cfg.Batch.Concurrency
	}
	retry := resilience.DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialBackoffMS > 0 {
		retry.InitialBackoff = time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond
	}

	return batch.NewSession(batch.SessionConfig{
		Processor:   e.Proc,
		Deep:        e.Deep,
		Retry:       retry,
		Concurrency: concurrency,
		Limits: batch.Limits{
			MaxFiles:    cfg.Batch.MaxFiles,
			MaxFileSize: int64(cfg.Batch.MaxFileSizeMB) * 1024 * 1024,
		},
	})
}
