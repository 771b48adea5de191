package batch

import (
	"context"
	"sync"

	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// fakeProcessor is an in-memory processor.Client for pipeline tests.
type fakeProcessor struct {
	mu           sync.Mutex
	extractCalls int
	matchCalls   int
	deepCalls    int

	extractText string
	analysis    processor.MatchAnalysis
	deep        processor.DeepAnalysis

	extractFailures int // fail this many extract calls before succeeding
	matchFailures   int
	extractErr      error // permanent failure for every extract call
	matchErr        error
	deepErr         error

	onExtract func()
}

func (f *fakeProcessor) ExtractText(_ context.Context, _ processor.FileUpload) (*processor.ExtractResult, error) {
	f.mu.Lock()
	f.extractCalls++
	calls := f.extractCalls
	hook := f.onExtract
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	if calls <= f.extractFailures {
		return nil, errTemporary
	}
	return &processor.ExtractResult{Text: f.extractText}, nil
}

func (f *fakeProcessor) MatchVacancy(_ context.Context, _ processor.FileUpload, _ string, _ processor.Vacancy) (*processor.MatchAnalysis, error) {
	f.mu.Lock()
	f.matchCalls++
	calls := f.matchCalls
	f.mu.Unlock()

	if f.matchErr != nil {
		return nil, f.matchErr
	}
	if calls <= f.matchFailures {
		return nil, errTemporary
	}
	a := f.analysis
	return &a, nil
}

func (f *fakeProcessor) AnalyzeDeep(_ context.Context, _ processor.FileUpload, _ string, _ processor.Vacancy, _ string) (*processor.DeepAnalysis, error) {
	f.mu.Lock()
	f.deepCalls++
	f.mu.Unlock()

	if f.deepErr != nil {
		return nil, f.deepErr
	}
	d := f.deep
	return &d, nil
}

func (f *fakeProcessor) counts() (extract, match, deep int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extractCalls, f.matchCalls, f.deepCalls
}
