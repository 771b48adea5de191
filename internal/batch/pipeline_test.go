package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/internal/resilience"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

var errTemporary = errors.New("temporarily unavailable")

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

type recordedUpdate struct {
	ID string
	Update
}

// recordingReporter captures every progress update in order.
func recordingReporter() (ProgressFunc, func() []recordedUpdate) {
	var mu sync.Mutex
	var updates []recordedUpdate
	report := func(id string, u Update) {
		mu.Lock()
		updates = append(updates, recordedUpdate{ID: id, Update: u})
		mu.Unlock()
	}
	snapshot := func() []recordedUpdate {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedUpdate(nil), updates...)
	}
	return report, snapshot
}

func TestPipeline_ProgressSequence(t *testing.T) {
	proc := &fakeProcessor{
		extractText: "Laura Méndez\nlaura@example.com",
		analysis:    processor.MatchAnalysis{MatchScore: 77},
	}
	report, snapshot := recordingReporter()
	p := NewPipeline(proc, fastRetry(), report)

	p.Process(context.Background(), WorkItem{ID: "cv-1", File: processor.FileUpload{Name: "laura.pdf"}})

	updates := snapshot()
	require.Len(t, updates, 5)

	type step struct {
		status   model.ItemStatus
		progress int
	}
	want := []step{
		{model.StatusExtracting, 10},
		{model.StatusExtracting, 25},
		{model.StatusAnalyzing, 40},
		{model.StatusAnalyzing, 90},
		{model.StatusCompleted, 100},
	}
	for i, w := range want {
		assert.Equal(t, w.status, updates[i].Status, "update %d", i)
		assert.Equal(t, w.progress, updates[i].Progress, "update %d", i)
	}

	final := updates[4]
	require.NotNil(t, final.Data)
	assert.Equal(t, "Laura Méndez", final.Data.Contact.Name)
	assert.Equal(t, "laura@example.com", final.Data.Contact.Email)
	assert.Equal(t, proc.extractText, final.Data.RawText)
	require.NotNil(t, final.Data.Analysis)
	assert.Equal(t, float64(77), final.Data.Analysis.MatchScore)
}

func TestPipeline_RetriesTransientExtractFailure(t *testing.T) {
	proc := &fakeProcessor{
		extractText:     "texto",
		extractFailures: 1,
		analysis:        processor.MatchAnalysis{MatchScore: 50},
	}
	report, snapshot := recordingReporter()
	p := NewPipeline(proc, fastRetry(), report)

	p.Process(context.Background(), WorkItem{ID: "cv-1"})

	extract, match, _ := proc.counts()
	assert.Equal(t, 2, extract)
	assert.Equal(t, 1, match)

	updates := snapshot()
	assert.Equal(t, model.StatusCompleted, updates[len(updates)-1].Status)
}

func TestPipeline_ExhaustedRetriesFailItemVerbatim(t *testing.T) {
	proc := &fakeProcessor{
		extractText: "texto",
		matchErr:    errors.New("Error al analizar CV"),
	}
	report, snapshot := recordingReporter()
	p := NewPipeline(proc, fastRetry(), report)

	p.Process(context.Background(), WorkItem{ID: "cv-1"})

	_, match, _ := proc.counts()
	assert.Equal(t, 2, match, "permanent errors are still retried up to the attempt cap")

	updates := snapshot()
	final := updates[len(updates)-1]
	assert.Equal(t, model.StatusError, final.Status)
	assert.Equal(t, 0, final.Progress)
	assert.Equal(t, "Error al analizar CV", final.Err)
	assert.Nil(t, final.Data)
}

func TestPipeline_ExtractFailureSkipsMatch(t *testing.T) {
	proc := &fakeProcessor{extractErr: errors.New("Error al procesar el archivo")}
	report, snapshot := recordingReporter()
	p := NewPipeline(proc, fastRetry(), report)

	p.Process(context.Background(), WorkItem{ID: "cv-1"})

	_, match, _ := proc.counts()
	assert.Equal(t, 0, match)

	updates := snapshot()
	final := updates[len(updates)-1]
	assert.Equal(t, model.StatusError, final.Status)
	assert.Equal(t, "Error al procesar el archivo", final.Err)
}
