package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclutahub/recluta-cli/internal/deepeval"
	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

const sampleCV = "Juan Pérez López\nDesarrollador Backend\njuan.perez@example.com\n+52 55 1234 5678\n"

func newTestSession(proc processor.Client, deep *DeepScheduler, concurrency int) *Session {
	return NewSession(SessionConfig{
		Processor:   proc,
		Deep:        deep,
		Retry:       fastRetry(),
		Concurrency: concurrency,
	})
}

func TestSession_EndToEnd(t *testing.T) {
	proc := &fakeProcessor{
		extractText: sampleCV,
		analysis: processor.MatchAnalysis{
			MatchScore:      88,
			Recommendation:  "RECOMMEND",
			ShouldSendToLLM: true,
			YearsExperience: 4,
			Skills:          []string{"go", "postgres"},
		},
		deep: processor.DeepAnalysis{
			Overall: processor.DeepOverall{Summary: "perfil sólido", Score: 0.9},
		},
	}
	eval := deepeval.NewProcessorEvaluator(proc)
	session := newTestSession(proc, NewDeepScheduler(eval, "haiku"), 2)

	session.RegisterVacancy(processor.Vacancy{ID: "V1", Title: "Backend Developer"})
	session.SetGlobalVacancy("V1")

	res := session.AddFiles(context.Background(), []processor.FileUpload{
		{Name: "cv1.pdf", Data: []byte("a")},
		{Name: "cv2.pdf", Data: []byte("bb")},
		{Name: "cv3.pdf", Data: []byte("ccc")},
	})
	require.Equal(t, 3, res.Added)
	require.Empty(t, res.Errors)

	session.WaitPrefetch()
	assert.True(t, session.CanStart(), "prefetched contact data should satisfy the gate")

	require.NoError(t, session.Start(context.Background()))
	session.WaitDeep()

	assert.Equal(t, model.StepResults, session.Step())

	items := session.Items()
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, model.StatusCompleted, item.Status)
		assert.Equal(t, 100, item.Progress)
		assert.Equal(t, "V1", item.VacancyID)
		require.NotNil(t, item.Contact)
		assert.Equal(t, "Juan Pérez López", item.Contact.Name)
		require.NotNil(t, item.Deep)
		assert.Equal(t, "perfil sólido", item.Deep.OverallSummary)
	}

	stats := session.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.SuccessCount)
	assert.Equal(t, 0, stats.ErrorCount)
	assert.Equal(t, 88, stats.AvgScore)
	assert.Equal(t, 3, stats.HighMatch)

	candidates := session.Candidates(time.Now())
	require.Len(t, candidates, 3)
	for _, c := range candidates {
		assert.Equal(t, "V1", c.VacancyID)
		assert.Equal(t, "Backend Developer", c.VacancyTitle)
		assert.Equal(t, model.PipelineColumnCandidates, c.Column)
		assert.Equal(t, model.RecommendationStrongMatch, c.Recommendation)
	}
}

func TestSession_CanStartGate(t *testing.T) {
	proc := &fakeProcessor{extractText: "sin datos de contacto"}
	session := newTestSession(proc, nil, 1)

	assert.False(t, session.CanStart(), "empty batch cannot start")

	session.AddFiles(context.Background(), []processor.FileUpload{{Name: "cv.pdf", Data: []byte("x")}})
	session.WaitPrefetch()
	assert.False(t, session.CanStart(), "missing name and email blocks the gate")

	session.UpdateContact(session.Items()[0].ID, model.ContactData{
		Name:  "Sofía Navarro",
		Email: "sofia@example.com",
	})
	assert.False(t, session.CanStart(), "no vacancy assigned yet")

	session.SetGlobalVacancy("V1")
	assert.True(t, session.CanStart())
}

func TestSession_UpdateContactMergesEdits(t *testing.T) {
	proc := &fakeProcessor{extractText: sampleCV}
	session := newTestSession(proc, nil, 1)

	session.AddFiles(context.Background(), []processor.FileUpload{{Name: "cv.pdf", Data: []byte("x")}})
	session.WaitPrefetch()
	id := session.Items()[0].ID

	session.UpdateContact(id, model.ContactData{Name: "Nombre Corregido"})

	item, _ := session.Item(id)
	require.NotNil(t, item.Contact)
	assert.Equal(t, "Nombre Corregido", item.Contact.Name)
	assert.Equal(t, "juan.perez@example.com", item.Contact.Email, "unedited fields survive")
}

func TestSession_CancelSkipsRemainingItems(t *testing.T) {
	proc := &fakeProcessor{
		extractText: sampleCV,
		analysis:    processor.MatchAnalysis{MatchScore: 70},
	}
	session := newTestSession(proc, nil, 1)
	// Cancel as soon as the first in-flight extraction begins: with one
	// worker, the remaining items must be skipped, not processed.
	started := false
	proc.onExtract = func() {
		if started {
			session.Cancel()
		}
	}

	session.AddFiles(context.Background(), []processor.FileUpload{
		{Name: "cv1.pdf", Data: []byte("a")},
		{Name: "cv2.pdf", Data: []byte("bb")},
		{Name: "cv3.pdf", Data: []byte("ccc")},
	})
	session.WaitPrefetch()
	started = true

	require.NoError(t, session.Start(context.Background()))

	var completed, cancelled int
	for _, item := range session.Items() {
		switch {
		case item.Status == model.StatusCompleted:
			completed++
		case item.Status == model.StatusError && item.Error == "Procesamiento cancelado":
			cancelled++
		default:
			t.Fatalf("item %s left non-terminal: %s", item.ID, item.Status)
		}
	}
	assert.Equal(t, 1, completed, "the in-flight item finishes normally")
	assert.Equal(t, 2, cancelled)
}

func TestSession_StartEmptyFails(t *testing.T) {
	session := newTestSession(&fakeProcessor{}, nil, 1)
	err := session.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files queued")
}

func TestSession_BackToUploadKeepsFilesAndContact(t *testing.T) {
	proc := &fakeProcessor{
		extractText: sampleCV,
		analysis:    processor.MatchAnalysis{MatchScore: 60},
	}
	session := newTestSession(proc, nil, 2)

	session.AddFiles(context.Background(), []processor.FileUpload{{Name: "cv.pdf", Data: []byte("x")}})
	session.WaitPrefetch()
	require.NoError(t, session.Start(context.Background()))

	session.BackToUpload()

	assert.Equal(t, model.StepUpload, session.Step())
	items := session.Items()
	require.Len(t, items, 1)
	assert.Equal(t, model.StatusPending, items[0].Status)
	assert.Nil(t, items[0].Analysis)
	require.NotNil(t, items[0].Contact)
	assert.Equal(t, "Juan Pérez López", items[0].Contact.Name)

	// The batch can run again after the reset.
	require.NoError(t, session.Start(context.Background()))
	assert.Equal(t, model.StatusCompleted, session.Items()[0].Status)
}

func TestSession_ClearResetsEverything(t *testing.T) {
	proc := &fakeProcessor{extractText: sampleCV}
	session := newTestSession(proc, nil, 1)

	session.AddFiles(context.Background(), []processor.FileUpload{{Name: "cv.pdf", Data: []byte("x")}})
	session.WaitPrefetch()
	session.Clear()

	assert.Empty(t, session.Items())
	assert.Equal(t, model.StepUpload, session.Step())
}
