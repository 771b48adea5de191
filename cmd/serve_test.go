package main

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclutahub/recluta-cli/internal/batch"
	"github.com/reclutahub/recluta-cli/internal/config"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// gatedProcessor blocks extraction until released, so a test can control
// the ordering between a handler returning and its background work.
type gatedProcessor struct {
	release chan struct{}
	text    string
}

func (p *gatedProcessor) ExtractText(ctx context.Context, _ processor.FileUpload) (*processor.ExtractResult, error) {
	<-p.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &processor.ExtractResult{Text: p.text}, nil
}

func (p *gatedProcessor) MatchVacancy(ctx context.Context, _ processor.FileUpload, _ string, _ processor.Vacancy) (*processor.MatchAnalysis, error) {
	return &processor.MatchAnalysis{}, nil
}

func (p *gatedProcessor) AnalyzeDeep(ctx context.Context, _ processor.FileUpload, _ string, _ processor.Vacancy, _ string) (*processor.DeepAnalysis, error) {
	return &processor.DeepAnalysis{}, nil
}

func multipartUpload(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// The contact prefetch spawned by an upload must keep running after the
// request finishes: net/http cancels the request context as soon as the
// handler returns, so the session has to work off the server context.
func TestUploadFiles_PrefetchSurvivesRequestCancel(t *testing.T) {
	cfg = &config.Config{Batch: config.BatchConfig{Concurrency: 1}}
	proc := &gatedProcessor{
		release: make(chan struct{}),
		text:    "Ana Torres\nDesarrolladora Backend\nana@example.com\n+52 55 1234 5678\n",
	}
	hub := &sessionHub{
		env:      &batchEnv{Proc: proc},
		baseCtx:  context.Background(),
		sessions: make(map[string]*batch.Session),
	}
	session := hub.env.newSession(0)
	hub.sessions["b1"] = session

	body, contentType := multipartUpload(t, "cv.pdf", []byte("%PDF"))
	reqCtx, cancelReq := context.WithCancel(context.Background())
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("batchID", "b1")
	req := httptest.NewRequest(http.MethodPost, "/api/batches/b1/files", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(context.WithValue(reqCtx, chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	hub.uploadFiles(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Request context dies before the extraction is allowed to proceed.
	cancelReq()
	close(proc.release)
	session.WaitPrefetch()

	items := session.Items()
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Contact)
	assert.Equal(t, "Ana Torres", items[0].Contact.Name)
	assert.Equal(t, "ana@example.com", items[0].Contact.Email)
}
