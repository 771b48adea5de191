package deepeval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclutahub/recluta-cli/internal/config"
	"github.com/reclutahub/recluta-cli/pkg/anthropic"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

type fakeAnthropicClient struct {
	req  anthropic.MessageRequest
	text string
	err  error
}

func (f *fakeAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func TestNew_ProviderSelection(t *testing.T) {
	proc := &fakeDeepClient{}

	e, err := New(config.DeepConfig{Provider: "processor"}, config.AnthropicConfig{}, proc)
	require.NoError(t, err)
	assert.IsType(t, &processorEvaluator{}, e)

	e, err = New(config.DeepConfig{}, config.AnthropicConfig{}, proc)
	require.NoError(t, err)
	assert.IsType(t, &processorEvaluator{}, e, "empty provider defaults to processor")

	_, err = New(config.DeepConfig{Provider: "anthropic"}, config.AnthropicConfig{}, proc)
	require.Error(t, err, "anthropic provider needs a key")

	e, err = New(config.DeepConfig{Provider: "anthropic"}, config.AnthropicConfig{Key: "sk-test"}, proc)
	require.NoError(t, err)
	assert.IsType(t, &anthropicEvaluator{}, e)

	_, err = New(config.DeepConfig{Provider: "mistral"}, config.AnthropicConfig{}, proc)
	require.Error(t, err)
}

func TestResolveModel(t *testing.T) {
	acfg := config.AnthropicConfig{HaikuModel: "claude-haiku-x", SonnetModel: "claude-sonnet-y"}
	assert.Equal(t, "claude-haiku-x", resolveModel("", acfg))
	assert.Equal(t, "claude-haiku-x", resolveModel("haiku", acfg))
	assert.Equal(t, "claude-sonnet-y", resolveModel("sonnet", acfg))
	assert.Equal(t, "claude-opus-z", resolveModel("claude-opus-z", acfg), "full ids pass through")
}

func TestAnthropicEvaluator_ParsesJSON(t *testing.T) {
	fake := &fakeAnthropicClient{
		text: "```json\n{\"strengths\":[\"experiencia en Go\"],\"overall\":{\"summary\":\"buen perfil\",\"score\":0.8},\"recommendation\":\"RECOMMEND\"}\n```",
	}
	e := NewAnthropicEvaluator(fake, "claude-haiku-x")

	out, err := e.Evaluate(context.Background(), Request{
		CandidateID: "cv-1",
		RawText:     "texto del cv",
		Vacancy:     processor.Vacancy{Title: "Backend Developer"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"experiencia en Go"}, out.Strengths)
	assert.Equal(t, "buen perfil", out.Overall.Summary)
	assert.Equal(t, "RECOMMEND", out.Recommendation)

	assert.Equal(t, "claude-haiku-x", fake.req.Model)
	assert.Contains(t, fake.req.Messages[0].Content, "texto del cv")
	assert.Contains(t, fake.req.Messages[0].Content, "Backend Developer")
}

func TestAnthropicEvaluator_RequiresRawText(t *testing.T) {
	e := NewAnthropicEvaluator(&fakeAnthropicClient{}, "m")
	_, err := e.Evaluate(context.Background(), Request{CandidateID: "cv-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extracted text")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}

// fakeDeepClient is a minimal processor.Client for provider wiring tests.
type fakeDeepClient struct{}

func (f *fakeDeepClient) ExtractText(context.Context, processor.FileUpload) (*processor.ExtractResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDeepClient) MatchVacancy(context.Context, processor.FileUpload, string, processor.Vacancy) (*processor.MatchAnalysis, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDeepClient) AnalyzeDeep(_ context.Context, _ processor.FileUpload, id string, _ processor.Vacancy, model string) (*processor.DeepAnalysis, error) {
	return &processor.DeepAnalysis{Overall: processor.DeepOverall{Summary: "via " + model + " para " + id}}, nil
}

func TestProcessorEvaluator_Delegates(t *testing.T) {
	e := NewProcessorEvaluator(&fakeDeepClient{})
	out, err := e.Evaluate(context.Background(), Request{CandidateID: "cv-1", Model: "haiku"})
	require.NoError(t, err)
	assert.Equal(t, "via haiku para cv-1", out.Overall.Summary)
}
