package deepeval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/reclutahub/recluta-cli/pkg/anthropic"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

const deepSystemPrompt = `Eres un evaluador experto de candidatos. Analiza el CV contra la vacante y responde SOLO con un objeto JSON con esta estructura:
{
  "strengths": ["..."],
  "weaknesses": ["..."],
  "overall": {
    "summary": "...",
    "must_have_analysis": "...",
    "nice_to_have_analysis": "...",
    "score": 0.0
  },
  "must_have_evaluation": [{"requirement": "...", "met": true, "comment": "..."}],
  "nice_to_have_evaluation": [{"requirement": "...", "met": true, "comment": "..."}],
  "recommendation": "RECOMMEND|MAYBE|REJECT"
}`

type anthropicEvaluator struct {
	client anthropic.Client
	model  string
}

// NewAnthropicEvaluator evaluates directly against the Anthropic API,
// using the raw text extracted during the main pass.
func NewAnthropicEvaluator(client anthropic.Client, model string) Evaluator {
	return &anthropicEvaluator{client: client, model: model}
}

func (e *anthropicEvaluator) Evaluate(ctx context.Context, req Request) (*processor.DeepAnalysis, error) {
	if req.RawText == "" {
		return nil, eris.New("deepeval: no extracted text available for direct evaluation")
	}

	vacancyJSON, err := json.Marshal(req.Vacancy)
	if err != nil {
		return nil, eris.Wrap(err, "deepeval: marshal vacancy")
	}

	prompt := fmt.Sprintf("Vacante:\n%s\n\nCV del candidato:\n%s", vacancyJSON, req.RawText)

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 2048,
		System:    deepSystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "deepeval: create message")
	}
	resp.Usage.LogUsage(e.model, "deep-evaluation")

	var analysis processor.DeepAnalysis
	if err := json.Unmarshal([]byte(stripFences(resp.Text())), &analysis); err != nil {
		return nil, eris.Wrap(err, "deepeval: parse evaluation response")
	}
	return &analysis, nil
}

// stripFences removes a markdown code fence around a JSON payload, which
// the model sometimes adds despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
