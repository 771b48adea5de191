// Package processor provides a client for the CV-processor API: text
// extraction, CV-vacancy semantic matching, and deep LLM analysis.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/reclutahub/recluta-cli/internal/resilience"
)

// Client defines the CV-processor operations used by the batch pipeline.
type Client interface {
	// ExtractText extracts plain text from a CV file.
	ExtractText(ctx context.Context, file FileUpload) (*ExtractResult, error)
	// MatchVacancy scores a CV against a vacancy snapshot.
	MatchVacancy(ctx context.Context, file FileUpload, candidateID string, vacancy Vacancy) (*MatchAnalysis, error)
	// AnalyzeDeep runs the deep LLM evaluation for a qualifying CV.
	AnalyzeDeep(ctx context.Context, file FileUpload, candidateID string, vacancy Vacancy, model string) (*DeepAnalysis, error)
}

// Option configures the processor client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles outgoing requests to rps requests per second.
// Zero or negative disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a CV-processor client.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ExtractText(ctx context.Context, file FileUpload) (*ExtractResult, error) {
	form, contentType, err := buildForm(file, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/api/v1/cv/extract-text", contentType, form, "Error al procesar el archivo")
	if err != nil {
		return nil, err
	}

	var result ExtractResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "processor: decode extract response")
	}
	return &result, nil
}

func (c *httpClient) MatchVacancy(ctx context.Context, file FileUpload, candidateID string, vacancy Vacancy) (*MatchAnalysis, error) {
	fields, err := vacancyFields(candidateID, vacancy, "")
	if err != nil {
		return nil, err
	}
	form, contentType, err := buildForm(file, fields)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/api/v1/match/cv-vacancy", contentType, form, "Error al analizar CV")
	if err != nil {
		return nil, err
	}

	var analysis MatchAnalysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return nil, eris.Wrap(err, "processor: decode match response")
	}
	return &analysis, nil
}

func (c *httpClient) AnalyzeDeep(ctx context.Context, file FileUpload, candidateID string, vacancy Vacancy, model string) (*DeepAnalysis, error) {
	fields, err := vacancyFields(candidateID, vacancy, model)
	if err != nil {
		return nil, err
	}
	form, contentType, err := buildForm(file, fields)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/api/v1/analyze/deep", contentType, form, "Error en análisis profundo")
	if err != nil {
		return nil, err
	}

	// The deep endpoint nests the evaluation under "analysis".
	var resp struct {
		Analysis DeepAnalysis `json:"analysis"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "processor: decode deep response")
	}
	return &resp.Analysis, nil
}

// vacancyFields builds the common multipart fields for match/deep calls.
func vacancyFields(candidateID string, vacancy Vacancy, model string) (map[string]string, error) {
	payload, err := json.Marshal(vacancy)
	if err != nil {
		return nil, eris.Wrap(err, "processor: marshal vacancy")
	}
	fields := map[string]string{
		"candidate_id": candidateID,
		"vacancy_json": string(payload),
	}
	if model != "" {
		fields["model"] = model
	}
	return fields, nil
}

// buildForm assembles a multipart body with the file and extra fields.
func buildForm(file FileUpload, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, "", eris.Wrap(err, "processor: create form file")
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", eris.Wrap(err, "processor: write form file")
	}

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", eris.Wrapf(err, "processor: write field %s", name)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", eris.Wrap(err, "processor: close form")
	}
	return &buf, w.FormDataContentType(), nil
}

// post sends the form and returns the response body. Non-2xx responses are
// decoded into an error carrying the service's detail message (falling back
// to fallbackMsg) and marked transient for retryable status codes.
func (c *httpClient) post(ctx context.Context, path, contentType string, form *bytes.Buffer, fallbackMsg string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "processor: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, form)
	if err != nil {
		return nil, eris.Wrap(err, "processor: build request")
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "processor: POST %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "processor: read response %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svcErr := eris.New(errorDetail(body, fallbackMsg))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(svcErr, resp.StatusCode)
		}
		return nil, svcErr
	}

	return body, nil
}

// errorDetail extracts the service's error message from a failure body.
// Validation errors (422) arrive as a detail array; their messages are
// joined so the caller sees the real cause, not a generic wrapper.
func errorDetail(body []byte, fallback string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return fallback
	}

	var msg string
	if err := json.Unmarshal(payload.Detail, &msg); err == nil && msg != "" {
		return msg
	}

	var items []struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			switch {
			case it.Msg != "":
				parts = append(parts, it.Msg)
			case it.Message != "":
				parts = append(parts, it.Message)
			default:
				parts = append(parts, fmt.Sprintf("%v", it))
			}
		}
		return strings.Join(parts, ", ")
	}

	return fallback
}
