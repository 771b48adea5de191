package model

import (
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// ItemStatus represents the processing state of one uploaded CV.
type ItemStatus string

const (
	StatusPending       ItemStatus = "pending"
	StatusExtracting    ItemStatus = "extracting"
	StatusAnalyzing     ItemStatus = "analyzing"
	StatusDeepAnalyzing ItemStatus = "deep_analyzing"
	StatusCompleted     ItemStatus = "completed"
	StatusError         ItemStatus = "error"
)

// Terminal reports whether the status is terminal for the main pass.
// deep_analyzing trails asynchronously after completed and is not counted.
func (s ItemStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ContactData is the contact information parsed from a CV.
type ContactData struct {
	Name  string `json:"nombre"`
	Email string `json:"email"`
	Phone string `json:"telefono"`
}

// Merge overlays non-empty fields from other onto a copy of c.
func (c ContactData) Merge(other ContactData) ContactData {
	if other.Name != "" {
		c.Name = other.Name
	}
	if other.Email != "" {
		c.Email = other.Email
	}
	if other.Phone != "" {
		c.Phone = other.Phone
	}
	return c
}

// CVItem is the processing record for one uploaded CV file.
//
// Invariants: exactly one status at a time; progress is 0-100 and
// non-decreasing while the status is unchanged; completed and error are
// terminal for the main pass (progress 100 and 0 respectively); Contact
// and Analysis are monotonic - once set by a successful stage they are
// only cleared by an explicit reset back to the upload step.
type CVItem struct {
	ID        string                   `json:"id"`
	File      processor.FileUpload     `json:"-"`
	FileName  string                   `json:"file_name"`
	FileSize  int64                    `json:"file_size"`
	Status    ItemStatus               `json:"status"`
	Progress  int                      `json:"progress"`
	VacancyID string                   `json:"vacante_id,omitempty"`
	Contact   *ContactData             `json:"contact_data,omitempty"`
	Analysis  *processor.MatchAnalysis `json:"analysis_result,omitempty"`
	Deep      *DeepAnalysis            `json:"deep_analysis,omitempty"`
	RawText   string                   `json:"-"`
	Error     string                   `json:"error,omitempty"`
}

// DeepAnalysis is the flattened second-pass evaluation merged into an item
// after a successful deep analysis call.
type DeepAnalysis struct {
	Strengths            []string                          `json:"strengths"`
	Weaknesses           []string                          `json:"weaknesses"`
	OverallSummary       string                            `json:"overall_summary"`
	MustHaveAnalysis     string                            `json:"must_have_analysis"`
	NiceToHaveAnalysis   string                            `json:"nice_to_have_analysis"`
	MustHaveEvaluation   []processor.RequirementEvaluation `json:"must_have_evaluation"`
	NiceToHaveEvaluation []processor.RequirementEvaluation `json:"nice_to_have_evaluation"`
	Recommendation       string                            `json:"recommendation,omitempty"`
	DeepScore            float64                           `json:"deep_score,omitempty"`
}

// FlattenDeep converts the wire-format deep analysis into the merged shape.
func FlattenDeep(d *processor.DeepAnalysis) *DeepAnalysis {
	if d == nil {
		return nil
	}
	return &DeepAnalysis{
		Strengths:            d.Strengths,
		Weaknesses:           d.Weaknesses,
		OverallSummary:       d.Overall.Summary,
		MustHaveAnalysis:     d.Overall.MustHaveAnalysis,
		NiceToHaveAnalysis:   d.Overall.NiceToHaveAnalysis,
		MustHaveEvaluation:   d.MustHaveEvaluation,
		NiceToHaveEvaluation: d.NiceToHaveEvaluation,
		Recommendation:       d.Recommendation,
		DeepScore:            d.Overall.Score,
	}
}

// BatchStep is the UI step of a bulk-upload session.
type BatchStep string

const (
	StepUpload     BatchStep = "upload"
	StepProcessing BatchStep = "processing"
	StepResults    BatchStep = "results"
)
