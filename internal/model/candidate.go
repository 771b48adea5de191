package model

import "time"

// RecommendationBucket is the hiring-pipeline recommendation shown on a
// candidate card.
type RecommendationBucket string

const (
	RecommendationStrongMatch RecommendationBucket = "STRONG_MATCH"
	RecommendationReview      RecommendationBucket = "REVIEW"
	RecommendationConsider    RecommendationBucket = "CONSIDER"
	RecommendationReject      RecommendationBucket = "REJECT"
)

// PipelineColumnCandidates is the kanban column new candidates land in.
const PipelineColumnCandidates = "candidatos"

// Candidate is a hire-pipeline-ready record built from a completed CV item.
type Candidate struct {
	ID              string               `json:"id"`
	Name            string               `json:"nombre"`
	Email           string               `json:"email"`
	Phone           string               `json:"telefono"`
	VacancyID       string               `json:"vacante_id"`
	VacancyTitle    string               `json:"vacante"`
	Column          string               `json:"columna"`
	Score           int                  `json:"score"`
	Skills          []string             `json:"habilidades"`
	YearsExperience int                  `json:"experiencia_anios"`
	AppliedAt       time.Time            `json:"fecha_aplicacion"`
	Recommendation  RecommendationBucket `json:"recommendation"`
	Deep            *DeepAnalysis        `json:"deep_analysis,omitempty"`
}

// BatchStats summarizes a finished batch for the results view.
type BatchStats struct {
	Total        int `json:"total"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
	AvgScore     int `json:"avg_score"`
	HighMatch    int `json:"high_match"`
}
