package processor

// FileUpload is an in-memory CV file handed to the processor services.
// Each CVItem owns its upload exclusively; uploads are never shared.
type FileUpload struct {
	Name string
	Data []byte
}

// Vacancy is an immutable snapshot of a job opening, captured when a batch
// run starts so every CV in the run is scored against the same criteria.
type Vacancy struct {
	ID           string       `json:"-" yaml:"id"`
	Title        string       `json:"title" yaml:"title"`
	Description  string       `json:"description" yaml:"description"`
	Department   string       `json:"-" yaml:"department"`
	Level        string       `json:"level" yaml:"level"`
	Requirements Requirements `json:"requirements" yaml:"requirements"`
}

// Requirements splits a vacancy's requirements into required and optional.
type Requirements struct {
	MustHave   []Requirement `json:"must_have" yaml:"must_have"`
	NiceToHave []Requirement `json:"nice_to_have" yaml:"nice_to_have"`
}

// Requirement is a single requirement line.
type Requirement struct {
	Requirement string `json:"requirement" yaml:"requirement"`
}

// ExtractResult is the text-extraction service response.
type ExtractResult struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MatchAnalysis is the semantic matching service response. The service is
// loose about which score field it populates and whether scores are 0-1
// ratios or 0-100 percentages; batch.ScoreFromAnalysis normalizes this
// once at the boundary.
type MatchAnalysis struct {
	MatchScore      float64            `json:"match_score,omitempty"`
	OverallScore    float64            `json:"overall_score,omitempty"`
	MustHaveScore   float64            `json:"must_have_score,omitempty"`
	NiceToHaveScore float64            `json:"nice_to_have_score,omitempty"`
	MustHaveMatches []RequirementMatch `json:"must_have_matches,omitempty"`
	NiceToHaveMatch []RequirementMatch `json:"nice_to_have_matches,omitempty"`
	YearsExperience int                `json:"years_experience,omitempty"`
	Recommendation  string             `json:"recommendation,omitempty"`
	ShouldSendToLLM bool               `json:"should_send_to_llm,omitempty"`
	Summary         string             `json:"summary,omitempty"`
	Skills          []string           `json:"skills,omitempty"`
}

// RequirementMatch is the per-requirement match verdict.
type RequirementMatch struct {
	Requirement     string       `json:"requirement"`
	IsMatch         bool         `json:"is_match"`
	SimilarityScore float64      `json:"similarity_score"`
	MatchDetails    MatchDetails `json:"match_details,omitempty"`
}

// MatchDetails carries extra evidence for a requirement match.
type MatchDetails struct {
	FoundTechTerms []string `json:"found_tech_terms,omitempty"`
}

// DeepAnalysis is the deep LLM evaluation response.
type DeepAnalysis struct {
	Strengths            []string                `json:"strengths,omitempty"`
	Weaknesses           []string                `json:"weaknesses,omitempty"`
	Overall              DeepOverall             `json:"overall"`
	MustHaveEvaluation   []RequirementEvaluation `json:"must_have_evaluation,omitempty"`
	NiceToHaveEvaluation []RequirementEvaluation `json:"nice_to_have_evaluation,omitempty"`
	Recommendation       string                  `json:"recommendation,omitempty"`
}

// DeepOverall is the summary block of a deep evaluation.
type DeepOverall struct {
	Summary            string  `json:"summary,omitempty"`
	MustHaveAnalysis   string  `json:"must_have_analysis,omitempty"`
	NiceToHaveAnalysis string  `json:"nice_to_have_analysis,omitempty"`
	Score              float64 `json:"score,omitempty"`
}

// RequirementEvaluation is the deep evaluator's verdict on one requirement.
type RequirementEvaluation struct {
	Requirement string `json:"requirement"`
	Met         bool   `json:"met"`
	Comment     string `json:"comment,omitempty"`
}
