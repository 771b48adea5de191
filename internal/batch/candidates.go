package batch

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// PhonePlaceholder fills the phone field of a candidate record when no
// phone number was parsed from the CV.
const PhonePlaceholder = "+52 55 0000 0000"

const maxCandidateSkills = 5

// canonical spellings for tech terms that arrive lowercased from the
// matching service.
var techTermNames = map[string]string{
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"nodejs":     "Node.js",
	"node.js":    "Node.js",
	"node":       "Node.js",
	"react":      "React",
	"reactjs":    "React",
	"angular":    "Angular",
	"vue":        "Vue",
	"python":     "Python",
	"java":       "Java",
	"golang":     "Go",
	"go":         "Go",
	"php":        "PHP",
	"sql":        "SQL",
	"mysql":      "MySQL",
	"postgresql": "PostgreSQL",
	"postgres":   "PostgreSQL",
	"mongodb":    "MongoDB",
	"aws":        "AWS",
	"gcp":        "GCP",
	"azure":      "Azure",
	"docker":     "Docker",
	"kubernetes": "Kubernetes",
	"html":       "HTML",
	"css":        "CSS",
	"git":        "Git",
	"ci/cd":      "CI/CD",
	"rest":       "REST",
	"graphql":    "GraphQL",
	"api":        "API",
}

// MapRecommendation converts the matching service's recommendation label
// plus the normalized score into a pipeline bucket. Already-bucketed values
// pass through unchanged; a missing label is derived from the score alone;
// an unrecognized label defaults to REVIEW for a human to sort out.
func MapRecommendation(backend string, score int) model.RecommendationBucket {
	switch strings.ToUpper(strings.TrimSpace(backend)) {
	case "RECOMMEND":
		return model.RecommendationStrongMatch
	case "MAYBE":
		if score >= 60 {
			return model.RecommendationReview
		}
		return model.RecommendationConsider
	case "REJECT":
		return model.RecommendationReject
	case string(model.RecommendationStrongMatch):
		return model.RecommendationStrongMatch
	case string(model.RecommendationReview):
		return model.RecommendationReview
	case string(model.RecommendationConsider):
		return model.RecommendationConsider
	case "":
		switch {
		case score >= 70:
			return model.RecommendationReview
		case score >= 40:
			return model.RecommendationConsider
		default:
			return model.RecommendationReject
		}
	default:
		return model.RecommendationReview
	}
}

// parenTermRe captures a short key term called out in parentheses inside
// a longer requirement description.
var parenTermRe = regexp.MustCompile(`\(([^)]+)\)`)

// CleanSkillName normalizes a raw skill token. Requirement names often
// arrive as full sentences ("React es una biblioteca..."); those are
// reduced to their key term: a parenthesized mention wins, otherwise the
// clause before "es"/"is" is kept, otherwise the text is truncated.
// Known tech terms get their canonical spelling restored.
func CleanSkillName(raw string) string {
	s := strings.TrimSpace(raw)
	if len([]rune(s)) > 30 {
		if m := parenTermRe.FindStringSubmatch(s); m != nil {
			s = m[1]
		} else if head := beforeDescriptor(s); head != "" {
			s = head
		}
	}

	s = strings.Trim(strings.TrimSpace(s), ".,;:()[]\"'")
	if s == "" {
		return ""
	}
	if canonical, ok := techTermNames[strings.ToLower(s)]; ok {
		return canonical
	}
	if r := []rune(s); len(r) > 30 {
		s = strings.TrimSpace(string(r[:30]))
	}
	return s
}

// beforeDescriptor returns the clause preceding an "es"/"is" descriptor,
// or empty when the text has none.
func beforeDescriptor(s string) string {
	lower := strings.ToLower(s)
	for _, sep := range []string{" es ", " is "} {
		if i := strings.Index(lower, sep); i > 0 {
			return strings.TrimSpace(s[:i])
		}
	}
	return ""
}

// ExtractSkills collects skills from a match analysis. Matched
// requirements are the primary source: each entry with a positive match
// contributes its requirement name plus the tech terms found for it. The
// service's flat skill list is only a fallback for analyses with no
// matched requirements. Deduplicated, cleaned, at most six.
func ExtractSkills(a *processor.MatchAnalysis) []string {
	if a == nil {
		return nil
	}

	var raw []string
	for _, group := range [][]processor.RequirementMatch{a.MustHaveMatches, a.NiceToHaveMatch} {
		for _, m := range group {
			if !m.IsMatch {
				continue
			}
			raw = append(raw, m.Requirement)
			raw = append(raw, m.MatchDetails.FoundTechTerms...)
		}
	}
	if len(raw) == 0 {
		raw = a.Skills
	}

	seen := make(map[string]bool)
	var skills []string
	for _, r := range raw {
		s := CleanSkillName(r)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		skills = append(skills, s)
		if len(skills) == 6 {
			break
		}
	}
	return skills
}

// BuildCandidates turns the successfully analyzed items of a batch into
// hire-pipeline candidate records. Items that errored or never finished are
// skipped. Missing contact fields get deterministic fallbacks: the file
// name (without extension) for the name, a placeholder for the phone.
func BuildCandidates(items []model.CVItem, vacancies map[string]processor.Vacancy, now time.Time) []model.Candidate {
	var out []model.Candidate
	for _, item := range items {
		if item.Status != model.StatusCompleted || item.Analysis == nil {
			continue
		}

		score := ScoreFromAnalysis(item.Analysis)

		var contact model.ContactData
		if item.Contact != nil {
			contact = *item.Contact
		}
		name := contact.Name
		if name == "" {
			name = strings.TrimSuffix(item.FileName, filepathExt(item.FileName))
		}
		phone := contact.Phone
		if phone == "" {
			phone = PhonePlaceholder
		}

		title := "Sin asignar"
		if vac, ok := vacancies[item.VacancyID]; ok && vac.Title != "" {
			title = vac.Title
		}

		years := item.Analysis.YearsExperience
		if years < 1 {
			years = 1
		}

		skills := ExtractSkills(item.Analysis)
		if len(skills) > maxCandidateSkills {
			skills = skills[:maxCandidateSkills]
		}

		out = append(out, model.Candidate{
			ID:              uuid.NewString(),
			Name:            name,
			Email:           contact.Email,
			Phone:           phone,
			VacancyID:       item.VacancyID,
			VacancyTitle:    title,
			Column:          model.PipelineColumnCandidates,
			Score:           score,
			Skills:          skills,
			YearsExperience: years,
			AppliedAt:       now,
			Recommendation:  MapRecommendation(item.Analysis.Recommendation, score),
			Deep:            item.Deep,
		})
	}
	return out
}

func filepathExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
