package batch

import (
	"math"

	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// ScoreFromAnalysis normalizes a match analysis to an integer 0-100 score.
//
// The matching service is inconsistent about which field carries the score
// and whether it is a 0-1 ratio or a 0-100 percentage, so the first
// positive of match_score, overall_score, must_have_score wins; values
// above 1 are taken as percentages, values at or below 1 as ratios. When
// no score field is populated, the score is derived from the requirement
// matches: 60% average similarity, 40% match ratio.
func ScoreFromAnalysis(a *processor.MatchAnalysis) int {
	if a == nil {
		return 0
	}

	direct := a.MatchScore
	if direct == 0 {
		direct = a.OverallScore
	}
	if direct == 0 {
		direct = a.MustHaveScore
	}
	if direct > 0 {
		if direct > 1 {
			return clampScore(int(math.Round(direct)))
		}
		return clampScore(int(math.Round(direct * 100)))
	}

	matches := make([]processor.RequirementMatch, 0, len(a.MustHaveMatches)+len(a.NiceToHaveMatch))
	matches = append(matches, a.MustHaveMatches...)
	matches = append(matches, a.NiceToHaveMatch...)
	if len(matches) == 0 {
		return 0
	}

	var simSum float64
	var matched int
	for _, m := range matches {
		simSum += m.SimilarityScore
		if m.IsMatch {
			matched++
		}
	}
	avgSim := simSum / float64(len(matches))
	ratio := float64(matched) / float64(len(matches))

	return clampScore(int(math.Round((avgSim*0.6 + ratio*0.4) * 100)))
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
