package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reclutahub/recluta-cli/pkg/processor"
)

func TestScoreFromAnalysis_DirectFields(t *testing.T) {
	cases := []struct {
		name     string
		analysis processor.MatchAnalysis
		want     int
	}{
		{"percentage passes through", processor.MatchAnalysis{MatchScore: 87}, 87},
		{"ratio scales to percent", processor.MatchAnalysis{MatchScore: 0.87}, 87},
		{"exactly one treated as ratio", processor.MatchAnalysis{MatchScore: 1}, 100},
		{"overall_score fallback", processor.MatchAnalysis{OverallScore: 0.6}, 60},
		{"must_have_score fallback", processor.MatchAnalysis{MustHaveScore: 72}, 72},
		{"match_score wins over others", processor.MatchAnalysis{MatchScore: 90, OverallScore: 10}, 90},
		{"clamped at 100", processor.MatchAnalysis{MatchScore: 140}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := tc.analysis
			assert.Equal(t, tc.want, ScoreFromAnalysis(&a))
		})
	}
}

func TestScoreFromAnalysis_DerivedFromMatches(t *testing.T) {
	a := &processor.MatchAnalysis{
		MustHaveMatches: []processor.RequirementMatch{
			{IsMatch: true, SimilarityScore: 0.9},
			{IsMatch: false, SimilarityScore: 0.5},
		},
		NiceToHaveMatch: []processor.RequirementMatch{
			{IsMatch: true, SimilarityScore: 0.7},
		},
	}
	// avg similarity 0.7, match ratio 2/3: 0.7*0.6 + 0.6667*0.4 = 0.6867
	assert.Equal(t, 69, ScoreFromAnalysis(a))
}

func TestScoreFromAnalysis_NoSignal(t *testing.T) {
	assert.Equal(t, 0, ScoreFromAnalysis(&processor.MatchAnalysis{}))
	assert.Equal(t, 0, ScoreFromAnalysis(nil))
}
