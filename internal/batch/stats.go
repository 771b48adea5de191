package batch

import (
	"math"

	"github.com/reclutahub/recluta-cli/internal/model"
)

// HighMatchThreshold is the normalized score at or above which a candidate
// counts as a high match in batch statistics.
const HighMatchThreshold = 85

// Stats aggregates a batch into summary statistics. Zero scores are
// excluded from the average so unscored-but-completed items do not drag it
// down; the error count covers items whose pipeline failed.
func Stats(items []model.CVItem) model.BatchStats {
	stats := model.BatchStats{Total: len(items)}

	var scoreSum, scored int
	for _, item := range items {
		switch item.Status {
		case model.StatusError:
			stats.ErrorCount++
			continue
		case model.StatusCompleted, model.StatusDeepAnalyzing:
			stats.SuccessCount++
		default:
			continue
		}

		score := ScoreFromAnalysis(item.Analysis)
		if score > 0 {
			scoreSum += score
			scored++
		}
		if score >= HighMatchThreshold {
			stats.HighMatch++
		}
	}

	if scored > 0 {
		stats.AvgScore = int(math.Round(float64(scoreSum) / float64(scored)))
	}
	return stats
}
