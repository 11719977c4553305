package recommend

import "mediashelf/internal/models"

// Stats summarizes a result set: totals per strategy type and mean
// confidence/relevance across all recommendations.
func Stats(recs []models.Recommendation) models.RecommendationStats {
	stats := models.RecommendationStats{
		Total:  len(recs),
		ByType: make(map[models.RecommendationType]int),
	}
	if len(recs) == 0 {
		return stats
	}

	var confidenceSum, relevanceSum float64
	for _, rec := range recs {
		stats.ByType[rec.Type]++
		confidenceSum += rec.Score.Confidence
		relevanceSum += rec.Score.Relevance
	}
	stats.AvgConfidence = confidenceSum / float64(len(recs))
	stats.AvgRelevance = relevanceSum / float64(len(recs))
	return stats
}
