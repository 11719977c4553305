package recommend

import (
	"context"
	"fmt"
	"sort"

	"mediashelf/internal/models"

	"github.com/sirupsen/logrus"
)

const maxUpgradeSuggestions = 10

// FormatUpgradeFinder suggests re-buying highly rated owned titles in the
// next format up the quality hierarchy. It needs no metadata lookups; every
// candidate is already in the collection.
type FormatUpgradeFinder struct {
	logger *logrus.Logger
}

func NewFormatUpgradeFinder(logger *logrus.Logger) *FormatUpgradeFinder {
	return &FormatUpgradeFinder{logger: logger}
}

func (f *FormatUpgradeFinder) Type() models.RecommendationType {
	return models.TypeFormatUpgrade
}

func (f *FormatUpgradeFinder) Run(_ context.Context, collection []models.CollectionItem, profile models.UserProfile) ([]models.Recommendation, error) {
	threshold := profile.RatingPattern.HighRatedThreshold
	avg := profile.RatingPattern.AvgRating

	var candidates []models.CollectionItem
	for _, item := range collection {
		if item.CollectionType != models.CollectionOwned {
			continue
		}
		if item.PersonalRating == nil || *item.PersonalRating < threshold {
			continue
		}
		if _, ok := models.NextFormat(item.Format); !ok {
			continue
		}
		candidates = append(candidates, item)
	}

	// favorites first, so the cap drops the weakest candidates
	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].PersonalRating > *candidates[j].PersonalRating
	})
	if len(candidates) > maxUpgradeSuggestions {
		candidates = candidates[:maxUpgradeSuggestions]
	}

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, item := range candidates {
		suggested, _ := models.NextFormat(item.Format)

		urgency := 0.6
		if suggested == models.Format4KUHD {
			urgency = 0.8
		}

		var posterURL string
		if item.PosterURL != nil {
			posterURL = *item.PosterURL
		}

		recs = append(recs, models.Recommendation{
			IMDbID:    item.IMDbID,
			Title:     item.Title,
			Year:      item.Year,
			Genre:     item.Genre,
			Director:  item.Director,
			PosterURL: posterURL,
			Type:      models.TypeFormatUpgrade,
			Reasoning: fmt.Sprintf("You rated %s %.0f/10; it deserves an upgrade from %s to %s", item.Title, *item.PersonalRating, item.Format, suggested),
			Score: models.Score{
				Relevance:  (*item.PersonalRating - avg) / 10,
				Confidence: 0.9,
				Urgency:    urgency,
			},
			SourceItems:     []string{item.ID},
			SuggestedFormat: suggested,
		})
	}

	return recs, nil
}
