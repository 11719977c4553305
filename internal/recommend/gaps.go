package recommend

import (
	"context"
	"fmt"
	"strings"

	"mediashelf/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	topDirectorsForGaps  = 3
	maxGapsPerDirector   = 3
	maxGapsPerFranchise  = 2
	directorRelevanceCap = 1.0
)

// CollectionGapFinder suggests titles that would complete a director's or
// franchise's set the user already collects.
type CollectionGapFinder struct {
	metadata MetadataSearcher
	logger   *logrus.Logger
}

func NewCollectionGapFinder(metadata MetadataSearcher, logger *logrus.Logger) *CollectionGapFinder {
	return &CollectionGapFinder{metadata: metadata, logger: logger}
}

func (f *CollectionGapFinder) Type() models.RecommendationType {
	return models.TypeCollectionGap
}

func (f *CollectionGapFinder) Run(ctx context.Context, collection []models.CollectionItem, profile models.UserProfile) ([]models.Recommendation, error) {
	inCollection := imdbSet(collection)

	var recs []models.Recommendation
	recs = append(recs, f.directorGaps(ctx, collection, profile, inCollection)...)
	recs = append(recs, f.franchiseGaps(ctx, collection, inCollection)...)
	return recs, nil
}

func (f *CollectionGapFinder) directorGaps(ctx context.Context, collection []models.CollectionItem, profile models.UserProfile, inCollection map[string]bool) []models.Recommendation {
	directors := profile.FavoriteDirectors
	if len(directors) > topDirectorsForGaps {
		directors = directors[:topDirectorsForGaps]
	}

	var recs []models.Recommendation
	for _, director := range directors {
		results, err := f.metadata.SearchByText(ctx, director.Director)
		if err != nil {
			// one failed lookup must not abort the others
			f.logger.WithFields(logrus.Fields{
				"strategy": "collection_gap",
				"director": director.Director,
			}).WithError(err).Warn("Director search failed, skipping")
			continue
		}

		urgency := 0.5
		if director.AvgRating > profile.RatingPattern.AvgRating {
			urgency = 0.7
		}
		relevance := float64(director.Count) / 5
		if relevance > directorRelevanceCap {
			relevance = directorRelevanceCap
		}

		sourceItems := itemsByDirector(collection, director.Director)

		emitted := 0
		for _, result := range results {
			if emitted >= maxGapsPerDirector {
				break
			}
			if inCollection[result.IMDbID] {
				continue
			}
			recs = append(recs, models.Recommendation{
				IMDbID:    result.IMDbID,
				Title:     result.Title,
				Year:      result.Year,
				Director:  director.Director,
				PosterURL: result.PosterURL,
				Type:      models.TypeCollectionGap,
				Reasoning: fmt.Sprintf("You collect %s (%d titles owned) but are missing this one", director.Director, director.Count),
				Score: models.Score{
					Relevance:  relevance,
					Confidence: 0.8,
					Urgency:    urgency,
				},
				SourceItems: sourceItems,
			})
			emitted++
		}
	}
	return recs
}

func (f *CollectionGapFinder) franchiseGaps(ctx context.Context, collection []models.CollectionItem, inCollection map[string]bool) []models.Recommendation {
	keywords, order := franchiseKeywords(collection)

	var recs []models.Recommendation
	for _, keyword := range order {
		results, err := f.metadata.SearchByText(ctx, keyword)
		if err != nil {
			f.logger.WithFields(logrus.Fields{
				"strategy": "collection_gap",
				"keyword":  keyword,
			}).WithError(err).Warn("Franchise search failed, skipping")
			continue
		}

		emitted := 0
		for _, result := range results {
			if emitted >= maxGapsPerFranchise {
				break
			}
			if inCollection[result.IMDbID] {
				continue
			}
			recs = append(recs, models.Recommendation{
				IMDbID:    result.IMDbID,
				Title:     result.Title,
				Year:      result.Year,
				PosterURL: result.PosterURL,
				Type:      models.TypeCollectionGap,
				Reasoning: fmt.Sprintf("Looks like part of the %q series in your collection", keyword),
				Score: models.Score{
					Relevance:  0.7,
					Confidence: 0.6,
					Urgency:    0.4,
				},
				SourceItems: keywords[keyword],
			})
			emitted++
		}
	}
	return recs
}

func itemsByDirector(collection []models.CollectionItem, director string) []string {
	var ids []string
	for _, item := range collection {
		for _, raw := range strings.Split(item.Director, ",") {
			if strings.TrimSpace(raw) == director {
				ids = append(ids, item.ID)
				break
			}
		}
	}
	return ids
}
