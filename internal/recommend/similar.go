package recommend

import (
	"context"
	"fmt"
	"sort"

	"mediashelf/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	topRatedForSimilar   = 5
	maxSimilarPerGenre   = 2
	minDirectorCount     = 2
	directorRelevanceMax = 0.9
)

// SimilarTitleFinder searches for titles close to the user's highest rated
// owned items, by primary genre and, for repeat directors, by director.
type SimilarTitleFinder struct {
	metadata MetadataSearcher
	logger   *logrus.Logger
}

func NewSimilarTitleFinder(metadata MetadataSearcher, logger *logrus.Logger) *SimilarTitleFinder {
	return &SimilarTitleFinder{metadata: metadata, logger: logger}
}

func (f *SimilarTitleFinder) Type() models.RecommendationType {
	return models.TypeSimilarTitle
}

func (f *SimilarTitleFinder) Run(ctx context.Context, collection []models.CollectionItem, profile models.UserProfile) ([]models.Recommendation, error) {
	inCollection := imdbSet(collection)
	threshold := profile.RatingPattern.HighRatedThreshold

	var favorites []models.CollectionItem
	for _, item := range collection {
		if item.CollectionType != models.CollectionOwned {
			continue
		}
		if item.PersonalRating == nil || *item.PersonalRating < threshold {
			continue
		}
		favorites = append(favorites, item)
	}
	sort.SliceStable(favorites, func(i, j int) bool {
		return *favorites[i].PersonalRating > *favorites[j].PersonalRating
	})
	if len(favorites) > topRatedForSimilar {
		favorites = favorites[:topRatedForSimilar]
	}

	var recs []models.Recommendation
	for _, item := range favorites {
		recs = append(recs, f.byGenre(ctx, item, inCollection)...)
		recs = append(recs, f.byDirector(ctx, item, profile, inCollection)...)
	}
	return recs, nil
}

func (f *SimilarTitleFinder) byGenre(ctx context.Context, item models.CollectionItem, inCollection map[string]bool) []models.Recommendation {
	genre := primaryValue(item.Genre)
	if genre == "" {
		return nil
	}

	results, err := f.metadata.SearchByText(ctx, genre)
	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"strategy": "similar_title",
			"genre":    genre,
		}).WithError(err).Warn("Genre search failed, skipping")
		return nil
	}

	var recs []models.Recommendation
	for _, result := range results {
		if len(recs) >= maxSimilarPerGenre {
			break
		}
		if inCollection[result.IMDbID] {
			continue
		}
		recs = append(recs, models.Recommendation{
			IMDbID:    result.IMDbID,
			Title:     result.Title,
			Year:      result.Year,
			Genre:     genre,
			PosterURL: result.PosterURL,
			Type:      models.TypeSimilarTitle,
			Reasoning: fmt.Sprintf("More %s like %s, which you rated %.0f/10", genre, item.Title, *item.PersonalRating),
			Score: models.Score{
				Relevance:  *item.PersonalRating / 10,
				Confidence: 0.6,
				Urgency:    0.3,
			},
			SourceItems: []string{item.ID},
		})
	}
	return recs
}

func (f *SimilarTitleFinder) byDirector(ctx context.Context, item models.CollectionItem, profile models.UserProfile, inCollection map[string]bool) []models.Recommendation {
	director := primaryValue(item.Director)
	if director == "" {
		return nil
	}

	var pref *models.DirectorPreference
	for i := range profile.FavoriteDirectors {
		if profile.FavoriteDirectors[i].Director == director {
			pref = &profile.FavoriteDirectors[i]
			break
		}
	}
	if pref == nil || pref.Count < minDirectorCount {
		return nil
	}

	results, err := f.metadata.SearchByText(ctx, director)
	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"strategy": "similar_title",
			"director": director,
		}).WithError(err).Warn("Director search failed, skipping")
		return nil
	}

	relevance := float64(pref.Count) / 5
	if relevance > directorRelevanceMax {
		relevance = directorRelevanceMax
	}

	for _, result := range results {
		if inCollection[result.IMDbID] {
			continue
		}
		return []models.Recommendation{{
			IMDbID:    result.IMDbID,
			Title:     result.Title,
			Year:      result.Year,
			Director:  director,
			PosterURL: result.PosterURL,
			Type:      models.TypeSimilarTitle,
			Reasoning: fmt.Sprintf("Another film by %s, whose work you keep coming back to", director),
			Score: models.Score{
				Relevance:  relevance,
				Confidence: 0.8,
				Urgency:    0.5,
			},
			SourceItems: []string{item.ID},
		}}
	}
	return nil
}
