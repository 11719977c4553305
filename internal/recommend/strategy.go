package recommend

import (
	"context"
	"strings"

	"mediashelf/internal/models"
)

// MetadataSearcher is the slice of the metadata client the strategies
// consume. *metadata.Client satisfies it.
type MetadataSearcher interface {
	SearchByText(ctx context.Context, query string) ([]models.SearchResult, error)
}

// Strategy is one independent recommendation heuristic. Run tolerates
// per-lookup failures internally; a returned error means the whole strategy
// produced nothing, which the engine degrades to zero candidates.
type Strategy interface {
	Type() models.RecommendationType
	Run(ctx context.Context, collection []models.CollectionItem, profile models.UserProfile) ([]models.Recommendation, error)
}

// imdbSet indexes a collection by imdb id for exclusion checks.
func imdbSet(collection []models.CollectionItem) map[string]bool {
	set := make(map[string]bool, len(collection))
	for _, item := range collection {
		if item.IMDbID != "" {
			set[item.IMDbID] = true
		}
	}
	return set
}

// primaryValue returns the first token of a comma-separated field.
func primaryValue(commaSeparated string) string {
	value, _, _ := strings.Cut(commaSeparated, ",")
	return strings.TrimSpace(value)
}
