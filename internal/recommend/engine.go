package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"mediashelf/internal/models"

	"github.com/sirupsen/logrus"
)

// MinCollectionSize is the hard floor below which no recommendations are
// generated; smaller collections carry no usable signal.
const MinCollectionSize = 3

type EngineConfig struct {
	Metadata MetadataSearcher
	Cache    *Cache // optional; nil disables caching
	Logger   *logrus.Logger

	// Strategies overrides the default three runners. Used by tests.
	Strategies []Strategy
}

// Engine runs the strategy pipeline: profile, candidates, dedupe, filter,
// rank, truncate. Concurrent Generate calls for the same user are allowed;
// only the most recently issued request commits its result to the cache.
type Engine struct {
	strategies []Strategy
	cache      *Cache
	logger     *logrus.Logger
	requestID  atomic.Uint64
}

func NewEngine(config EngineConfig) *Engine {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	strategies := config.Strategies
	if strategies == nil {
		// order matters: dedupe keeps the first occurrence, so earlier
		// strategies win ties
		strategies = []Strategy{
			NewCollectionGapFinder(config.Metadata, config.Logger),
			NewFormatUpgradeFinder(config.Logger),
			NewSimilarTitleFinder(config.Metadata, config.Logger),
		}
	}

	return &Engine{
		strategies: strategies,
		cache:      config.Cache,
		logger:     config.Logger,
	}
}

// Generate returns recommendations for the collection, serving from cache
// when a fresh entry with matching filters exists.
func (e *Engine) Generate(ctx context.Context, userID string, collection []models.CollectionItem, filters models.Filters) ([]models.Recommendation, error) {
	return e.generate(ctx, userID, collection, filters, false, TriggerUserAction)
}

// Refresh bypasses the cache and regenerates.
func (e *Engine) Refresh(ctx context.Context, userID string, collection []models.CollectionItem, filters models.Filters) ([]models.Recommendation, error) {
	return e.generate(ctx, userID, collection, filters, true, TriggerUserAction)
}

// Regenerate is Refresh with the originating trigger recorded in the cache
// entry. The background scheduler uses it.
func (e *Engine) Regenerate(ctx context.Context, userID string, collection []models.CollectionItem, filters models.Filters, trigger Trigger) ([]models.Recommendation, error) {
	return e.generate(ctx, userID, collection, filters, true, trigger)
}

func (e *Engine) generate(ctx context.Context, userID string, collection []models.CollectionItem, filters models.Filters, force bool, trigger Trigger) ([]models.Recommendation, error) {
	if len(collection) < MinCollectionSize {
		return []models.Recommendation{}, nil
	}

	normalized := filters.Normalized()

	if e.cache != nil && !force {
		if entry, ok := e.cache.Get(ctx, userID, normalized); ok {
			e.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"count":   len(entry.Recommendations),
			}).Debug("Recommendations served from cache")
			return entry.Recommendations, nil
		}
	}

	// request-id guard: only the newest in-flight request may commit
	id := e.requestID.Add(1)

	profile, recs := e.run(ctx, collection, normalized)

	if e.cache != nil {
		if id == e.requestID.Load() {
			entry := &CacheEntry{
				Recommendations: recs,
				Profile:         profile,
				Timestamp:       time.Now(),
				Filters:         normalized,
				Trigger:         trigger,
			}
			if err := e.cache.Put(ctx, userID, entry); err != nil {
				e.logger.WithError(err).WithField("user_id", userID).Warn("Failed to cache recommendations")
			}
		} else {
			e.logger.WithField("user_id", userID).Debug("Stale generation result, skipping cache commit")
		}
	}

	e.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(recs),
		"trigger": string(trigger),
	}).Info("Recommendations generated")

	return recs, nil
}

// run executes the pipeline. Any panic in profile build, filtering or
// ranking degrades to the deterministic fallback rather than propagating;
// the user always sees something when the collection is non-trivial.
func (e *Engine) run(ctx context.Context, collection []models.CollectionItem, filters models.Filters) (profile models.UserProfile, recs []models.Recommendation) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", fmt.Sprint(r)).Error("Generation failed, using fallback recommendation")
			recs = []models.Recommendation{fallbackRecommendation(collection)}
		}
	}()

	profile = BuildProfile(collection)

	var candidates []models.Recommendation
	for _, strategy := range e.strategies {
		if !filters.TypeEnabled(strategy.Type()) {
			continue
		}
		out, err := strategy.Run(ctx, collection, profile)
		if err != nil {
			// a failed strategy contributes zero candidates, never aborts
			e.logger.WithFields(logrus.Fields{
				"strategy": string(strategy.Type()),
			}).WithError(err).Warn("Strategy failed, continuing without it")
			continue
		}
		candidates = append(candidates, out...)
	}

	candidates = dedupeByIMDbID(candidates)
	candidates = applyFilters(candidates, collection, filters)
	sortByComposite(candidates)
	if len(candidates) > filters.MaxResults {
		candidates = candidates[:filters.MaxResults]
	}

	if candidates == nil {
		candidates = []models.Recommendation{}
	}
	return profile, candidates
}

// dedupeByIMDbID keeps the first occurrence of each imdb id; strategy order
// decides ties.
func dedupeByIMDbID(recs []models.Recommendation) []models.Recommendation {
	seen := make(map[string]bool, len(recs))
	out := recs[:0]
	for _, rec := range recs {
		if rec.IMDbID != "" && seen[rec.IMDbID] {
			continue
		}
		seen[rec.IMDbID] = true
		out = append(out, rec)
	}
	return out
}

func applyFilters(recs []models.Recommendation, collection []models.CollectionItem, filters models.Filters) []models.Recommendation {
	owned := make(map[string]bool)
	wishlisted := make(map[string]bool)
	for _, item := range collection {
		if item.IMDbID == "" {
			continue
		}
		if item.CollectionType == models.CollectionWishlist {
			wishlisted[item.IMDbID] = true
		} else {
			owned[item.IMDbID] = true
		}
	}

	excludeOwned := filters.ExcludeOwned == nil || *filters.ExcludeOwned
	excludeWishlist := filters.ExcludeWishlist == nil || *filters.ExcludeWishlist

	var out []models.Recommendation
	for _, rec := range recs {
		// format upgrades reference owned titles on purpose; the owned
		// exclusion only applies to discovery candidates
		if excludeOwned && rec.Type != models.TypeFormatUpgrade && owned[rec.IMDbID] {
			continue
		}
		if excludeWishlist && wishlisted[rec.IMDbID] {
			continue
		}
		if rec.Score.Confidence < filters.MinConfidence {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func sortByComposite(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score.Composite() > recs[j].Score.Composite()
	})
}

// FilterExisting re-filters and re-ranks an already generated result set
// without touching the metadata provider.
func (e *Engine) FilterExisting(recs []models.Recommendation, filters models.Filters) []models.Recommendation {
	normalized := filters.Normalized()

	out := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if !normalized.TypeEnabled(rec.Type) {
			continue
		}
		if rec.Score.Confidence < normalized.MinConfidence {
			continue
		}
		out = append(out, rec)
	}
	sortByComposite(out)
	if len(out) > normalized.MaxResults {
		out = out[:normalized.MaxResults]
	}
	return out
}

// fallbackRecommendation is the deterministic stand-in emitted when the
// pipeline fails unexpectedly, derived from the most common genre.
func fallbackRecommendation(collection []models.CollectionItem) models.Recommendation {
	genre := "Drama"
	if genres := tallyGenres(collection); len(genres) > 0 {
		genre = genres[0].Genre
	}

	return models.Recommendation{
		Title:     fmt.Sprintf("Explore more %s titles", genre),
		Genre:     genre,
		Type:      models.TypeSimilarTitle,
		Reasoning: fmt.Sprintf("%s is the most common genre in your collection", genre),
		Score: models.Score{
			Relevance:  0.5,
			Confidence: 0.3,
			Urgency:    0.2,
		},
	}
}
