package recommend

import (
	"context"
	"sync"
	"testing"
	"time"

	"mediashelf/internal/cache"
	"mediashelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(searcher MetadataSearcher, recCache *Cache, strategies ...Strategy) *Engine {
	config := EngineConfig{
		Metadata: searcher,
		Cache:    recCache,
		Logger:   testLogger(),
	}
	if len(strategies) > 0 {
		config.Strategies = strategies
	}
	return NewEngine(config)
}

func TestGenerateBelowMinimumCollection(t *testing.T) {
	searcher := newMockSearcher()
	engine := newTestEngine(searcher, nil)

	collection := janeDoeCollection()[:2]
	recs, err := engine.Generate(context.Background(), "u1", collection, models.Filters{})
	require.NoError(t, err)

	assert.Empty(t, recs)
	assert.NotNil(t, recs)
	assert.Zero(t, searcher.callCount(), "no external calls below the floor")
}

func TestGenerateJaneDoeUpgrades(t *testing.T) {
	searcher := newMockSearcher()
	engine := newTestEngine(searcher, nil)

	recs, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{})
	require.NoError(t, err)

	// the metadata source returned nothing, so only format upgrades remain
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, models.TypeFormatUpgrade, r.Type)
		assert.Equal(t, models.Format4KUHD, r.SuggestedFormat)
	}
}

func TestGenerateDeduplicatesAcrossStrategies(t *testing.T) {
	gap := fixedStrategy(models.TypeCollectionGap, rec("tt9", models.TypeCollectionGap, 0.5, 0.8, 0.5))
	similar := fixedStrategy(models.TypeSimilarTitle,
		rec("tt9", models.TypeSimilarTitle, 0.9, 0.6, 0.3),
		rec("tt8", models.TypeSimilarTitle, 0.7, 0.6, 0.3),
	)
	engine := newTestEngine(nil, nil, gap, similar)

	recs, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{})
	require.NoError(t, err)

	require.Len(t, recs, 2)
	seen := make(map[string]models.RecommendationType)
	for _, r := range recs {
		seen[r.IMDbID] = r.Type
	}
	// earlier strategy wins the tie for tt9
	assert.Equal(t, models.TypeCollectionGap, seen["tt9"])
	assert.Equal(t, models.TypeSimilarTitle, seen["tt8"])
}

func TestGenerateExcludesOwnedAndWishlisted(t *testing.T) {
	collection := janeDoeCollection()
	collection = append(collection, testItem("c4", "tt0000005", "Wanted", models.FormatDVD, nil, models.CollectionWishlist))

	similar := fixedStrategy(models.TypeSimilarTitle,
		rec("tt0000001", models.TypeSimilarTitle, 0.9, 0.9, 0.9), // owned
		rec("tt0000005", models.TypeSimilarTitle, 0.9, 0.9, 0.9), // wishlisted
		rec("tt0000900", models.TypeSimilarTitle, 0.5, 0.5, 0.5),
	)
	engine := newTestEngine(nil, nil, similar)

	recs, err := engine.Generate(context.Background(), "u1", collection, models.Filters{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "tt0000900", recs[0].IMDbID)

	// explicit false disables the exclusions
	recs, err = engine.Generate(context.Background(), "u1", collection, models.Filters{
		ExcludeOwned:    boolPtr(false),
		ExcludeWishlist: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestGenerateKeepsFormatUpgradesForOwnedTitles(t *testing.T) {
	// upgrades reference owned titles by design; the owned exclusion must
	// not remove them
	engine := newTestEngine(newMockSearcher(), nil)

	recs, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{})
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}

func TestGenerateMinConfidence(t *testing.T) {
	similar := fixedStrategy(models.TypeSimilarTitle,
		rec("tt1x", models.TypeSimilarTitle, 0.9, 0.4, 0.5),
		rec("tt2x", models.TypeSimilarTitle, 0.9, 0.8, 0.5),
	)
	engine := newTestEngine(nil, nil, similar)

	recs, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{MinConfidence: 0.5})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "tt2x", recs[0].IMDbID)
}

func TestGenerateRanksAndTruncates(t *testing.T) {
	var fixture []models.Recommendation
	scores := []models.Score{
		{Relevance: 0.1, Confidence: 0.5, Urgency: 0.1},
		{Relevance: 0.9, Confidence: 0.9, Urgency: 0.9},
		{Relevance: 0.5, Confidence: 0.5, Urgency: 0.5},
		{Relevance: 0.8, Confidence: 0.7, Urgency: 0.2},
		{Relevance: 0.3, Confidence: 0.6, Urgency: 0.4},
		{Relevance: 0.7, Confidence: 0.8, Urgency: 0.6},
		{Relevance: 0.2, Confidence: 0.4, Urgency: 0.9},
	}
	for i, s := range scores {
		fixture = append(fixture, rec("tt"+string(rune('a'+i)), models.TypeSimilarTitle, s.Relevance, s.Confidence, s.Urgency))
	}
	engine := newTestEngine(nil, nil, fixedStrategy(models.TypeSimilarTitle, fixture...))

	recs, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// the top two by composite score, in order
	assert.Equal(t, "ttb", recs[0].IMDbID)
	assert.Equal(t, "ttf", recs[1].IMDbID)
	assert.GreaterOrEqual(t, recs[0].Score.Composite(), recs[1].Score.Composite())
}

func TestGenerateSortStable(t *testing.T) {
	similar := fixedStrategy(models.TypeSimilarTitle,
		rec("first", models.TypeSimilarTitle, 0.5, 0.5, 0.5),
		rec("second", models.TypeSimilarTitle, 0.5, 0.5, 0.5),
	)
	engine := newTestEngine(nil, nil, similar)

	recs, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "first", recs[0].IMDbID)
	assert.Equal(t, "second", recs[1].IMDbID)
}

func TestGenerateTypeFilter(t *testing.T) {
	calls := make(map[models.RecommendationType]int)
	var mu sync.Mutex
	counting := func(recType models.RecommendationType) *stubStrategy {
		return &stubStrategy{
			recType: recType,
			run: func(context.Context, []models.CollectionItem, models.UserProfile) ([]models.Recommendation, error) {
				mu.Lock()
				calls[recType]++
				mu.Unlock()
				return nil, nil
			},
		}
	}
	engine := newTestEngine(nil, nil,
		counting(models.TypeCollectionGap),
		counting(models.TypeFormatUpgrade),
		counting(models.TypeSimilarTitle),
	)

	_, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{
		Types: []models.RecommendationType{models.TypeFormatUpgrade},
	})
	require.NoError(t, err)

	assert.Zero(t, calls[models.TypeCollectionGap])
	assert.Equal(t, 1, calls[models.TypeFormatUpgrade])
	assert.Zero(t, calls[models.TypeSimilarTitle])
}

func TestGenerateFallbackOnPanic(t *testing.T) {
	panicking := &stubStrategy{
		recType: models.TypeCollectionGap,
		run: func(context.Context, []models.CollectionItem, models.UserProfile) ([]models.Recommendation, error) {
			panic("boom")
		},
	}
	engine := newTestEngine(nil, nil, panicking)

	recs, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{})
	require.NoError(t, err)

	require.Len(t, recs, 1)
	fallback := recs[0]
	assert.Equal(t, "Drama", fallback.Genre)
	assert.Equal(t, 0.5, fallback.Score.Relevance)
	assert.Equal(t, 0.3, fallback.Score.Confidence)
	assert.Equal(t, 0.2, fallback.Score.Urgency)
}

func TestGenerateDegradesFailedStrategyToZero(t *testing.T) {
	failing := &stubStrategy{
		recType: models.TypeCollectionGap,
		run: func(context.Context, []models.CollectionItem, models.UserProfile) ([]models.Recommendation, error) {
			return nil, assert.AnError
		},
	}
	similar := fixedStrategy(models.TypeSimilarTitle, rec("ttok", models.TypeSimilarTitle, 0.5, 0.5, 0.5))
	engine := newTestEngine(nil, nil, failing, similar)

	recs, err := engine.Generate(context.Background(), "u1", janeDoeCollection(), models.Filters{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ttok", recs[0].IMDbID)
}

func TestGenerateCacheRoundTrip(t *testing.T) {
	searcher := newMockSearcher()
	searcher.results["Jane Doe"] = []models.SearchResult{{IMDbID: "tt0000500", Title: "Fresh Pick"}}

	recCache := NewCache(cache.NewMemory(), time.Hour, testLogger())
	engine := newTestEngine(searcher, recCache)

	collection := janeDoeCollection()
	filters := models.Filters{MaxResults: 5}

	first, err := engine.Generate(context.Background(), "u1", collection, filters)
	require.NoError(t, err)
	callsAfterFirst := searcher.callCount()
	require.Positive(t, callsAfterFirst)

	second, err := engine.Generate(context.Background(), "u1", collection, filters)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, searcher.callCount(), "cache hit must not touch the metadata source")
}

func TestGenerateCacheMissOnDifferentFilters(t *testing.T) {
	searcher := newMockSearcher()
	recCache := NewCache(cache.NewMemory(), time.Hour, testLogger())
	engine := newTestEngine(searcher, recCache)

	collection := janeDoeCollection()
	_, err := engine.Generate(context.Background(), "u1", collection, models.Filters{MaxResults: 5})
	require.NoError(t, err)
	callsAfterFirst := searcher.callCount()

	_, err = engine.Generate(context.Background(), "u1", collection, models.Filters{MaxResults: 10})
	require.NoError(t, err)
	assert.Greater(t, searcher.callCount(), callsAfterFirst)
}

func TestRefreshBypassesCache(t *testing.T) {
	searcher := newMockSearcher()
	recCache := NewCache(cache.NewMemory(), time.Hour, testLogger())
	engine := newTestEngine(searcher, recCache)

	collection := janeDoeCollection()
	_, err := engine.Generate(context.Background(), "u1", collection, models.Filters{})
	require.NoError(t, err)
	callsAfterFirst := searcher.callCount()

	_, err = engine.Refresh(context.Background(), "u1", collection, models.Filters{})
	require.NoError(t, err)
	assert.Greater(t, searcher.callCount(), callsAfterFirst)
}

func TestStaleRequestSkipsCacheCommit(t *testing.T) {
	release := make(chan struct{})
	var callIndex int
	var mu sync.Mutex

	racing := &stubStrategy{
		recType: models.TypeSimilarTitle,
		run: func(context.Context, []models.CollectionItem, models.UserProfile) ([]models.Recommendation, error) {
			mu.Lock()
			callIndex++
			index := callIndex
			mu.Unlock()
			if index == 1 {
				<-release // the first request resolves after a newer one started
				return []models.Recommendation{rec("tt-stale", models.TypeSimilarTitle, 0.5, 0.5, 0.5)}, nil
			}
			return []models.Recommendation{rec("tt-fresh", models.TypeSimilarTitle, 0.5, 0.5, 0.5)}, nil
		},
	}

	recCache := NewCache(cache.NewMemory(), time.Hour, testLogger())
	engine := newTestEngine(nil, recCache, racing)
	collection := janeDoeCollection()

	var wg sync.WaitGroup
	wg.Add(1)
	staleResult := make(chan []models.Recommendation, 1)
	go func() {
		defer wg.Done()
		recs, _ := engine.Refresh(context.Background(), "u1", collection, models.Filters{})
		staleResult <- recs
	}()

	// wait for the first request to be in flight
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return callIndex == 1
	}, time.Second, time.Millisecond)

	fresh, err := engine.Refresh(context.Background(), "u1", collection, models.Filters{})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "tt-fresh", fresh[0].IMDbID)

	close(release)
	wg.Wait()

	// the stale caller still gets its own result
	stale := <-staleResult
	require.Len(t, stale, 1)
	assert.Equal(t, "tt-stale", stale[0].IMDbID)

	// but only the newest request committed to the cache
	entry, ok := recCache.Get(context.Background(), "u1", models.Filters{})
	require.True(t, ok)
	require.Len(t, entry.Recommendations, 1)
	assert.Equal(t, "tt-fresh", entry.Recommendations[0].IMDbID)
}

func TestFilterExisting(t *testing.T) {
	engine := newTestEngine(nil, nil)
	recs := []models.Recommendation{
		rec("tt1f", models.TypeCollectionGap, 0.9, 0.9, 0.9),
		rec("tt2f", models.TypeSimilarTitle, 0.5, 0.4, 0.5),
		rec("tt3f", models.TypeFormatUpgrade, 0.7, 0.8, 0.6),
	}

	out := engine.FilterExisting(recs, models.Filters{
		Types:         []models.RecommendationType{models.TypeCollectionGap, models.TypeSimilarTitle},
		MinConfidence: 0.5,
	})

	require.Len(t, out, 1)
	assert.Equal(t, "tt1f", out[0].IMDbID)
}

func TestStats(t *testing.T) {
	recs := []models.Recommendation{
		rec("tt1s", models.TypeCollectionGap, 0.4, 0.8, 0.5),
		rec("tt2s", models.TypeCollectionGap, 0.6, 0.6, 0.5),
		rec("tt3s", models.TypeFormatUpgrade, 0.2, 0.9, 0.5),
	}

	stats := Stats(recs)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByType[models.TypeCollectionGap])
	assert.Equal(t, 1, stats.ByType[models.TypeFormatUpgrade])
	assert.InDelta(t, (0.8+0.6+0.9)/3, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, (0.4+0.6+0.2)/3, stats.AvgRelevance, 1e-9)
}

func TestStatsEmpty(t *testing.T) {
	stats := Stats(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AvgConfidence)
}
