package recommend

import (
	"fmt"
	"sort"
	"strings"

	"mediashelf/internal/models"
)

const (
	defaultAvgRating   = 7.0
	minHighRated       = 8.0
	maxHighRated       = 9.0
	topPreferenceCount = 10
	defaultDecadeLabel = "2000s"
)

// BuildProfile derives a UserProfile from the current collection. Pure, no
// I/O; an empty collection degrades to defaults rather than erroring.
func BuildProfile(collection []models.CollectionItem) models.UserProfile {
	var owned, wishlist []models.CollectionItem
	for _, item := range collection {
		if item.CollectionType == models.CollectionWishlist {
			wishlist = append(wishlist, item)
		} else {
			owned = append(owned, item)
		}
	}

	profile := models.UserProfile{
		FavoriteGenres:    tallyGenres(collection),
		FavoriteDirectors: tallyDirectors(collection),
		FormatPreferences: tallyFormats(collection),
		RatingPattern:     ratingPattern(owned),
		CollectionStats: models.CollectionStats{
			Total:               len(collection),
			Owned:               len(owned),
			Wishlist:            len(wishlist),
			MostCollectedDecade: mostCollectedDecade(owned),
		},
	}
	return profile
}

type tally struct {
	count       int
	ratingSum   float64
	ratingCount int
}

func (t tally) avgRating() float64 {
	if t.ratingCount == 0 {
		return 0
	}
	return t.ratingSum / float64(t.ratingCount)
}

func tallyGenres(collection []models.CollectionItem) []models.GenrePreference {
	tallies, order := tallyField(collection, func(item models.CollectionItem) string { return item.Genre })

	prefs := make([]models.GenrePreference, 0, len(order))
	for _, genre := range order {
		t := tallies[genre]
		prefs = append(prefs, models.GenrePreference{Genre: genre, Count: t.count, AvgRating: t.avgRating()})
	}
	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].Count > prefs[j].Count })
	if len(prefs) > topPreferenceCount {
		prefs = prefs[:topPreferenceCount]
	}
	return prefs
}

func tallyDirectors(collection []models.CollectionItem) []models.DirectorPreference {
	tallies, order := tallyField(collection, func(item models.CollectionItem) string { return item.Director })

	prefs := make([]models.DirectorPreference, 0, len(order))
	for _, director := range order {
		t := tallies[director]
		prefs = append(prefs, models.DirectorPreference{Director: director, Count: t.count, AvgRating: t.avgRating()})
	}
	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].Count > prefs[j].Count })
	if len(prefs) > topPreferenceCount {
		prefs = prefs[:topPreferenceCount]
	}
	return prefs
}

// tallyField counts comma-separated values of one field across the
// collection, tracking personal ratings for items that carry one. The order
// slice preserves first-seen order so equal counts sort deterministically.
func tallyField(collection []models.CollectionItem, field func(models.CollectionItem) string) (map[string]*tally, []string) {
	tallies := make(map[string]*tally)
	var order []string

	for _, item := range collection {
		for _, raw := range strings.Split(field(item), ",") {
			value := strings.TrimSpace(raw)
			if value == "" {
				continue
			}
			t, ok := tallies[value]
			if !ok {
				t = &tally{}
				tallies[value] = t
				order = append(order, value)
			}
			t.count++
			if item.PersonalRating != nil {
				t.ratingSum += *item.PersonalRating
				t.ratingCount++
			}
		}
	}
	return tallies, order
}

func tallyFormats(collection []models.CollectionItem) []models.FormatPreference {
	counts := make(map[models.Format]int)
	var order []models.Format
	for _, item := range collection {
		if item.Format == "" {
			continue
		}
		if _, ok := counts[item.Format]; !ok {
			order = append(order, item.Format)
		}
		counts[item.Format]++
	}

	prefs := make([]models.FormatPreference, 0, len(order))
	for _, format := range order {
		prefs = append(prefs, models.FormatPreference{Format: format, Count: counts[format]})
	}
	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].Count > prefs[j].Count })
	return prefs
}

// ratingPattern averages the personal ratings of owned items. The high-rated
// threshold is one above the average, kept between 8 and 9 so a generous
// rater still has a meaningful cutoff.
func ratingPattern(owned []models.CollectionItem) models.RatingPattern {
	var sum float64
	var count int
	for _, item := range owned {
		if item.PersonalRating != nil {
			sum += *item.PersonalRating
			count++
		}
	}

	avg := defaultAvgRating
	if count > 0 {
		avg = sum / float64(count)
	}

	threshold := avg + 1
	if threshold < minHighRated {
		threshold = minHighRated
	}
	if threshold > maxHighRated {
		threshold = maxHighRated
	}

	return models.RatingPattern{
		AvgRating:          avg,
		HighRatedThreshold: threshold,
		RatingCount:        count,
	}
}

func mostCollectedDecade(owned []models.CollectionItem) string {
	counts := make(map[int]int)
	for _, item := range owned {
		if item.Year > 0 {
			counts[item.Year/10*10]++
		}
	}
	if len(counts) == 0 {
		return defaultDecadeLabel
	}

	best, bestCount := 0, 0
	for decade, count := range counts {
		if count > bestCount || (count == bestCount && decade > best) {
			best, bestCount = decade, count
		}
	}
	return fmt.Sprintf("%ds", best)
}
