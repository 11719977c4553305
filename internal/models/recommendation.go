package models

type RecommendationType string

const (
	TypeCollectionGap RecommendationType = "collection_gap"
	TypeFormatUpgrade RecommendationType = "format_upgrade"
	TypeSimilarTitle  RecommendationType = "similar_title"
)

// Score components are all in [0,1].
type Score struct {
	Relevance  float64 `json:"relevance"`
	Confidence float64 `json:"confidence"`
	Urgency    float64 `json:"urgency"`
}

// Composite is the ranking score: relevance and confidence weigh 0.4 each,
// urgency 0.2.
func (s Score) Composite() float64 {
	return 0.4*s.Relevance + 0.4*s.Confidence + 0.2*s.Urgency
}

// Recommendation is a transient candidate title. Identity is the
// (imdb_id, type) pair: the same title may appear once per strategy type.
type Recommendation struct {
	IMDbID          string             `json:"imdb_id"`
	Title           string             `json:"title"`
	Year            int                `json:"year,omitempty"`
	Genre           string             `json:"genre,omitempty"`
	Director        string             `json:"director,omitempty"`
	PosterURL       string             `json:"poster_url,omitempty"`
	Type            RecommendationType `json:"recommendation_type"`
	Reasoning       string             `json:"reasoning"`
	Score           Score              `json:"score"`
	SourceItems     []string           `json:"source_items,omitempty"`
	SuggestedFormat Format             `json:"suggested_format,omitempty"`
}

// Filters controls a generation request. ExcludeOwned and ExcludeWishlist are
// tri-state: nil means the default (exclude); only an explicit false disables
// the exclusion.
type Filters struct {
	Types           []RecommendationType `json:"types,omitempty"`
	ExcludeOwned    *bool                `json:"exclude_owned,omitempty"`
	ExcludeWishlist *bool                `json:"exclude_wishlist,omitempty"`
	MinConfidence   float64              `json:"min_confidence,omitempty"`
	MaxResults      int                  `json:"max_results,omitempty"`
}

const DefaultMaxResults = 20

// Normalized fills defaults so that two requests meaning the same thing
// compare structurally equal.
func (f Filters) Normalized() Filters {
	out := f
	if len(out.Types) == 0 {
		out.Types = []RecommendationType{TypeCollectionGap, TypeFormatUpgrade, TypeSimilarTitle}
	}
	if out.ExcludeOwned == nil {
		t := true
		out.ExcludeOwned = &t
	}
	if out.ExcludeWishlist == nil {
		t := true
		out.ExcludeWishlist = &t
	}
	if out.MaxResults <= 0 {
		out.MaxResults = DefaultMaxResults
	}
	return out
}

// TypeEnabled reports whether a strategy type is requested. Empty Types means
// all strategies run.
func (f Filters) TypeEnabled(t RecommendationType) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, enabled := range f.Types {
		if enabled == t {
			return true
		}
	}
	return false
}

// RecommendationStats summarizes a generated result set.
type RecommendationStats struct {
	Total         int                        `json:"total"`
	ByType        map[RecommendationType]int `json:"by_type"`
	AvgConfidence float64                    `json:"avg_confidence"`
	AvgRelevance  float64                    `json:"avg_relevance"`
}
