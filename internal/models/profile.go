package models

// GenrePreference tallies how often a genre appears in the collection and the
// average personal rating of the rated items carrying it.
type GenrePreference struct {
	Genre     string  `json:"genre"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

type DirectorPreference struct {
	Director  string  `json:"director"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

type FormatPreference struct {
	Format Format `json:"format"`
	Count  int    `json:"count"`
}

type RatingPattern struct {
	AvgRating          float64 `json:"avg_rating"`
	HighRatedThreshold float64 `json:"high_rated_threshold"`
	RatingCount        int     `json:"rating_count"`
}

type CollectionStats struct {
	Total               int    `json:"total"`
	Owned               int    `json:"owned"`
	Wishlist            int    `json:"wishlist"`
	MostCollectedDecade string `json:"most_collected_decade"`
}

// UserProfile is derived from the current collection on every generation
// pass. It has no persisted identity; recomputing it is always safe.
type UserProfile struct {
	FavoriteGenres    []GenrePreference    `json:"favorite_genres"`
	FavoriteDirectors []DirectorPreference `json:"favorite_directors"`
	FormatPreferences []FormatPreference   `json:"format_preferences"`
	RatingPattern     RatingPattern        `json:"rating_pattern"`
	CollectionStats   CollectionStats      `json:"collection_stats"`
}
