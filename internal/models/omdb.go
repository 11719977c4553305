package models

// Wire types for the OMDb-style metadata API. OMDb answers errors in-band:
// Response is the string "False" and Error carries the provider's reason
// ("Request limit reached!" for rate limiting).

type OMDbSearchResponse struct {
	Search       []OMDbSearchItem `json:"Search"`
	TotalResults string           `json:"totalResults"`
	Response     string           `json:"Response"`
	Error        string           `json:"Error,omitempty"`
}

type OMDbSearchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type OMDbTitleResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbID     string `json:"imdbID"`
	Type       string `json:"Type"`
	Response   string `json:"Response"`
	Error      string `json:"Error,omitempty"`
}

// SearchResult is the normalized shape strategies consume.
type SearchResult struct {
	IMDbID    string `json:"imdb_id"`
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`
	PosterURL string `json:"poster_url,omitempty"`
}

// TitleDetails is the normalized full-metadata shape.
type TitleDetails struct {
	IMDbID     string  `json:"imdb_id"`
	Title      string  `json:"title"`
	Year       int     `json:"year,omitempty"`
	Genre      string  `json:"genre,omitempty"`
	Director   string  `json:"director,omitempty"`
	Plot       string  `json:"plot,omitempty"`
	PosterURL  string  `json:"poster_url,omitempty"`
	IMDbRating float64 `json:"imdb_rating,omitempty"`
}
