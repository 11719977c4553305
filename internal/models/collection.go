package models

import "time"

type Format string

const (
	FormatDVD      Format = "DVD"
	FormatBluRay   Format = "Blu-ray"
	Format4KUHD    Format = "4K UHD"
	Format3DBluRay Format = "3D Blu-ray"
)

// FormatHierarchy is ordered lowest to highest quality; upgrade suggestions
// move one step up this list.
var FormatHierarchy = []Format{FormatDVD, FormatBluRay, Format4KUHD, Format3DBluRay}

// NextFormat returns the next format up the hierarchy and false when the
// format is already at the top (or unknown).
func NextFormat(f Format) (Format, bool) {
	for i, candidate := range FormatHierarchy {
		if candidate == f && i < len(FormatHierarchy)-1 {
			return FormatHierarchy[i+1], true
		}
	}
	return "", false
}

type CollectionType string

const (
	CollectionOwned    CollectionType = "owned"
	CollectionWishlist CollectionType = "wishlist"
)

// CollectionItem is one physical title in a user's collection. Owned by the
// collection store; the recommendation engine only reads these.
type CollectionItem struct {
	ID             string         `json:"id" db:"id"`
	IMDbID         string         `json:"imdb_id" db:"imdb_id"`
	Title          string         `json:"title" db:"title"`
	Year           int            `json:"year,omitempty" db:"year"`
	Genre          string         `json:"genre,omitempty" db:"genre"`       // comma separated
	Director       string         `json:"director,omitempty" db:"director"` // comma separated
	Format         Format         `json:"format" db:"format"`
	PersonalRating *float64       `json:"personal_rating,omitempty" db:"personal_rating"`
	CollectionType CollectionType `json:"collection_type" db:"collection_type"`
	PosterURL      *string        `json:"poster_url,omitempty" db:"poster_url"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}
