package models

import "time"

type ActionType string

const (
	ActionAddToWishlist ActionType = "add_to_wishlist"
	ActionMarkAsOwned   ActionType = "mark_as_owned"
	ActionNotInterested ActionType = "not_interested"
	ActionViewed        ActionType = "viewed"
)

type FeedbackReason string

const (
	ReasonNotMyGenre   FeedbackReason = "not_my_genre"
	ReasonAlreadySeen  FeedbackReason = "already_seen"
	ReasonBadReviews   FeedbackReason = "bad_reviews"
	ReasonTooExpensive FeedbackReason = "too_expensive"
	ReasonNotAvailable FeedbackReason = "not_available"
	ReasonOther        FeedbackReason = "other"
)

// ValidFeedbackReason reports membership in the fixed dismissal reason set.
func ValidFeedbackReason(r FeedbackReason) bool {
	switch r {
	case ReasonNotMyGenre, ReasonAlreadySeen, ReasonBadReviews,
		ReasonTooExpensive, ReasonNotAvailable, ReasonOther:
		return true
	}
	return false
}

// ActionRecord is one row of the append-only feedback log. Records are only
// inserted and queried, never mutated.
type ActionRecord struct {
	ID                 int                `json:"id" db:"id"`
	UserID             string             `json:"user_id" db:"user_id"`
	IMDbID             string             `json:"imdb_id" db:"imdb_id"`
	RecommendationType RecommendationType `json:"recommendation_type" db:"recommendation_type"`
	Action             ActionType         `json:"action" db:"action"`
	FeedbackReason     *FeedbackReason    `json:"feedback_reason,omitempty" db:"feedback_reason"`
	Comment            *string            `json:"comment,omitempty" db:"comment"`
	SessionID          string             `json:"session_id" db:"session_id"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
}
