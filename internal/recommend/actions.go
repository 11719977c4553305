package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediashelf/internal/cache"
	"mediashelf/internal/models"
	"mediashelf/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	sessionKeyPrefix = "session:"
	sessionIdleTTL   = 30 * time.Minute
)

var (
	// ErrDuplicateAction means the user already performed this action on
	// this recommendation.
	ErrDuplicateAction = errors.New("action already recorded for this recommendation")

	// ErrReasonRequired means a dismissal arrived without a feedback reason.
	ErrReasonRequired = errors.New("dismissal requires a feedback reason")

	// ErrInvalidReason means the feedback reason is outside the fixed set.
	ErrInvalidReason = errors.New("unknown feedback reason")

	// ErrCollectionInsert wraps a failed collection-store insert; no action
	// record is written when it occurs.
	ErrCollectionInsert = errors.New("collection store insert failed")
)

type ActionOptions struct {
	Reason    *models.FeedbackReason
	Comment   *string
	SessionID string
}

// Tracker records user responses to recommendations. Wishlist and owned
// actions first insert the title into the collection store; the action log
// is only written after that side effect succeeds.
type Tracker struct {
	actions    repository.ActionRepository
	collection repository.CollectionRepository
	kv         cache.KV
	cache      *Cache // invalidated after converting actions
	logger     *logrus.Logger
}

func NewTracker(actions repository.ActionRepository, collection repository.CollectionRepository, kv cache.KV, recCache *Cache, logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Tracker{
		actions:    actions,
		collection: collection,
		kv:         kv,
		cache:      recCache,
		logger:     logger,
	}
}

// RecordAction appends one action to the log. Duplicate non-view actions for
// the same (imdb_id, recommendation_type) are rejected; dismissals need a
// reason from the fixed set, with a comment that stays optional even for
// "other".
func (t *Tracker) RecordAction(ctx context.Context, userID string, rec models.Recommendation, action models.ActionType, opts ActionOptions) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if rec.IMDbID == "" {
		return fmt.Errorf("recommendation has no imdb id")
	}

	if action == models.ActionNotInterested {
		if opts.Reason == nil {
			return ErrReasonRequired
		}
		if !models.ValidFeedbackReason(*opts.Reason) {
			return fmt.Errorf("%w: %s", ErrInvalidReason, *opts.Reason)
		}
	}

	if action != models.ActionViewed {
		exists, err := t.actions.Exists(ctx, userID, rec.IMDbID, rec.Type, action)
		if err != nil {
			return fmt.Errorf("failed to check for duplicate action: %w", err)
		}
		if exists {
			return ErrDuplicateAction
		}
	}

	// the collection insert must succeed before anything is logged
	if action == models.ActionAddToWishlist || action == models.ActionMarkAsOwned {
		if err := t.insertCollectionItem(ctx, userID, rec, action); err != nil {
			return fmt.Errorf("%w: %v", ErrCollectionInsert, err)
		}
		if t.cache != nil {
			if err := t.cache.Invalidate(ctx, userID); err != nil {
				t.logger.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate recommendation cache")
			}
		}
	}

	record := &models.ActionRecord{
		UserID:             userID,
		IMDbID:             rec.IMDbID,
		RecommendationType: rec.Type,
		Action:             action,
		FeedbackReason:     opts.Reason,
		Comment:            opts.Comment,
		SessionID:          opts.SessionID,
	}
	if err := t.actions.Insert(ctx, record); err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"imdb_id": rec.IMDbID,
		"action":  string(action),
	}).Info("Recommendation action recorded")

	return nil
}

// HasActedOn reports whether any action exists for the exact
// (imdb_id, recommendation_type) pair.
func (t *Tracker) HasActedOn(ctx context.Context, userID, imdbID string, recType models.RecommendationType) (bool, error) {
	return t.actions.HasActedOn(ctx, userID, imdbID, recType)
}

// ConversionRate is (wishlist + owned actions) / total actions, 0 when the
// user has no actions yet.
func (t *Tracker) ConversionRate(ctx context.Context, userID string) (float64, error) {
	counts, err := t.actions.CountByAction(ctx, userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}
	if total == 0 {
		return 0, nil
	}

	converted := counts[models.ActionAddToWishlist] + counts[models.ActionMarkAsOwned]
	return float64(converted) / float64(total), nil
}

// StartSession creates an ephemeral session id grouping the views and
// actions of one generation batch. It expires after the idle timeout.
func (t *Tracker) StartSession(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.NewString()
	key := sessionKeyPrefix + userID + ":" + sessionID
	if err := t.kv.Set(ctx, key, time.Now().Format(time.RFC3339), sessionIdleTTL); err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return sessionID, nil
}

// TouchSession extends the idle timeout; false means the session expired.
func (t *Tracker) TouchSession(ctx context.Context, userID, sessionID string) (bool, error) {
	key := sessionKeyPrefix + userID + ":" + sessionID
	if _, err := t.kv.Get(ctx, key); err != nil {
		if err == cache.ErrMiss {
			return false, nil
		}
		return false, err
	}
	if err := t.kv.Set(ctx, key, time.Now().Format(time.RFC3339), sessionIdleTTL); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Tracker) insertCollectionItem(ctx context.Context, userID string, rec models.Recommendation, action models.ActionType) error {
	collectionType := models.CollectionWishlist
	if action == models.ActionMarkAsOwned {
		collectionType = models.CollectionOwned
	}

	item := models.CollectionItem{
		IMDbID:         rec.IMDbID,
		Title:          rec.Title,
		Year:           rec.Year,
		Genre:          rec.Genre,
		Director:       rec.Director,
		Format:         rec.SuggestedFormat,
		CollectionType: collectionType,
	}
	if item.Format == "" {
		item.Format = models.FormatBluRay
	}
	if rec.PosterURL != "" {
		poster := rec.PosterURL
		item.PosterURL = &poster
	}

	_, err := t.collection.Insert(ctx, userID, item)
	return err
}
