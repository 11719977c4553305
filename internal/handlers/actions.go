package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mediashelf/internal/container"
	"mediashelf/internal/models"
	"mediashelf/internal/recommend"
)

const postActionRefreshDelay = 30 * time.Second

type actionRequest struct {
	Recommendation models.Recommendation  `json:"recommendation"`
	Action         models.ActionType      `json:"action"`
	Reason         *models.FeedbackReason `json:"reason,omitempty"`
	Comment        *string                `json:"comment,omitempty"`
	SessionID      string                 `json:"session_id,omitempty"`
}

// ActionHandler serves POST /api/actions: records user feedback on a
// recommendation. Converting actions (wishlist/owned) also queue a debounced
// background refresh, since the collection just changed.
func ActionHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := c.Tracker.RecordAction(r.Context(), userID, req.Recommendation, req.Action, recommend.ActionOptions{
			Reason:    req.Reason,
			Comment:   req.Comment,
			SessionID: req.SessionID,
		})
		switch {
		case err == nil:
		case errors.Is(err, recommend.ErrDuplicateAction):
			writeError(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, recommend.ErrReasonRequired), errors.Is(err, recommend.ErrInvalidReason):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, recommend.ErrCollectionInsert):
			writeError(w, http.StatusBadGateway, err.Error())
			return
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if req.Action == models.ActionAddToWishlist || req.Action == models.ActionMarkAsOwned {
			if collection, err := c.CollectionRepo.List(r.Context(), userID); err == nil {
				c.Scheduler.Schedule(userID, collection, recommend.ScheduleOptions{
					Delay:   postActionRefreshDelay,
					Trigger: recommend.TriggerUserAction,
				})
			}
		}

		writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
	}
}

// HasActedOnHandler serves GET /api/actions/acted?imdb_id=..&type=..
func HasActedOnHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		imdbID := r.URL.Query().Get("imdb_id")
		recType := models.RecommendationType(r.URL.Query().Get("type"))
		if imdbID == "" || recType == "" {
			writeError(w, http.StatusBadRequest, "imdb_id and type are required")
			return
		}

		acted, err := c.Tracker.HasActedOn(r.Context(), userID, imdbID, recType)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"acted": acted})
	}
}

// ConversionHandler serves GET /api/actions/conversion.
func ConversionHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		rate, err := c.Tracker.ConversionRate(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"conversion_rate": rate})
	}
}

// SessionHandler serves POST /api/sessions: starts an activity session
// grouping the views and actions of one recommendation batch.
func SessionHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		sessionID, err := c.Tracker.StartSession(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
	}
}
