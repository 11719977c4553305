package handlers

import (
	"encoding/json"
	"net/http"

	"mediashelf/internal/container"
	"mediashelf/internal/models"
	"mediashelf/internal/recommend"
)

type generateRequest struct {
	Filters models.Filters `json:"filters"`
}

type generateResponse struct {
	Recommendations []models.Recommendation    `json:"recommendations"`
	Stats           models.RecommendationStats `json:"stats"`
}

type filterRequest struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Filters         models.Filters          `json:"filters"`
}

// GenerateHandler serves POST /api/recommendations: cache-aware generation
// for the authenticated user's collection.
func GenerateHandler(c *container.Container) http.HandlerFunc {
	return generationHandler(c, false)
}

// RefreshHandler serves POST /api/recommendations/refresh: same pipeline,
// cache bypassed.
func RefreshHandler(c *container.Container) http.HandlerFunc {
	return generationHandler(c, true)
}

func generationHandler(c *container.Container, force bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req generateRequest
		if r.Body != nil {
			// an empty body means default filters
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		collection, err := c.CollectionRepo.List(r.Context(), userID)
		if err != nil {
			c.Logger.WithError(err).WithField("user_id", userID).Error("Failed to load collection")
			writeError(w, http.StatusInternalServerError, "failed to load collection")
			return
		}

		var recs []models.Recommendation
		if force {
			recs, err = c.Engine.Refresh(r.Context(), userID, collection, req.Filters)
		} else {
			recs, err = c.Engine.Generate(r.Context(), userID, collection, req.Filters)
		}
		if err != nil {
			c.Logger.WithError(err).WithField("user_id", userID).Error("Generation failed")
			writeError(w, http.StatusInternalServerError, "failed to generate recommendations")
			return
		}

		writeJSON(w, http.StatusOK, generateResponse{
			Recommendations: recs,
			Stats:           recommend.Stats(recs),
		})
	}
}

// FilterHandler serves POST /api/recommendations/filter: client-side
// re-filtering of an already generated set, no regeneration.
func FilterHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if _, ok := requireUser(w, r); !ok {
			return
		}

		var req filterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		recs := c.Engine.FilterExisting(req.Recommendations, req.Filters)
		writeJSON(w, http.StatusOK, generateResponse{
			Recommendations: recs,
			Stats:           recommend.Stats(recs),
		})
	}
}

// StatsHandler serves GET /api/recommendations/stats for the user's current
// recommendation set (generated on demand if the cache is cold).
func StatsHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		collection, err := c.CollectionRepo.List(r.Context(), userID)
		if err != nil {
			c.Logger.WithError(err).WithField("user_id", userID).Error("Failed to load collection")
			writeError(w, http.StatusInternalServerError, "failed to load collection")
			return
		}

		recs, err := c.Engine.Generate(r.Context(), userID, collection, models.Filters{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to generate recommendations")
			return
		}

		writeJSON(w, http.StatusOK, recommend.Stats(recs))
	}
}
