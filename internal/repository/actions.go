package repository

import (
	"context"
	"fmt"

	"mediashelf/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionRepository is the append-only feedback log. Rows are inserted and
// queried, never updated or deleted.
type ActionRepository interface {
	Insert(ctx context.Context, record *models.ActionRecord) error
	Exists(ctx context.Context, userID, imdbID string, recType models.RecommendationType, action models.ActionType) (bool, error)
	HasActedOn(ctx context.Context, userID, imdbID string, recType models.RecommendationType) (bool, error)
	CountByAction(ctx context.Context, userID string) (map[models.ActionType]int, error)
}

type actionRepository struct {
	db *pgxpool.Pool
}

func NewActionRepository(db *pgxpool.Pool) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Insert(ctx context.Context, record *models.ActionRecord) error {
	query := `
		INSERT INTO recommendation_actions
			(user_id, imdb_id, recommendation_type, action, feedback_reason,
			 comment, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		record.UserID, record.IMDbID, string(record.RecommendationType),
		string(record.Action), record.FeedbackReason, record.Comment,
		record.SessionID,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert action record: %w", err)
	}

	return nil
}

func (r *actionRepository) Exists(ctx context.Context, userID, imdbID string, recType models.RecommendationType, action models.ActionType) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM recommendation_actions
			WHERE user_id = $1 AND imdb_id = $2
			  AND recommendation_type = $3 AND action = $4
		)`, userID, imdbID, string(recType), string(action)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing action: %w", err)
	}
	return exists, nil
}

func (r *actionRepository) HasActedOn(ctx context.Context, userID, imdbID string, recType models.RecommendationType) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM recommendation_actions
			WHERE user_id = $1 AND imdb_id = $2 AND recommendation_type = $3
		)`, userID, imdbID, string(recType)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check action history: %w", err)
	}
	return exists, nil
}

func (r *actionRepository) CountByAction(ctx context.Context, userID string) (map[models.ActionType]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT action, COUNT(*)
		FROM recommendation_actions
		WHERE user_id = $1
		GROUP BY action`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ActionType]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		counts[models.ActionType(action)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action counts: %w", err)
	}

	return counts, nil
}
