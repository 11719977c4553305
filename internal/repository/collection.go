package repository

import (
	"context"
	"fmt"

	"mediashelf/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CollectionRepository is the collection store boundary. The recommendation
// engine only reads; Insert is used when an action converts a recommendation
// into an owned or wishlisted item.
type CollectionRepository interface {
	List(ctx context.Context, userID string) ([]models.CollectionItem, error)
	Insert(ctx context.Context, userID string, item models.CollectionItem) (*models.CollectionItem, error)
}

type collectionRepository struct {
	db *pgxpool.Pool
}

func NewCollectionRepository(db *pgxpool.Pool) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) List(ctx context.Context, userID string) ([]models.CollectionItem, error) {
	query := `
		SELECT id, imdb_id, title, year, genre, director, format,
			   personal_rating, collection_type, poster_url, created_at
		FROM collection_items
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	defer rows.Close()

	var items []models.CollectionItem
	for rows.Next() {
		item, err := scanCollectionItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection rows: %w", err)
	}

	return items, nil
}

func (r *collectionRepository) Insert(ctx context.Context, userID string, item models.CollectionItem) (*models.CollectionItem, error) {
	query := `
		INSERT INTO collection_items
			(id, user_id, imdb_id, title, year, genre, director, format,
			 personal_rating, collection_type, poster_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING created_at
	`

	inserted := item
	inserted.ID = uuid.NewString()
	err := r.db.QueryRow(ctx, query,
		inserted.ID, userID, item.IMDbID, item.Title, nullableInt(item.Year),
		nullableString(item.Genre), nullableString(item.Director),
		string(item.Format), item.PersonalRating, string(item.CollectionType),
		item.PosterURL,
	).Scan(&inserted.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert collection item: %w", err)
	}

	return &inserted, nil
}

func scanCollectionItem(rows pgx.Rows) (models.CollectionItem, error) {
	var item models.CollectionItem
	var year pgtype.Int4
	var genre, director, posterURL pgtype.Text
	var rating pgtype.Float8

	err := rows.Scan(
		&item.ID, &item.IMDbID, &item.Title, &year, &genre, &director,
		&item.Format, &rating, &item.CollectionType, &posterURL, &item.CreatedAt,
	)
	if err != nil {
		return item, err
	}

	if year.Valid {
		item.Year = int(year.Int32)
	}
	if genre.Valid {
		item.Genre = genre.String
	}
	if director.Valid {
		item.Director = director.String
	}
	if rating.Valid {
		value := rating.Float64
		item.PersonalRating = &value
	}
	if posterURL.Valid {
		value := posterURL.String
		item.PosterURL = &value
	}

	return item, nil
}

func nullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
